package version

import "testing"

func TestParseForms(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"2", Version{2, 0, 0}},
		{"2.5", Version{2, 5, 0}},
		{"2.5.1", Version{2, 5, 1}},
		{"", Version{0, 0, 0}},
		{"x", Version{0, 0, 0}},
		{"1.x.3", Version{1, 0, 3}},
		{"1.2.3rc1", Version{1, 2, 0}},
		{"10.20.30", Version{10, 20, 30}},
		{"-1.2", Version{0, 2, 0}},
	}
	for _, tc := range cases {
		if got := Parse(tc.in); got != tc.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestParseNeverPanics(t *testing.T) {
	for _, s := range []string{".", "..", "...", "1.", ".1", "a.b.c", "2..3"} {
		_ = Parse(s)
	}
}

func TestCompareEquality(t *testing.T) {
	if Compare(Parse("2"), Parse("2.0.0")) != 0 {
		t.Fatalf("expected 2 == 2.0.0")
	}
	if !Parse("2").Equal(Parse("2.0")) {
		t.Fatalf("expected 2 == 2.0")
	}
}

func TestCompareOrdering(t *testing.T) {
	ordered := []string{"1.2.3", "1.2.4", "1.3.0", "1.9.9", "2.0.0", "2.0.1", "2.1.0"}
	for i := 1; i < len(ordered); i++ {
		a, b := Parse(ordered[i-1]), Parse(ordered[i])
		if !a.Less(b) {
			t.Fatalf("expected %s < %s", ordered[i-1], ordered[i])
		}
		if Compare(b, a) != 1 {
			t.Fatalf("expected %s > %s", ordered[i], ordered[i-1])
		}
	}
}

func TestMajorDominates(t *testing.T) {
	if !Parse("1.99.99").Less(Parse("2.0.0")) {
		t.Fatalf("major must dominate minor and patch")
	}
	if !Parse("2.1.99").Less(Parse("2.2.0")) {
		t.Fatalf("minor must dominate patch")
	}
}

func TestString(t *testing.T) {
	if got := Parse("3.1").String(); got != "3.1.0" {
		t.Fatalf("unexpected string: %q", got)
	}
}

// Package version parses and orders dotted call-library version identifiers.
//
// Parsing is deliberately forgiving: peers advertise whatever their build
// produces, so a malformed segment degrades to zero instead of failing.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a dotted library version identifier.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse reads "M", "M.m" or "M.m.p". Missing segments default to zero and
// non-numeric segments parse as zero. It never fails.
func Parse(s string) Version {
	var v Version
	first := strings.IndexByte(s, '.')
	if first == -1 {
		v.Major = parseSegment(s)
		return v
	}
	v.Major = parseSegment(s[:first])
	rest := s[first+1:]
	second := strings.IndexByte(rest, '.')
	if second == -1 {
		v.Minor = parseSegment(rest)
		return v
	}
	v.Minor = parseSegment(rest[:second])
	v.Patch = parseSegment(rest[second+1:])
	return v
}

func parseSegment(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Compare orders versions lexicographically over (major, minor, patch).
// It returns -1, 0 or +1.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	return sign(a.Patch - b.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

func (v Version) Less(o Version) bool {
	return Compare(v, o) < 0
}

func (v Version) Equal(o Version) bool {
	return Compare(v, o) == 0
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

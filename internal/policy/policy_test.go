package policy

import (
	"sort"
	"sync"
	"testing"
)

func TestSetAndClearOption(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	if f.OptionEnabled(DisableIPv4) {
		t.Fatalf("option enabled before any write")
	}
	f.SetOption(DisableIPv4, true)
	if !f.OptionEnabled(DisableIPv4) {
		t.Fatalf("option not enabled after set")
	}
	f.SetOption(DisableIPv4, false)
	if f.OptionEnabled(DisableIPv4) {
		t.Fatalf("option still enabled after clear")
	}
}

func TestOptionEnabledRequiresEveryBit(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	f.SetOption(IgnoreTURNServers, true)
	if f.OptionEnabled(IgnoreTURNServers | IgnoreNonTURNServers) {
		t.Fatalf("mask with an unset bit reported enabled")
	}
	f.SetOption(IgnoreNonTURNServers, true)
	if !f.OptionEnabled(IgnoreTURNServers | IgnoreNonTURNServers) {
		t.Fatalf("mask with both bits set reported disabled")
	}
}

func TestForceDisableIdempotence(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	before := f.ForceDisabled("4.0.0")

	f.SetForceDisabled("4.0.0", true)
	if !f.ForceDisabled("4.0.0") {
		t.Fatalf("version not disabled after set")
	}
	f.SetForceDisabled("4.0.0", false)
	if f.ForceDisabled("4.0.0") != before {
		t.Fatalf("set+clear did not restore original state")
	}
}

func TestClearingUnknownVersionIsHarmless(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	f.SetForceDisabled("9.9.9", false)
	if f.ForceDisabled("9.9.9") {
		t.Fatalf("unexpected disable after no-op clear")
	}
}

func TestPlatformFloorDisablesEverythingButLegacy(t *testing.T) {
	f := NewFlags(PlatformFloor{
		Below:         func() bool { return true },
		LegacyVersion: "2.4.4",
	})
	if f.ForceDisabled("2.4.4") {
		t.Fatalf("legacy version disabled by floor")
	}
	if !f.ForceDisabled("5.0.0") {
		t.Fatalf("non-legacy version not disabled by floor")
	}
}

func TestFloorAndManualSetCompose(t *testing.T) {
	below := false
	f := NewFlags(PlatformFloor{
		Below:         func() bool { return below },
		LegacyVersion: "2.4.4",
	})

	// Manual entry works independently of the floor.
	f.SetForceDisabled("5.0.0", true)
	if !f.ForceDisabled("5.0.0") {
		t.Fatalf("manual entry ignored")
	}
	f.SetForceDisabled("5.0.0", false)
	if f.ForceDisabled("5.0.0") {
		t.Fatalf("manual clear ignored")
	}

	// Dropping below the floor disables non-legacy versions even though
	// the manual entry was cleared; the legacy version stays usable even
	// when manually listed entries exist for other versions.
	below = true
	if !f.ForceDisabled("5.0.0") {
		t.Fatalf("floor not applied after manual clear")
	}
	if f.ForceDisabled("2.4.4") {
		t.Fatalf("floor disabled the legacy version")
	}
}

func TestForceDisabledVersionsSnapshot(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	f.SetForceDisabled("3.0.0", true)
	f.SetForceDisabled("4.1.0", true)
	got := f.ForceDisabledVersions()
	sort.Strings(got)
	if len(got) != 2 || got[0] != "3.0.0" || got[1] != "4.1.0" {
		t.Fatalf("unexpected snapshot: %v", got)
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	f := NewFlags(PlatformFloor{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				f.SetOption(DisableIPv4, j%2 == 0)
				f.SetForceDisabled("5.0.0", j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = f.OptionEnabled(DisableIPv4 | IgnoreTURNServers)
				_ = f.ForceDisabled("5.0.0")
			}
		}()
	}
	wg.Wait()
}

func TestOptionNamesCoverEveryOption(t *testing.T) {
	for _, opt := range AllDebugOptions() {
		if OptionName(opt) == "" {
			t.Fatalf("missing name for option %#x", opt)
		}
	}
	if OptionName(DebugOption(1<<30)) != "" {
		t.Fatalf("unexpected name for unknown option")
	}
}

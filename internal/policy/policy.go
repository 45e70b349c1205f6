// Package policy holds the runtime debug/testing switches that steer call
// setup: a bitmask of debug options and a set of force-disabled engine
// versions. Flags is an injected context object, safe for concurrent use
// by in-flight negotiations and the admin control surface.
package policy

import "sync"

// DebugOption is a single debug toggle bit.
type DebugOption uint32

const (
	DisableAEC DebugOption = 1 << iota
	DisableNS
	DisableAGC
	DisableP2P
	DisableIPv4
	IgnoreTURNServers
	IgnoreNonTURNServers
)

// AllDebugOptions lists every toggle in the order the debug UI renders them.
func AllDebugOptions() []DebugOption {
	return []DebugOption{
		DisableAEC,
		DisableNS,
		DisableAGC,
		DisableIPv4,
		IgnoreTURNServers,
		IgnoreNonTURNServers,
		DisableP2P,
	}
}

// OptionName returns the human-readable label for a single option.
func OptionName(opt DebugOption) string {
	switch opt {
	case DisableAEC:
		return "Disable AEC"
	case DisableNS:
		return "Disable NS"
	case DisableAGC:
		return "Disable AGC"
	case DisableIPv4:
		return "Disable ipv4"
	case IgnoreTURNServers:
		return "Exclude TURN servers & fail if none remaining"
	case IgnoreNonTURNServers:
		return "Exclude non-TURN servers & fail if none remaining"
	case DisableP2P:
		return "Disable P2P"
	}
	return ""
}

// PlatformFloor marks platforms too old to run anything but the legacy
// engine. Below reports whether the current platform is under the floor;
// LegacyVersion is the single version exempt from the floor.
type PlatformFloor struct {
	Below         func() bool
	LegacyVersion string
}

// Flags is the call-setup policy context. The zero value is not usable;
// construct with NewFlags.
type Flags struct {
	mu            sync.RWMutex
	options       DebugOption
	forceDisabled map[string]struct{}
	floor         PlatformFloor
}

func NewFlags(floor PlatformFloor) *Flags {
	return &Flags{
		forceDisabled: make(map[string]struct{}),
		floor:         floor,
	}
}

// SetOption sets or clears a single debug option bit. Latest write wins.
func (f *Flags) SetOption(opt DebugOption, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if enabled {
		f.options |= opt
	} else {
		f.options &^= opt
	}
}

// OptionEnabled reports whether every bit in mask is currently set.
func (f *Flags) OptionEnabled(mask DebugOption) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.options&mask == mask
}

// SetForceDisabled adds or removes a version from the manual
// force-disabled set.
func (f *Flags) SetForceDisabled(version string, disabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if disabled {
		f.forceDisabled[version] = struct{}{}
	} else {
		delete(f.forceDisabled, version)
	}
}

// ForceDisabled reports whether a version is administratively excluded
// from negotiation. The manual set and the platform floor are independent
// predicates: a version is disabled if either holds, and clearing a
// manual entry never masks the floor.
func (f *Flags) ForceDisabled(version string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if _, ok := f.forceDisabled[version]; ok {
		return true
	}
	if f.floor.Below != nil && f.floor.Below() {
		return version != f.floor.LegacyVersion
	}
	return false
}

// ForceDisabledVersions returns the manual set in unspecified order.
func (f *Flags) ForceDisabledVersions() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.forceDisabled))
	for v := range f.forceDisabled {
		out = append(out, v)
	}
	return out
}

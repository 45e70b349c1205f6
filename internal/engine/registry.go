package engine

import (
	"errors"
	"sync"

	"github.com/dialstack/callcore/internal/policy"
)

var (
	ErrLegacyRequired  = errors.New("engine: registry requires a legacy candidate")
	ErrVersionRequired = errors.New("engine: candidate version required")
	ErrFactoryRequired = errors.New("engine: candidate factory required")
	ErrCandidateExists = errors.New("engine: candidate already registered")
)

// Registry reports which engine implementations are locally available.
// It holds the single legacy engine plus pluggable candidates in
// registration order.
type Registry struct {
	mu         sync.RWMutex
	legacy     Candidate
	flags      *policy.Flags
	candidates []Candidate
	byVersion  map[string]int
}

func NewRegistry(legacy Candidate, flags *policy.Flags) (*Registry, error) {
	if !legacy.Legacy || legacy.Version == "" || legacy.New == nil {
		return nil, ErrLegacyRequired
	}
	return &Registry{
		legacy:    legacy,
		flags:     flags,
		byVersion: make(map[string]int),
	}, nil
}

// Register adds a pluggable engine candidate. At most one candidate may
// exist per version.
func (r *Registry) Register(c Candidate) error {
	if c.Legacy {
		return ErrCandidateExists
	}
	if c.Version == "" {
		return ErrVersionRequired
	}
	if c.New == nil {
		return ErrFactoryRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byVersion[c.Version]; ok {
		return ErrCandidateExists
	}
	r.byVersion[c.Version] = len(r.candidates)
	r.candidates = append(r.candidates, c)
	return nil
}

func (r *Registry) LegacyCandidate() Candidate {
	return r.legacy
}

func (r *Registry) LegacyVersion() string {
	return r.legacy.Version
}

// HasPluggable reports whether a pluggable candidate exists for version.
func (r *Registry) HasPluggable(version string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byVersion[version]
	return ok
}

// PluggableCandidate returns the candidate registered for version.
func (r *Registry) PluggableCandidate(version string) (Candidate, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.byVersion[version]
	if !ok {
		return Candidate{}, false
	}
	return r.candidates[idx], true
}

// AvailableVersions returns the locally usable engine versions, legacy
// first, then pluggable candidates in registration order, duplicates
// collapsed. With applyForceDisableFilter set, force-disabled versions
// are excluded; if that would leave nothing, the unfiltered legacy
// version is returned so the registry never reports zero versions.
func (r *Registry) AvailableVersions(applyForceDisableFilter bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{}, len(r.candidates)+1)
	versions := make([]string, 0, len(r.candidates)+1)
	add := func(v string) {
		if _, dup := seen[v]; dup {
			return
		}
		if applyForceDisableFilter && r.flags != nil && r.flags.ForceDisabled(v) {
			return
		}
		seen[v] = struct{}{}
		versions = append(versions, v)
	}
	add(r.legacy.Version)
	for _, c := range r.candidates {
		add(c.Version)
	}
	if len(versions) == 0 {
		versions = append(versions, r.legacy.Version)
	}
	return versions
}

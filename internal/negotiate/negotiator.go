// Package negotiate selects exactly one call-transport engine for a call
// attempt by walking the peer-advertised version list, and publishes the
// local protocol advertisement for outgoing calls.
package negotiate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dialstack/callcore/internal/engine"
	"github.com/dialstack/callcore/internal/observability"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/signaling"
)

// ErrNoCompatibleEngine is fatal for a call attempt: the peer's version
// list yielded no usable local engine.
var ErrNoCompatibleEngine = errors.New("negotiate: no compatible engine")

// Config wires a Negotiator.
type Config struct {
	Flags    *policy.Flags
	Registry *engine.Registry
	// ForceDirectLegacy short-circuits selection to the legacy engine
	// whenever the peer advertises its version, even when a pluggable
	// candidate exists for it.
	ForceDirectLegacy bool
	Log               zerolog.Logger
}

// Negotiator matches peer-advertised versions against locally available
// engines. One negotiation is sequential and synchronous; the Negotiator
// itself never retries.
type Negotiator struct {
	flags             *policy.Flags
	registry          *engine.Registry
	forceDirectLegacy bool
	log               zerolog.Logger
}

func New(cfg Config) (*Negotiator, error) {
	if cfg.Flags == nil || cfg.Registry == nil {
		return nil, errors.New("negotiate: flags and registry are required")
	}
	return &Negotiator{
		flags:             cfg.Flags,
		registry:          cfg.Registry,
		forceDirectLegacy: cfg.ForceDirectLegacy,
		log:               cfg.Log,
	}, nil
}

// Selection reports which candidate a version scan settled on.
type Selection struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Legacy  bool   `json:"legacy"`
}

// candidateFor applies the per-version selection rule. The legacy engine
// wins for its own version when forced, when no pluggable candidate
// covers the version, or when the version is force-disabled; otherwise a
// registered pluggable candidate is used.
func (n *Negotiator) candidateFor(v string) (engine.Candidate, bool) {
	if v == n.registry.LegacyVersion() &&
		(n.forceDirectLegacy || !n.registry.HasPluggable(v) || n.flags.ForceDisabled(v)) {
		return n.registry.LegacyCandidate(), true
	}
	return n.registry.PluggableCandidate(v)
}

// Preview reports which candidate the scan would settle on for a peer
// version list, without constructing anything. Construction failures
// cannot be predicted here, so a previewed candidate may still be skipped
// in a live negotiation.
func (n *Negotiator) Preview(libraryVersions []string) (Selection, error) {
	for _, v := range libraryVersions {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if cand, ok := n.candidateFor(v); ok {
			return Selection{Name: cand.Name, Version: cand.Version, Legacy: cand.Legacy}, nil
		}
	}
	return Selection{}, ErrNoCompatibleEngine
}

// Negotiate walks the peer's version list in order, constructs the first
// matching engine, and starts it. On success the live instance is
// returned and teardown ownership transfers to the caller. On any
// initialization failure the instance is destroyed before the error is
// surfaced; a failed negotiation leaves no live engine behind.
func (n *Negotiator) Negotiate(ready signaling.ReadyState, cfg *engine.Configuration, opts *engine.Options, observer engine.StateObserver, sig *signaling.Client) (engine.Instance, error) {
	var inst engine.Instance
	for _, v := range ready.Protocol.LibraryVersions {
		if strings.TrimSpace(v) == "" {
			continue
		}
		cand, ok := n.candidateFor(v)
		if !ok {
			continue
		}
		built, err := cand.New(engine.Context{
			Signaling: sig,
			Config:    cfg,
			Options:   opts,
			Observer:  observer,
			Version:   v,
			Log:       n.log,
		})
		if err != nil {
			// Recoverable: an unsupported build for this version is not a
			// reason to abort the scan.
			n.log.Info().Err(err).Str("version", v).Msg("engine construction failed, trying next version")
			observability.RecordConstructFailure(v)
			continue
		}
		inst = built
		break
	}
	if inst == nil {
		observability.RecordNegotiation("no_match", "")
		return nil, ErrNoCompatibleEngine
	}

	if err := n.start(inst); err != nil {
		observability.RecordNegotiation("init_failed", inst.LibraryVersion())
		return nil, err
	}
	observability.RecordNegotiation("connected", inst.LibraryVersion())
	n.log.Info().
		Str("call_id", ready.CallID).
		Str("library", inst.LibraryName()).
		Str("version", inst.LibraryVersion()).
		Msg("engine negotiated")
	return inst, nil
}

// start runs InitializeAndConnect with a mandatory rollback: on error or
// runtime fault the instance is destroyed exactly once before the
// failure propagates.
func (n *Negotiator) start(inst engine.Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			inst.PerformDestroy()
			err = fmt.Errorf("negotiate: %s %s initialization fault: %v",
				inst.LibraryName(), inst.LibraryVersion(), r)
		}
	}()
	if initErr := inst.InitializeAndConnect(); initErr != nil {
		n.log.Error().Err(initErr).
			Str("library", inst.LibraryName()).
			Str("version", inst.LibraryVersion()).
			Msg("engine initialization failed")
		inst.PerformDestroy()
		return fmt.Errorf("negotiate: %s %s initialization failed: %w",
			inst.LibraryName(), inst.LibraryVersion(), initErr)
	}
	return nil
}

package engine

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// The legacy engine version is fixed per build; it is the guaranteed
// negotiation fallback. Layer bounds are published in the protocol
// advertisement.
const (
	LegacyLibraryName  = "corevoip"
	LegacyVersion      = "2.4.4"
	ConnectionMinLayer = 65
	ConnectionMaxLayer = 92
)

// LegacyCandidate returns the always-available legacy engine candidate.
func LegacyCandidate(logger zerolog.Logger) Candidate {
	return Candidate{
		Name:    LegacyLibraryName,
		Version: LegacyVersion,
		Legacy:  true,
		New: func(ctx Context) (Instance, error) {
			return newLegacy(ctx, logger)
		},
	}
}

// legacyEngine is the built-in fallback transport.
type legacyEngine struct {
	cfg      *Configuration
	opts     *Options
	observer StateObserver
	log      zerolog.Logger

	destroyOnce sync.Once
}

func newLegacy(ctx Context, logger zerolog.Logger) (*legacyEngine, error) {
	if ctx.Config == nil || ctx.Options == nil {
		return nil, fmt.Errorf("%w: legacy engine needs configuration and options", ErrConstruction)
	}
	return &legacyEngine{
		cfg:      ctx.Config,
		opts:     ctx.Options,
		observer: ctx.Observer,
		log:      logger.With().Str("engine", LegacyLibraryName).Logger(),
	}, nil
}

func (e *legacyEngine) InitializeAndConnect() error {
	if len(e.cfg.Ready.Servers) == 0 {
		return fmt.Errorf("%w: no relay servers offered", ErrInitialization)
	}
	e.notify(StateWaitInit)
	snapshot := e.opts.Snapshot()
	e.log.Info().
		Str("call_id", e.cfg.Ready.CallID).
		Bool("outgoing", e.cfg.Outgoing).
		Bool("force_tcp", e.cfg.ForceTCP).
		Int("servers", len(e.cfg.Ready.Servers)).
		Bool("mic_disabled", snapshot.MicDisabled).
		Msg("legacy engine connecting")
	e.notify(StateEstablished)
	return nil
}

func (e *legacyEngine) PerformDestroy() {
	e.destroyOnce.Do(func() {
		e.log.Info().Str("call_id", e.cfg.Ready.CallID).Msg("legacy engine destroyed")
	})
}

func (e *legacyEngine) LibraryName() string {
	return LegacyLibraryName
}

func (e *legacyEngine) LibraryVersion() string {
	return LegacyVersion
}

func (e *legacyEngine) notify(state ConnectionState) {
	if e.observer != nil {
		e.observer.OnConnectionStateChanged(state)
	}
}

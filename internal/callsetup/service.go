// Package callsetup runs one call attempt end to end: relay filtering,
// per-call configuration assembly, engine negotiation, and call log
// registration with the signalling feed.
package callsetup

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dialstack/callcore/internal/config"
	"github.com/dialstack/callcore/internal/engine"
	"github.com/dialstack/callcore/internal/negotiate"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/relay"
	"github.com/dialstack/callcore/internal/signaling"
)

var ErrNoObserver = errors.New("callsetup: nil state observer")

// Service owns the long-lived negotiation state for a process: the debug
// policy flags, the engine registry, and the negotiator built over them.
// One Service handles any number of sequential call attempts.
type Service struct {
	cfg        config.Service
	dataSaving engine.DataSavingMode

	flags      *policy.Flags
	registry   *engine.Registry
	negotiator *negotiate.Negotiator

	sig      *signaling.Client
	observer engine.StateObserver
	log      zerolog.Logger
}

// NewService builds the registry and negotiator from service
// configuration. The legacy engine is always present; one pluggable
// candidate is registered per configured version.
func NewService(cfg config.Service, floor policy.PlatformFloor, logger zerolog.Logger) (*Service, error) {
	mode, err := engine.ParseDataSavingMode(cfg.DataSaving)
	if err != nil {
		return nil, err
	}

	flags := policy.NewFlags(floor)
	registry, err := engine.NewRegistry(engine.LegacyCandidate(logger), flags)
	if err != nil {
		return nil, err
	}
	for _, v := range cfg.WebrtcVersions {
		if err := registry.Register(engine.WebrtcCandidate(v, logger)); err != nil {
			return nil, fmt.Errorf("callsetup: register engine %q: %w", v, err)
		}
	}

	negotiator, err := negotiate.New(negotiate.Config{
		Flags:             flags,
		Registry:          registry,
		ForceDirectLegacy: cfg.ForceDirectLegacy,
		Log:               logger,
	})
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:        cfg,
		dataSaving: mode,
		flags:      flags,
		registry:   registry,
		negotiator: negotiator,
		log:        logger,
	}
	s.observer = engine.StateObserverFunc(func(state engine.ConnectionState) {
		s.log.Debug().Str("state", state.String()).Msg("call connection state")
	})
	return s, nil
}

// AttachSignaling wires the signalling feed used for call log
// registration and engine construction. Optional; a Service without a
// feed still negotiates.
func (s *Service) AttachSignaling(c *signaling.Client) {
	s.sig = c
}

// SetObserver replaces the default logging state observer.
func (s *Service) SetObserver(o engine.StateObserver) error {
	if o == nil {
		return ErrNoObserver
	}
	s.observer = o
	return nil
}

func (s *Service) Flags() *policy.Flags { return s.flags }

func (s *Service) Registry() *engine.Registry { return s.registry }

func (s *Service) Negotiator() *negotiate.Negotiator { return s.negotiator }

// Protocol is the local protocol advertisement for outgoing call offers.
func (s *Service) Protocol() signaling.CallProtocol {
	return negotiate.Advertise(s.registry, s.flags, s.cfg.MinLayer, s.cfg.MaxLayer)
}

// SetupCall filters the offered relay set, assembles the per-call
// configuration, and negotiates an engine for the ready state. The
// returned instance is live; the caller owns its teardown.
func (s *Service) SetupCall(ready signaling.ReadyState) (engine.Instance, error) {
	servers, err := relay.Filter(s.flags, ready.Servers)
	if err != nil {
		s.log.Error().Err(err).Str("call_id", ready.CallID).Msg("relay filtering removed every server")
		return nil, err
	}
	ready.Servers = servers

	pair := s.allocateLogs(ready.CallID)
	cfg := s.buildConfiguration(ready, pair)
	opts := engine.NewOptions(engine.OptionsSnapshot{
		NetworkType:              engine.NetworkUnknown,
		AudioGainControl:         !s.flags.OptionEnabled(policy.DisableAGC),
		EchoCancellationStrength: 1,
	})

	return s.negotiator.Negotiate(ready, cfg, opts, s.observer, s.sig)
}

// allocateLogs reserves the per-call log file pair and registers it with
// the signalling feed. Log allocation failure degrades the call, it does
// not abort it.
func (s *Service) allocateLogs(callID string) engine.LogFilePair {
	pair, err := engine.NewLogFilePair(s.cfg.LogDir)
	if err != nil {
		s.log.Warn().Err(err).Str("call_id", callID).Msg("call log allocation failed, continuing without logs")
		return engine.LogFilePair{}
	}
	if s.sig != nil {
		if err := s.sig.StoreCallLog(callID, pair.LogFile, pair.StatsLogFile); err != nil {
			s.log.Warn().Err(err).Str("call_id", callID).Msg("call log registration failed")
		}
	}
	return pair
}

func (s *Service) buildConfiguration(ready signaling.ReadyState, pair engine.LogFilePair) *engine.Configuration {
	t := s.cfg.Tuning
	return &engine.Configuration{
		Ready:    ready,
		Outgoing: ready.Outgoing,

		PersistentStateFile: s.cfg.PersistentStateFile,
		LogFile:             pair.LogFile,
		StatsLogFile:        pair.StatsLogFile,

		PacketTimeout:  s.cfg.PacketTimeout(),
		ConnectTimeout: s.cfg.ConnectTimeout(),
		DataSaving:     s.dataSaving,
		ForceTCP:       s.cfg.ForceTCP,
		Proxy:          proxyFor(s.cfg.Proxy),

		PreferSystemAEC:   t.UseSystemAEC && !s.flags.OptionEnabled(policy.DisableAEC),
		PreferSystemNS:    t.UseSystemNS && !s.flags.OptionEnabled(policy.DisableNS),
		EnableStunMarking: t.EnableStunMarking,
		EnableH265Encoder: t.EnableH265Encoder,
		EnableH265Decoder: t.EnableH265Decoder,
		EnableH264Encoder: t.EnableH264Encoder,
		EnableH264Decoder: t.EnableH264Decoder,
	}
}

func proxyFor(p config.Proxy) *engine.Proxy {
	if p.Host == "" {
		return nil
	}
	return &engine.Proxy{
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
		Password: p.Password,
	}
}

package engine

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/dialstack/callcore/internal/relay"
	"github.com/dialstack/callcore/internal/version"
)

// WebrtcLibraryName labels the pion-backed pluggable engine family.
const WebrtcLibraryName = "webrtc-calls"

// WebrtcMinVersion is the oldest protocol revision the pion engine can
// still speak. Older revisions only work through the legacy engine.
const WebrtcMinVersion = "3.0.0"

// WebrtcCandidate returns a pluggable candidate for one supported webrtc
// engine version.
func WebrtcCandidate(v string, logger zerolog.Logger) Candidate {
	return Candidate{
		Name:    WebrtcLibraryName,
		Version: v,
		New: func(ctx Context) (Instance, error) {
			return newWebrtc(ctx, v, logger)
		},
	}
}

// webrtcEngine is the pluggable transport built on pion. It configures
// ICE from the offered relay servers; media negotiation is out of scope.
type webrtcEngine struct {
	version    string
	cfg        *Configuration
	opts       *Options
	observer   StateObserver
	log        zerolog.Logger
	iceServers []webrtc.ICEServer

	mu sync.Mutex
	pc *webrtc.PeerConnection

	destroyOnce sync.Once
}

func newWebrtc(ctx Context, v string, logger zerolog.Logger) (*webrtcEngine, error) {
	if ctx.Config == nil || ctx.Options == nil {
		return nil, fmt.Errorf("%w: webrtc engine needs configuration and options", ErrConstruction)
	}
	if version.Parse(v).Less(version.Parse(WebrtcMinVersion)) {
		return nil, fmt.Errorf("%w: version %s predates the webrtc engine", ErrConstruction, v)
	}
	iceServers := relay.ICEServers(ctx.Config.Ready.Servers)
	if len(iceServers) == 0 {
		return nil, fmt.Errorf("%w: no webrtc relay servers offered for version %s", ErrConstruction, v)
	}
	return &webrtcEngine{
		version:    v,
		cfg:        ctx.Config,
		opts:       ctx.Options,
		observer:   ctx.Observer,
		log:        logger.With().Str("engine", WebrtcLibraryName).Str("version", v).Logger(),
		iceServers: iceServers,
	}, nil
}

func (e *webrtcEngine) InitializeAndConnect() error {
	rtcConfig := webrtc.Configuration{ICEServers: e.iceServers}
	if e.cfg.ForceTCP || !e.cfg.Ready.AllowP2P {
		rtcConfig.ICETransportPolicy = webrtc.ICETransportPolicyRelay
	}

	pc, err := webrtc.NewPeerConnection(rtcConfig)
	if err != nil {
		return fmt.Errorf("%w: create peer connection: %v", ErrInitialization, err)
	}
	e.mu.Lock()
	e.pc = pc
	e.mu.Unlock()

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		e.log.Debug().Str("ice_state", state.String()).Msg("ice state changed")
		e.notify(mapICEState(state))
	})

	if _, err := pc.CreateDataChannel("callcore-control", nil); err != nil {
		return fmt.Errorf("%w: create control channel: %v", ErrInitialization, err)
	}

	e.notify(StateWaitInit)
	e.log.Info().
		Str("call_id", e.cfg.Ready.CallID).
		Int("ice_servers", len(e.iceServers)).
		Bool("relay_only", rtcConfig.ICETransportPolicy == webrtc.ICETransportPolicyRelay).
		Msg("webrtc engine initialized")
	return nil
}

func (e *webrtcEngine) PerformDestroy() {
	e.destroyOnce.Do(func() {
		e.mu.Lock()
		pc := e.pc
		e.pc = nil
		e.mu.Unlock()
		if pc != nil {
			if err := pc.Close(); err != nil {
				e.log.Warn().Err(err).Msg("peer connection close failed")
			}
		}
		e.log.Info().Str("call_id", e.cfg.Ready.CallID).Msg("webrtc engine destroyed")
	})
}

func (e *webrtcEngine) LibraryName() string {
	return WebrtcLibraryName
}

func (e *webrtcEngine) LibraryVersion() string {
	return e.version
}

func (e *webrtcEngine) notify(state ConnectionState) {
	if e.observer != nil {
		e.observer.OnConnectionStateChanged(state)
	}
}

func mapICEState(state webrtc.ICEConnectionState) ConnectionState {
	switch state {
	case webrtc.ICEConnectionStateNew, webrtc.ICEConnectionStateChecking:
		return StateWaitInit
	case webrtc.ICEConnectionStateConnected, webrtc.ICEConnectionStateCompleted:
		return StateEstablished
	case webrtc.ICEConnectionStateDisconnected:
		return StateReconnecting
	default:
		return StateFailed
	}
}

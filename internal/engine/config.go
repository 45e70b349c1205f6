package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dialstack/callcore/internal/signaling"
)

// DataSavingMode mirrors the data-saving preference handed to an engine.
type DataSavingMode int

const (
	DataSavingNever DataSavingMode = iota
	DataSavingMobile
	DataSavingRoaming
	DataSavingAlways
)

// ParseDataSavingMode reads the configuration-file spelling of a mode.
func ParseDataSavingMode(s string) (DataSavingMode, error) {
	switch s {
	case "", "never":
		return DataSavingNever, nil
	case "mobile":
		return DataSavingMobile, nil
	case "roaming":
		return DataSavingRoaming, nil
	case "always":
		return DataSavingAlways, nil
	}
	return DataSavingNever, fmt.Errorf("engine: unknown data saving mode %q", s)
}

// NetworkType classifies the active network for call-quality tuning.
type NetworkType int

const (
	NetworkUnknown NetworkType = iota
	NetworkMobile
	NetworkWiFi
	NetworkEthernet
	NetworkOther
)

// Proxy describes an optional SOCKS5 proxy for the call transport.
type Proxy struct {
	Host     string
	Port     int
	Username string
	Password string
}

// Configuration is the immutable per-call-attempt engine configuration.
// Built once at negotiation start and handed to exactly one engine; never
// mutated afterwards.
type Configuration struct {
	Ready    signaling.ReadyState
	Outgoing bool

	PersistentStateFile string
	LogFile             string
	StatsLogFile        string

	PacketTimeout  time.Duration
	ConnectTimeout time.Duration
	DataSaving     DataSavingMode
	ForceTCP       bool
	Proxy          *Proxy

	PreferSystemAEC   bool
	PreferSystemNS    bool
	EnableStunMarking bool
	EnableH265Encoder bool
	EnableH265Decoder bool
	EnableH264Encoder bool
	EnableH264Decoder bool
}

// LogFilePair is the per-call log file allocation reported back to the
// signalling layer for persistence.
type LogFilePair struct {
	LogFile      string
	StatsLogFile string
}

// NewLogFilePair allocates a fresh call log / stats log path pair under
// dir, creating the directory if needed.
func NewLogFilePair(dir string) (LogFilePair, error) {
	if dir == "" {
		return LogFilePair{}, fmt.Errorf("engine: log directory not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return LogFilePair{}, fmt.Errorf("engine: create log directory: %w", err)
	}
	base := fmt.Sprintf("call-%s-%s", time.Now().UTC().Format("20060102-150405"), uuid.NewString()[:8])
	return LogFilePair{
		LogFile:      filepath.Join(dir, base+".log"),
		StatsLogFile: filepath.Join(dir, base+"-stats.log"),
	}, nil
}

// OptionsSnapshot is a consistent read of the mutable call options.
type OptionsSnapshot struct {
	NetworkType              NetworkType
	AudioGainControl         bool
	EchoCancellationStrength int
	MicDisabled              bool
}

// Options holds the call-lifetime parameters that may change while a call
// is active. The call session owns it; the engine reads it. All accessors
// are safe for concurrent use.
type Options struct {
	mu       sync.Mutex
	snapshot OptionsSnapshot
}

func NewOptions(snapshot OptionsSnapshot) *Options {
	return &Options{snapshot: snapshot}
}

func (o *Options) Snapshot() OptionsSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshot
}

func (o *Options) SetNetworkType(t NetworkType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshot.NetworkType = t
}

func (o *Options) SetAudioGainControl(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshot.AudioGainControl = enabled
}

func (o *Options) SetEchoCancellationStrength(strength int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshot.EchoCancellationStrength = strength
}

func (o *Options) SetMicDisabled(disabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.snapshot.MicDisabled = disabled
}

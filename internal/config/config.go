// Package config loads and validates callcored service configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Service is the full callcored configuration.
type Service struct {
	App         string   `toml:"app"`
	AdminAddr   string   `toml:"admin_addr"`
	AdminToken  string   `toml:"admin_token"`
	CorsOrigins []string `toml:"cors_origins"`

	SignalingURL string `toml:"signaling_url"`
	ServersFile  string `toml:"servers_file"`

	LogDir              string `toml:"log_dir"`
	PersistentStateFile string `toml:"persistent_state_file"`

	PacketTimeoutMS  int64 `toml:"packet_timeout_ms"`
	ConnectTimeoutMS int64 `toml:"connect_timeout_ms"`

	MinLayer int `toml:"min_layer"`
	MaxLayer int `toml:"max_layer"`

	ForceDirectLegacy bool     `toml:"force_direct_legacy"`
	WebrtcVersions    []string `toml:"webrtc_versions"`
	DataSaving        string   `toml:"data_saving"`
	ForceTCP          bool     `toml:"force_tcp"`

	Proxy  Proxy  `toml:"proxy"`
	Tuning Tuning `toml:"tuning"`
}

// Proxy is an optional SOCKS5 proxy for the call transport. A blank host
// disables it.
type Proxy struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Tuning mirrors the server-pushed capability toggles with their
// historical keys and defaults.
type Tuning struct {
	UseSystemAEC      bool `toml:"use_system_aec"`
	UseSystemNS       bool `toml:"use_system_ns"`
	EnableStunMarking bool `toml:"voip_enable_stun_marking"`
	EnableH265Encoder bool `toml:"enable_h265_encoder"`
	EnableH265Decoder bool `toml:"enable_h265_decoder"`
	EnableH264Encoder bool `toml:"enable_h264_encoder"`
	EnableH264Decoder bool `toml:"enable_h264_decoder"`
}

func DefaultService() Service {
	return Service{
		App:              "callcored",
		AdminAddr:        ":7200",
		LogDir:           "local/voip-logs",
		PacketTimeoutMS:  10_000,
		ConnectTimeoutMS: 30_000,
		MinLayer:         65,
		MaxLayer:         92,
		WebrtcVersions:   []string{"5.0.0"},
		DataSaving:       "never",
		Tuning: Tuning{
			UseSystemAEC:      true,
			UseSystemNS:       true,
			EnableStunMarking: false,
			EnableH265Encoder: true,
			EnableH265Decoder: true,
			EnableH264Encoder: true,
			EnableH264Decoder: true,
		},
	}
}

// LoadService reads a service configuration file, layering it over the
// defaults, and validates the result.
func LoadService(path string) (Service, error) {
	cfg := DefaultService()
	if err := loadToml(path, &cfg); err != nil {
		return Service{}, err
	}
	if err := ValidateService(cfg); err != nil {
		return Service{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateService(cfg Service) error {
	if strings.TrimSpace(cfg.App) == "" {
		return fmt.Errorf("config missing app name")
	}
	if strings.TrimSpace(cfg.AdminAddr) == "" {
		return fmt.Errorf("config missing admin_addr")
	}
	if cfg.PacketTimeoutMS <= 0 {
		return fmt.Errorf("packet_timeout_ms must be positive")
	}
	if cfg.ConnectTimeoutMS <= 0 {
		return fmt.Errorf("connect_timeout_ms must be positive")
	}
	if cfg.MinLayer <= 0 || cfg.MaxLayer < cfg.MinLayer {
		return fmt.Errorf("invalid protocol layer bounds %d..%d", cfg.MinLayer, cfg.MaxLayer)
	}
	for i, v := range cfg.WebrtcVersions {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("webrtc_versions[%d] is blank", i)
		}
	}
	switch cfg.DataSaving {
	case "", "never", "mobile", "roaming", "always":
	default:
		return fmt.Errorf("unknown data_saving mode %q", cfg.DataSaving)
	}
	if cfg.Proxy.Host != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return fmt.Errorf("proxy port %d out of range", cfg.Proxy.Port)
	}
	return nil
}

func (s Service) PacketTimeout() time.Duration {
	return time.Duration(s.PacketTimeoutMS) * time.Millisecond
}

func (s Service) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutMS) * time.Millisecond
}

package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dialstack/callcore/internal/config"
)

// overrideFile mirrors the service config keys. Only keys present in the
// file are applied, so a partial override can flip a single switch
// without restating the rest of the configuration.
type overrideFile struct {
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
}

func applyOverrides(cfg *config.Service, path string) error {
	var raw overrideFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config override: %w", err)
	}

	if meta.IsDefined("app") {
		if app := strings.TrimSpace(raw.App); app != "" {
			cfg.App = app
		}
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("admin_token") {
		cfg.AdminToken = raw.AdminToken
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = raw.CorsOrigins
	}
	if meta.IsDefined("signaling_url") {
		cfg.SignalingURL = strings.TrimSpace(raw.SignalingURL)
	}
	if meta.IsDefined("servers_file") {
		cfg.ServersFile = strings.TrimSpace(raw.ServersFile)
	}
	if meta.IsDefined("log_dir") {
		cfg.LogDir = strings.TrimSpace(raw.LogDir)
	}
	if meta.IsDefined("persistent_state_file") {
		cfg.PersistentStateFile = strings.TrimSpace(raw.PersistentStateFile)
	}
	if meta.IsDefined("packet_timeout_ms") {
		cfg.PacketTimeoutMS = raw.PacketTimeoutMS
	}
	if meta.IsDefined("connect_timeout_ms") {
		cfg.ConnectTimeoutMS = raw.ConnectTimeoutMS
	}
	if meta.IsDefined("min_layer") {
		cfg.MinLayer = raw.MinLayer
	}
	if meta.IsDefined("max_layer") {
		cfg.MaxLayer = raw.MaxLayer
	}
	if meta.IsDefined("force_direct_legacy") {
		cfg.ForceDirectLegacy = raw.ForceDirectLegacy
	}
	if meta.IsDefined("webrtc_versions") {
		cfg.WebrtcVersions = normalizeVersions(raw.WebrtcVersions)
	}
	if meta.IsDefined("data_saving") {
		cfg.DataSaving = strings.TrimSpace(raw.DataSaving)
	}
	if meta.IsDefined("force_tcp") {
		cfg.ForceTCP = raw.ForceTCP
	}

	return nil
}

func normalizeVersions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

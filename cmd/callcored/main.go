package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dialstack/callcore/internal/admin"
	"github.com/dialstack/callcore/internal/callsetup"
	"github.com/dialstack/callcore/internal/config"
	"github.com/dialstack/callcore/internal/engine"
	"github.com/dialstack/callcore/internal/logging"
	"github.com/dialstack/callcore/internal/observability"
	"github.com/dialstack/callcore/internal/policy"
	"github.com/dialstack/callcore/internal/relay"
	"github.com/dialstack/callcore/internal/signaling"
)

func main() {
	configPath := flag.String("config", "", "service config file (defaults used when empty)")
	overridePath := flag.String("override", "", "partial config override file, applied over -config")
	adminAddr := flag.String("addr", "", "admin listen address, overrides config")
	flag.Parse()

	if err := run(*configPath, *overridePath, *adminAddr); err != nil {
		fmt.Fprintf(os.Stderr, "callcored: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, overridePath, adminAddr string) error {
	logging.ConfigureRuntime()

	cfg := config.DefaultService()
	if configPath != "" {
		loaded, err := config.LoadService(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if overridePath != "" {
		if err := applyOverrides(&cfg, overridePath); err != nil {
			return err
		}
	}
	if adminAddr != "" {
		cfg.AdminAddr = adminAddr
	}
	if err := config.ValidateService(cfg); err != nil {
		return err
	}

	logger := observability.InitLogger(cfg.App)

	setup, err := callsetup.NewService(cfg, policy.PlatformFloor{}, logger)
	if err != nil {
		return err
	}

	var servers []relay.Server
	if cfg.ServersFile != "" {
		servers, err = config.LoadServers(cfg.ServersFile)
		if err != nil {
			return err
		}
		logger.Info().Int("count", len(servers)).Msg("loaded relay servers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One live engine at a time; a new call tears down its predecessor.
	var (
		activeMu sync.Mutex
		active   engine.Instance
	)
	swapActive := func(next engine.Instance) {
		activeMu.Lock()
		prev := active
		active = next
		activeMu.Unlock()
		if prev != nil {
			prev.PerformDestroy()
		}
	}
	defer swapActive(nil)

	if cfg.SignalingURL != "" {
		sigCfg := signaling.DefaultConfig()
		sigCfg.URL = cfg.SignalingURL
		client := signaling.NewClient(sigCfg, logger, func(ready signaling.ReadyState) {
			inst, err := setup.SetupCall(ready)
			if err != nil {
				logger.Error().Err(err).Str("call_id", ready.CallID).Msg("call setup failed")
				return
			}
			swapActive(inst)
			logger.Info().
				Str("call_id", ready.CallID).
				Str("engine", inst.LibraryName()).
				Str("version", inst.LibraryVersion()).
				Msg("call engine connected")
		})
		setup.AttachSignaling(client)
		go func() {
			if err := client.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("signaling client stopped")
			}
		}()
		defer client.Close()
	}

	logger.Info().Str("addr", cfg.AdminAddr).Msg("admin surface listening")
	if err := admin.New(cfg, setup, servers).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command amibridge keeps a session to the Asterisk Manager Interface,
// forwards events to Redis and serves probes, metrics and an action API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/amibridge/internal/config"
	"github.com/ManuGH/amibridge/internal/daemon"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/telemetry"
	"github.com/ManuGH/amibridge/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	log.Configure(log.Config{
		Level:   "info",
		Service: "amibridge",
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	// Re-configure logger with loaded configuration
	log.Configure(log.Config{
		Level:   cfg.Logging.Level,
		Service: "amibridge",
		Version: cfg.Version,
	})
	logger = log.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", path).
		Msg("configuration loaded")
	logger.Debug().
		Object("config", cfg).
		Msg("effective configuration")

	tcfg := cfg.ToTelemetryConfig()
	tp, err := telemetry.NewProvider(ctx, tcfg)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "tracing.init_failed").Msg("failed to initialise tracing")
	}
	if tcfg.Enabled() {
		logger.Info().
			Str("exporter", tcfg.Exporter).
			Str("endpoint", config.MaskURL(tcfg.Endpoint)).
			Float64("sampling_rate", tcfg.SamplingRate).
			Msg("tracing enabled")
	}

	app, _, err := daemon.Bootstrap(cfg, log.Base())
	if err != nil {
		logger.Fatal().Err(err).Str("event", "bootstrap.failed").Msg("failed to wire daemon")
	}

	logger.Info().
		Str("ami", cfg.ToClientConfig(nil).Address()).
		Str("listen", cfg.Server.ListenAddr).
		Msg("amibridge starting")

	runErr := app.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := tp.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("tracing shutdown failed")
	}
	cancel()

	if runErr != nil {
		logger.Error().Err(runErr).Str("event", "daemon.failed").Msg("daemon stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("amibridge stopped")
}

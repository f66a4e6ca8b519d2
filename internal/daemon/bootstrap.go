// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/api"
	"github.com/ManuGH/amibridge/internal/config"
	"github.com/ManuGH/amibridge/internal/health"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/sink"
)

const redisCheckTimeout = 2 * time.Second

// Bootstrap wires the client, optional Redis sink, health checks and HTTP
// API from cfg.
func Bootstrap(cfg config.AppConfig, logger zerolog.Logger) (*App, *ami.Client, error) {
	clientLogger := logger.With().Str(log.FieldComponent, "ami").Logger()
	client := ami.New(cfg.ToClientConfig(&clientLogger))

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewAMIChecker(client))

	var workers []Worker
	var publisher *sink.RedisPublisher
	if cfg.Redis.Addr != "" {
		publisher = sink.NewRedisPublisher(sink.RedisConfig{
			Addr:          cfg.Redis.Addr,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
			QueueSize:     cfg.Redis.QueueSize,
		}, logger)

		if _, err := client.RegisterListener("*", publisher.Listener()); err != nil {
			return nil, nil, fmt.Errorf("register redis sink: %w", err)
		}
		// redis outages degrade readiness but never fail it
		hm.RegisterChecker(health.NewFuncChecker("redis", func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, redisCheckTimeout)
			defer cancel()
			if err := publisher.HealthCheck(ctx); err != nil {
				return health.Degraded("redis unavailable: %v", err)
			}
			return nil
		}))
		workers = append(workers, publisher)

		logger.Info().
			Str("addr", cfg.Redis.Addr).
			Str("prefix", cfg.Redis.ChannelPrefix).
			Msg("redis event sink enabled")
	}

	tracingService := ""
	if cfg.Tracing.Exporter != "" && cfg.Tracing.Exporter != "noop" {
		tracingService = "amibridge-http"
	}
	server := api.New(api.Config{
		Version:           cfg.Version,
		RequestsPerMinute: cfg.Server.RequestsPerMin,
		TracingService:    tracingService,
	}, client, hm)

	mgr, err := NewManager(Deps{
		Logger:     logger,
		Server:     cfg.Server,
		APIHandler: server.Handler(),
	})
	if err != nil {
		return nil, nil, err
	}
	if publisher != nil {
		mgr.RegisterShutdownHook("redis", func(context.Context) error {
			return publisher.Close()
		})
	}

	sup := NewSupervisor(client, cfg.Reconnect.InitialBackoff, cfg.Reconnect.MaxBackoff, logger)
	return NewApp(logger, mgr, sup, workers...), client, nil
}

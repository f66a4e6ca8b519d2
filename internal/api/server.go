// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the bridge over HTTP: probes, metrics, session
// status and ad-hoc action submission.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/api/middleware"
	"github.com/ManuGH/amibridge/internal/health"
)

// Client is the part of *ami.Client the API drives.
type Client interface {
	Send(ctx context.Context, name string, fields map[string]string, actionID string, opts ...ami.SubmitOption) (*ami.Result, error)
	State() ami.State
	Banner() string
	Stats() ami.Stats
}

// Config configures the HTTP surface.
type Config struct {
	Version           string
	RequestsPerMinute int
	// TracingService names the HTTP tracer; empty disables request spans.
	TracingService string
	// MaxBodyBytes bounds POST bodies. Zero uses 1 MiB.
	MaxBodyBytes int64
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	cfg    Config
	client Client
	health *health.Manager
}

// New wires a server. hm may be nil when no checks are registered.
func New(cfg Config, client Client, hm *health.Manager) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if hm == nil {
		hm = health.NewManager(cfg.Version)
	}
	return &Server{cfg: cfg, client: client, health: hm}
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	// probes and scraping stay outside the rate limit
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{RequestLimit: s.cfg.RequestsPerMinute}))
		r.Get("/status", s.handleStatus)
		r.Post("/actions", s.handleAction)
	})

	return r
}

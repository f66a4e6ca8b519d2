// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Worker is a background loop owned by the App, such as the event sink.
type Worker interface {
	Run(ctx context.Context) error
}

// App owns the long-lived runtime: the session supervisor, the HTTP
// manager and any background workers.
type App struct {
	logger     zerolog.Logger
	manager    Manager
	supervisor *Supervisor
	workers    []Worker
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, supervisor *Supervisor, workers ...Worker) *App {
	return &App{
		logger:     logger,
		manager:    manager,
		supervisor: supervisor,
		workers:    workers,
	}
}

// Manager exposes the HTTP manager, e.g. for its bound address.
func (a *App) Manager() Manager {
	return a.manager
}

// Run starts all owned subsystems and blocks until ctx is cancelled or a
// fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}
	if a.supervisor == nil {
		return ErrMissingSession
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, w := range a.workers {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	g.Go(func() error {
		return a.supervisor.Run(ctx)
	})

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/metrics"
)

const disconnectTimeout = 2 * time.Second

// Session is the part of *ami.Client the supervisor drives.
type Session interface {
	Connect(ctx context.Context, opts ...ami.ConnectOption) error
	Disconnect(ctx context.Context) error
	Done() <-chan struct{}
	Err() error
}

// Supervisor keeps one AMI session up. The client never reconnects on its
// own; this loop is the reconnect policy.
type Supervisor struct {
	session Session
	initial time.Duration
	max     time.Duration
	logger  zerolog.Logger

	// sleep is replaced in tests
	sleep func(ctx context.Context, d time.Duration) bool
}

// NewSupervisor creates a supervisor with exponential backoff between
// initial and max.
func NewSupervisor(session Session, initial, max time.Duration, logger zerolog.Logger) *Supervisor {
	if initial <= 0 {
		initial = time.Second
	}
	if max < initial {
		max = initial
	}
	return &Supervisor{
		session: session,
		initial: initial,
		max:     max,
		logger:  logger.With().Str(log.FieldComponent, "supervisor").Logger(),
		sleep:   sleepCtx,
	}
}

// Run connects, waits for the session to end and reconnects until ctx is
// cancelled. The backoff resets after every session that got established.
func (s *Supervisor) Run(ctx context.Context) error {
	backoff := s.initial
	for attempt := 1; ; attempt++ {
		if ctx.Err() != nil {
			return nil
		}

		err := s.session.Connect(ctx)
		if err == nil {
			metrics.IncReconnect(true)
			backoff = s.initial
			attempt = 0

			select {
			case <-ctx.Done():
				dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
				if err := s.session.Disconnect(dctx); err != nil {
					s.logger.Warn().Err(err).Msg("logoff on shutdown failed")
				}
				cancel()
				return nil
			case <-s.session.Done():
				s.logger.Warn().
					Err(s.session.Err()).
					Str(log.FieldEvent, "ami.session_lost").
					Dur("retry_in", backoff).
					Msg("AMI session ended, reconnecting")
			}
		} else {
			if ctx.Err() != nil {
				return nil
			}
			metrics.IncReconnect(false)
			ev := s.logger.Warn()
			if errors.Is(err, ami.ErrAuth) {
				// auth failures retry at max backoff
				ev = s.logger.Error()
				backoff = s.max
			}
			ev.Err(err).
				Int("attempt", attempt).
				Dur("retry_in", backoff).
				Msg("AMI connect failed")
		}

		if !s.sleep(ctx, backoff) {
			return nil
		}
		backoff *= 2
		if backoff > s.max {
			backoff = s.max
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/amibridge/internal/ami"
)

type step int

const (
	stepFail step = iota
	stepAuthFail
	stepDrop // connect succeeds, session ends at once
	stepHold // connect succeeds, session stays up
)

type fakeSession struct {
	mu          sync.Mutex
	script      []step
	connects    int
	disconnects int
	done        chan struct{}
	held        chan struct{}
}

func newFakeSession(script ...step) *fakeSession {
	return &fakeSession{script: script, held: make(chan struct{})}
}

func (f *fakeSession) Connect(context.Context, ...ami.ConnectOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := stepFail
	if f.connects < len(f.script) {
		s = f.script[f.connects]
	}
	f.connects++

	switch s {
	case stepAuthFail:
		return &ami.Error{Sentinel: ami.ErrAuth, Op: "login"}
	case stepDrop:
		f.done = make(chan struct{})
		close(f.done)
		return nil
	case stepHold:
		f.done = make(chan struct{})
		close(f.held)
		return nil
	default:
		return &ami.Error{Sentinel: ami.ErrConnection, Op: "dial", Err: errors.New("connection refused")}
	}
}

func (f *fakeSession) Disconnect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeSession) Done() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

func (f *fakeSession) Err() error { return errors.New("EOF") }

func runSupervisor(t *testing.T, sup *Supervisor, held <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	select {
	case <-held:
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("session never established")
	}
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop")
	}
}

func TestSupervisor_BackoffGrowsCapsAndResets(t *testing.T) {
	fs := newFakeSession(stepFail, stepFail, stepFail, stepDrop, stepFail, stepHold)
	sup := NewSupervisor(fs, time.Second, 3*time.Second, zerolog.Nop())

	var sleeps []time.Duration
	sup.sleep = func(_ context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return true
	}

	runSupervisor(t, sup, fs.held)

	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 3 * time.Second, // growth, capped
		time.Second, 2 * time.Second, // reset after the established session
	}, sleeps)
	assert.Equal(t, 6, fs.connects)
	assert.Equal(t, 1, fs.disconnects, "shutdown logs off the live session")
}

func TestSupervisor_AuthFailureUsesMaxBackoff(t *testing.T) {
	fs := newFakeSession(stepAuthFail, stepAuthFail, stepHold)
	sup := NewSupervisor(fs, 100*time.Millisecond, 5*time.Second, zerolog.Nop())

	var sleeps []time.Duration
	sup.sleep = func(_ context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		return true
	}

	runSupervisor(t, sup, fs.held)
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, sleeps)
}

func TestSupervisor_StopsWhileBackingOff(t *testing.T) {
	fs := newFakeSession() // every attempt fails
	sup := NewSupervisor(fs, time.Hour, time.Hour, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sup.Run(ctx) }()

	require.Eventually(t, func() bool {
		fs.mu.Lock()
		defer fs.mu.Unlock()
		return fs.connects == 1
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("supervisor ignored cancellation during backoff")
	}
	assert.Equal(t, 0, fs.disconnects)
}

func TestNewSupervisor_Defaults(t *testing.T) {
	sup := NewSupervisor(newFakeSession(), 0, 0, zerolog.Nop())
	assert.Equal(t, time.Second, sup.initial)
	assert.Equal(t, time.Second, sup.max)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/amibridge/internal/ami"
)

type fakeSession struct {
	state  ami.State
	err    error
	banner string
}

func (f *fakeSession) State() ami.State { return f.state }
func (f *fakeSession) Err() error       { return f.err }
func (f *fakeSession) Banner() string   { return f.banner }

func TestAMIChecker(t *testing.T) {
	tests := []struct {
		name    string
		session *fakeSession
		status  Status
		message string
		errText string
	}{
		{
			name:    "connected",
			session: &fakeSession{state: ami.StateConnected, banner: "Asterisk Call Manager/5.0.1"},
			status:  StatusHealthy,
			message: "Asterisk Call Manager/5.0.1",
		},
		{
			name:    "authenticating",
			session: &fakeSession{state: ami.StateAuthenticating},
			status:  StatusUnhealthy,
			message: "authenticating",
		},
		{
			name:    "never connected",
			session: &fakeSession{state: ami.StateDisconnected},
			status:  StatusUnhealthy,
			message: "not connected",
		},
		{
			name:    "dropped",
			session: &fakeSession{state: ami.StateDisconnected, err: errors.New("connection reset by peer")},
			status:  StatusUnhealthy,
			message: "not connected",
			errText: "connection reset by peer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewAMIChecker(tt.session)
			assert.Equal(t, "ami", c.Name())

			res := c.Check(context.Background())
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, tt.errText, res.Error)
		})
	}
}

func TestFuncChecker(t *testing.T) {
	healthy := NewFuncChecker("redis", func(context.Context) error { return nil })
	assert.Equal(t, "redis", healthy.Name())
	assert.Equal(t, StatusHealthy, healthy.Check(context.Background()).Status)

	failing := NewFuncChecker("redis", func(context.Context) error { return errors.New("dial tcp: refused") })
	res := failing.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "dial tcp: refused", res.Error)

	degraded := NewFuncChecker("redis", func(context.Context) error { return Degraded("queue %d%% full", 90) })
	res = degraded.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "queue 90% full", res.Message)
}

func TestReadyFollowsSession(t *testing.T) {
	session := &fakeSession{state: ami.StateDisconnected}
	m := NewManager("v1.0.0")
	m.RegisterChecker(NewAMIChecker(session))

	w := httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	session.state = ami.StateConnected
	w = httptest.NewRecorder()
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// liveness stays 200 regardless
	session.state = ami.StateDisconnected
	w = httptest.NewRecorder()
	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

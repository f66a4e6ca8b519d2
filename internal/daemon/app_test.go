// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/ami/amitest"
	"github.com/ManuGH/amibridge/internal/config"
)

func testConfig(srv *amitest.Server) config.AppConfig {
	cfg := config.Default()
	cfg.Version = "test"
	cfg.AMI.Host = srv.Host()
	cfg.AMI.Port = srv.Port()
	cfg.AMI.Username = "admin"
	cfg.AMI.Secret = "secret"
	cfg.AMI.ReadTimeout = 50 * time.Millisecond
	cfg.AMI.ConnectTimeout = time.Second
	cfg.AMI.ResponseTimeout = time.Second
	cfg.Server.ListenAddr = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Reconnect.InitialBackoff = 20 * time.Millisecond
	cfg.Reconnect.MaxBackoff = 100 * time.Millisecond
	return cfg
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func httpClient() *http.Client {
	return &http.Client{
		Timeout:   2 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
}

func statusOf(t *testing.T, hc *http.Client, url string) int {
	t.Helper()
	resp, err := hc.Get(url)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

func startApp(t *testing.T, cfg config.AppConfig) (base string, client *ami.Client, stop func()) {
	t.Helper()
	app, client, err := Bootstrap(cfg, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Run(ctx) }()

	addr := app.Manager().Addr()
	require.NotEmpty(t, addr)

	return "http://" + addr, client, func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("app did not stop")
		}
	}
}

func TestApp_ServesAndReconnects(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := amitest.NewServer()
	defer srv.Close()

	base, client, stop := startApp(t, testConfig(srv))
	hc := httpClient()

	require.Eventually(t, func() bool {
		return statusOf(t, hc, base+"/readyz") == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	resp, err := hc.Post(base+"/api/v1/actions", "application/json", strings.NewReader(`{"action":"Ping","actionId":"app-1"}`))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Pong", body["ping"])

	// server-side drop: the supervisor brings the session back
	srv.DropConnections()
	require.Eventually(t, func() bool {
		return srv.Received("Login") >= 2 && client.State() == ami.StateConnected
	}, 3*time.Second, 20*time.Millisecond)

	stop()
	assert.Equal(t, ami.StateDisconnected, client.State())
	assert.GreaterOrEqual(t, srv.Received("Logoff"), 1)
}

func TestApp_NotReadyWithoutAsterisk(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := amitest.NewServer()
	cfg := testConfig(srv)
	srv.Close() // nothing listens on the AMI port any more

	base, _, stop := startApp(t, cfg)
	defer stop()
	hc := httpClient()

	assert.Equal(t, http.StatusOK, statusOf(t, hc, base+"/healthz"))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, hc, base+"/readyz"))

	resp, err := hc.Post(base+"/api/v1/actions", "application/json", strings.NewReader(`{"action":"Ping"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApp_ForwardsEventsToRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := amitest.NewServer()
	defer srv.Close()

	cfg := testConfig(srv)
	cfg.Redis.Addr = mr.Addr()

	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	ps := rc.Subscribe(context.Background(), cfg.Redis.ChannelPrefix+"peerstatus")
	defer ps.Close()
	_, err := ps.Receive(context.Background())
	require.NoError(t, err)

	base, _, stop := startApp(t, cfg)
	defer stop()
	hc := httpClient()

	require.Eventually(t, func() bool {
		return statusOf(t, hc, base+"/readyz") == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	srv.Broadcast(amitest.Msg("Event", "PeerStatus", "Peer", "SIP/101", "PeerStatus", "Registered"))

	select {
	case msg := <-ps.Channel():
		assert.Contains(t, msg.Payload, `"event":"PeerStatus"`)
		assert.Contains(t, msg.Payload, `"peer":"SIP/101"`)
	case <-time.After(3 * time.Second):
		t.Fatal("event never reached redis")
	}
}

func TestManager_ShutdownHooksLIFO(t *testing.T) {
	mgr, err := NewManager(Deps{
		Logger:     testLogger(),
		Server:     config.ServerConfig{ListenAddr: "127.0.0.1:0", ShutdownTimeout: time.Second},
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	var order []string
	mgr.RegisterShutdownHook("first", func(context.Context) error { order = append(order, "first"); return nil })
	mgr.RegisterShutdownHook("second", func(context.Context) error { order = append(order, "second"); return errors.New("boom") })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- mgr.Start(ctx) }()
	require.NotEmpty(t, mgr.Addr())
	cancel()

	err = <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hook second")
	assert.Equal(t, []string{"second", "first"}, order)

	assert.NoError(t, mgr.Shutdown(context.Background()), "second shutdown is a no-op")
}

func TestManager_Validation(t *testing.T) {
	_, err := NewManager(Deps{Logger: zerolog.Nop(), APIHandler: http.NotFoundHandler()})
	assert.ErrorIs(t, err, ErrMissingLogger)

	_, err = NewManager(Deps{Logger: testLogger()})
	assert.ErrorIs(t, err, ErrMissingAPIHandler)

	mgr, err := NewManager(Deps{Logger: testLogger(), APIHandler: http.NotFoundHandler()})
	require.NoError(t, err)
	assert.ErrorIs(t, mgr.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_ListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	mgr, err := NewManager(Deps{
		Logger:     testLogger(),
		Server:     config.ServerConfig{ListenAddr: busy.Addr().String()},
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)
	assert.Error(t, mgr.Start(context.Background()))
	assert.Empty(t, mgr.Addr())
}

func TestApp_RequiresParts(t *testing.T) {
	assert.ErrorIs(t, NewApp(testLogger(), nil, nil).Run(context.Background()), ErrMissingManager)
}

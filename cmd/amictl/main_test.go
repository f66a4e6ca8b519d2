// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/amibridge/internal/ami/amitest"
	"github.com/ManuGH/amibridge/internal/ami/wire"
)

func runCtl(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCtl(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "usage: amictl")

	code, _, stderr = runCtl(t, "-o", "xml", "Ping")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "unknown output format")

	code, _, stderr = runCtl(t, "Getvar", "Channel")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "not Key=Value")
}

func TestBuildAction_KeepsRepeatedKeys(t *testing.T) {
	a, err := buildAction("Originate", []string{"Channel=SIP/101", "Variable=A=1", "Variable=B=2"})
	require.NoError(t, err)

	encoded := string(wire.Encode(a))
	assert.Contains(t, encoded, "Variable: A=1\r\n")
	assert.Contains(t, encoded, "Variable: B=2\r\n")

	_, err = buildAction(" ", nil)
	assert.Error(t, err)
}

func TestRun_PingYAML(t *testing.T) {
	srv := amitest.NewServer()
	defer srv.Close()

	code, stdout, stderr := runCtl(t, "-server", srv.Addr(), "-user", "admin", "-secret", "secret", "-id", "ctl-1", "Ping")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "ping: Pong")
	assert.Contains(t, stdout, "actionid: ctl-1")
}

func TestRun_JSONWithFields(t *testing.T) {
	srv := amitest.NewServer()
	defer srv.Close()
	srv.Handle("Getvar", func(c *amitest.Conn, req *wire.Message) {
		_ = c.Reply(req, "Response", "Success", "Variable", req.Get("Variable"), "Value", "101")
	})

	code, stdout, stderr := runCtl(t, "-server", srv.Addr(), "-user", "admin", "-secret", "secret",
		"-o", "json", "Getvar", "Channel=SIP/101-0001", "Variable=CALLERID(num)")
	require.Equal(t, exitOK, code, stderr)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "Success", got["response"])
	assert.Equal(t, "CALLERID(num)", got["variable"])
	assert.Equal(t, "101", got["value"])
}

func TestRun_ErrorResponse(t *testing.T) {
	srv := amitest.NewServer()
	defer srv.Close()

	code, stdout, _ := runCtl(t, "-server", srv.Addr(), "-user", "admin", "-secret", "secret", "NoSuchAction")
	assert.Equal(t, exitRejected, code)
	assert.Contains(t, stdout, "response: Error")
}

func TestRun_AuthFailure(t *testing.T) {
	srv := amitest.NewServer()
	defer srv.Close()

	code, stdout, stderr := runCtl(t, "-server", srv.Addr(), "-user", "admin", "-secret", "wrong", "Ping")
	assert.Equal(t, exitFailed, code)
	assert.Empty(t, stdout)
	assert.NotEmpty(t, strings.TrimSpace(stderr))
}

func TestRun_PrintsEvents(t *testing.T) {
	srv := amitest.NewServer()
	defer srv.Close()
	srv.Handle("Ping", func(c *amitest.Conn, req *wire.Message) {
		_ = c.Reply(req, "Response", "Success", "Ping", "Pong")
		_ = c.Send(amitest.Msg("Event", "PeerStatus", "Peer", "SIP/101", "PeerStatus", "Reachable"))
	})

	code, stdout, stderr := runCtl(t, "-server", srv.Addr(), "-user", "admin", "-secret", "secret", "-events", "300ms", "Ping")
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "ping: Pong")
	assert.Contains(t, stdout, "event: PeerStatus")
	assert.Contains(t, stdout, "peer: SIP/101")
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "defaults", mutate: func(*AppConfig) {}},
		{name: "empty host", mutate: func(c *AppConfig) { c.AMI.Host = " " }, wantErr: "ami.host"},
		{name: "bad port", mutate: func(c *AppConfig) { c.AMI.Port = 0 }, wantErr: "ami.port"},
		{name: "zero read timeout", mutate: func(c *AppConfig) { c.AMI.ReadTimeout = 0 }, wantErr: "ami.readTimeout"},
		{name: "negative response timeout", mutate: func(c *AppConfig) { c.AMI.ResponseTimeout = -time.Second }, wantErr: "ami.responseTimeout"},
		{name: "negative rate", mutate: func(c *AppConfig) { c.AMI.RateLimit = -1 }, wantErr: "ami.rateLimit"},
		{name: "blank list terminator", mutate: func(c *AppConfig) { c.AMI.ListActions = map[string]string{"Foo": ""} }, wantErr: "ami.listActions"},
		{name: "bad listen addr", mutate: func(c *AppConfig) { c.Server.ListenAddr = "8080" }, wantErr: "server.listenAddr"},
		{name: "bad log level", mutate: func(c *AppConfig) { c.Logging.Level = "verbose" }, wantErr: "logging.level"},
		{name: "upper-case log level", mutate: func(c *AppConfig) { c.Logging.Level = "DEBUG" }},
		{name: "redis zero queue", mutate: func(c *AppConfig) { c.Redis.Addr = "localhost:6379"; c.Redis.QueueSize = 0 }, wantErr: "redis.queueSize"},
		{name: "backoff inverted", mutate: func(c *AppConfig) { c.Reconnect.MaxBackoff = 100 * time.Millisecond }, wantErr: "reconnect.maxBackoff"},
		{name: "unknown exporter", mutate: func(c *AppConfig) { c.Tracing.Exporter = "jaeger" }, wantErr: "tracing.exporter"},
		{name: "exporter without endpoint", mutate: func(c *AppConfig) { c.Tracing.Exporter = "grpc" }, wantErr: "tracing.endpoint"},
		{name: "sampling out of range", mutate: func(c *AppConfig) { c.Tracing.SamplingRate = 1.5 }, wantErr: "tracing.samplingRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToClientConfig(t *testing.T) {
	cfg := Default()
	cfg.AMI.Host = "pbx"
	cfg.AMI.Port = 5039
	cfg.AMI.RateLimit = 5
	cfg.AMI.EventMask = "off"

	client := cfg.ToClientConfig(nil)
	assert.Equal(t, "pbx:5039", client.Address())
	assert.InDelta(t, 5.0, float64(client.RateLimit), 0.0001)
	assert.Equal(t, "off", client.EventMask)
	assert.Equal(t, "PeerlistComplete", client.ListActions["sippeers"])
}

func TestToTelemetryConfig(t *testing.T) {
	cfg := Default()
	cfg.Version = "v9"
	tc := cfg.ToTelemetryConfig()
	assert.Equal(t, "amibridge", tc.ServiceName)
	assert.Equal(t, "v9", tc.ServiceVersion)
	assert.False(t, tc.Enabled())
}

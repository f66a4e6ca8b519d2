// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"strings"

	"github.com/ManuGH/amibridge/internal/validate"
)

var tracingExporters = []string{"noop", "grpc", "http"}

// Validate rejects configurations the daemon cannot run with.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("ami.host", cfg.AMI.Host)
	v.Port("ami.port", cfg.AMI.Port)
	v.NotEmpty("ami.username", cfg.AMI.Username)
	v.PositiveDuration("ami.connectTimeout", cfg.AMI.ConnectTimeout)
	v.PositiveDuration("ami.readTimeout", cfg.AMI.ReadTimeout)
	if cfg.AMI.ResponseTimeout != 0 {
		v.PositiveDuration("ami.responseTimeout", cfg.AMI.ResponseTimeout)
	}
	v.NonNegative("ami.rateLimit", cfg.AMI.RateLimit)
	for name, terminator := range cfg.AMI.ListActions {
		if strings.TrimSpace(name) == "" || strings.TrimSpace(terminator) == "" {
			v.AddError("ami.listActions", "action and terminator event must be non-empty", name)
		}
	}

	v.ListenAddr("server.listenAddr", cfg.Server.ListenAddr)
	v.NonNegative("server.requestsPerMinute", float64(cfg.Server.RequestsPerMin))
	v.PositiveDuration("server.shutdownTimeout", cfg.Server.ShutdownTimeout)

	v.OneOf("logging.level", cfg.Logging.Level, validate.LogLevels)

	if cfg.Redis.Addr != "" {
		v.NotEmpty("redis.channelPrefix", cfg.Redis.ChannelPrefix)
		if cfg.Redis.QueueSize <= 0 {
			v.AddError("redis.queueSize", "must be positive", cfg.Redis.QueueSize)
		}
	}

	v.PositiveDuration("reconnect.initialBackoff", cfg.Reconnect.InitialBackoff)
	v.PositiveDuration("reconnect.maxBackoff", cfg.Reconnect.MaxBackoff)
	if cfg.Reconnect.MaxBackoff < cfg.Reconnect.InitialBackoff {
		v.AddError("reconnect.maxBackoff", "must not be smaller than initialBackoff", cfg.Reconnect.MaxBackoff)
	}

	v.OneOf("tracing.exporter", cfg.Tracing.Exporter, tracingExporters)
	if !strings.EqualFold(cfg.Tracing.Exporter, "noop") && strings.TrimSpace(cfg.Tracing.Endpoint) == "" {
		v.AddError("tracing.endpoint", "required when an exporter is enabled", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.SamplingRate < 0 || cfg.Tracing.SamplingRate > 1 {
		v.AddError("tracing.samplingRate", "must be between 0 and 1", cfg.Tracing.SamplingRate)
	}

	return v.Err()
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	var ve validate.ValidationError
	return errors.As(err, &ve)
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/rs/zerolog"
)

const masked = "***"

// Env keys holding credentials; only the fact that they are set is logged.
var sensitiveEnvKeys = map[string]bool{
	EnvAMISecret:     true,
	EnvRedisPassword: true,
}

func isSensitiveKey(key string) bool {
	if sensitiveEnvKeys[key] {
		return true
	}
	lower := strings.ToLower(key)
	return strings.Contains(lower, "secret") || strings.Contains(lower, "password")
}

func maskValue(v string) string {
	if v == "" {
		return ""
	}
	return masked
}

// MarshalZerologObject logs the effective configuration with the AMI
// secret, the Redis password and any URL userinfo replaced by "***".
func (c AppConfig) MarshalZerologObject(e *zerolog.Event) {
	e.Str("version", c.Version)
	e.Dict("ami", zerolog.Dict().
		Str("host", c.AMI.Host).
		Int("port", c.AMI.Port).
		Str("username", c.AMI.Username).
		Str("secret", maskValue(c.AMI.Secret)).
		Dur("connect_timeout", c.AMI.ConnectTimeout).
		Dur("read_timeout", c.AMI.ReadTimeout).
		Dur("response_timeout", c.AMI.ResponseTimeout).
		Str("event_mask", c.AMI.EventMask).
		Float64("rate_limit", c.AMI.RateLimit).
		Int("list_actions", len(c.AMI.ListActions)))
	e.Dict("server", zerolog.Dict().
		Str("listen_addr", c.Server.ListenAddr).
		Int("requests_per_minute", c.Server.RequestsPerMin).
		Dur("shutdown_timeout", c.Server.ShutdownTimeout))
	e.Str("log_level", c.Logging.Level)
	e.Dict("redis", zerolog.Dict().
		Str("addr", MaskURL(c.Redis.Addr)).
		Str("password", maskValue(c.Redis.Password)).
		Int("db", c.Redis.DB).
		Str("channel_prefix", c.Redis.ChannelPrefix).
		Int("queue_size", c.Redis.QueueSize))
	e.Dict("reconnect", zerolog.Dict().
		Dur("initial_backoff", c.Reconnect.InitialBackoff).
		Dur("max_backoff", c.Reconnect.MaxBackoff))
	e.Dict("tracing", zerolog.Dict().
		Str("exporter", c.Tracing.Exporter).
		Str("endpoint", MaskURL(c.Tracing.Endpoint)).
		Float64("sampling_rate", c.Tracing.SamplingRate))
}

// MaskURL hides the userinfo of an endpoint, with or without a scheme:
// "redis://:pw@cache:6379/0" becomes "redis://***@cache:6379/0".
func MaskURL(raw string) string {
	prefix, rest := "", raw
	if scheme, after, ok := strings.Cut(raw, "://"); ok {
		prefix, rest = scheme+"://", after
	}
	authority := rest
	if i := strings.IndexAny(rest, "/?#"); i >= 0 {
		authority = rest[:i]
	}
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return raw
	}
	return prefix + masked + rest[at:]
}

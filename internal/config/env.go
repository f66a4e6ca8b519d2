// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/amibridge/internal/log"
)

// Environment keys.
const (
	EnvAMIHost            = "AMIBRIDGE_AMI_HOST"
	EnvAMIPort            = "AMIBRIDGE_AMI_PORT"
	EnvAMIUsername        = "AMIBRIDGE_AMI_USERNAME"
	EnvAMISecret          = "AMIBRIDGE_AMI_SECRET"
	EnvAMIConnectTimeout  = "AMIBRIDGE_AMI_CONNECT_TIMEOUT"
	EnvAMIReadTimeout     = "AMIBRIDGE_AMI_READ_TIMEOUT"
	EnvAMIResponseTimeout = "AMIBRIDGE_AMI_RESPONSE_TIMEOUT"
	EnvAMIEventMask       = "AMIBRIDGE_AMI_EVENT_MASK"
	EnvAMIRateLimit       = "AMIBRIDGE_AMI_RATE_LIMIT"
	EnvListenAddr         = "AMIBRIDGE_LISTEN_ADDR"
	EnvLogLevel           = "AMIBRIDGE_LOG_LEVEL"
	EnvRedisAddr          = "AMIBRIDGE_REDIS_ADDR"
	EnvRedisPassword      = "AMIBRIDGE_REDIS_PASSWORD"
	EnvRedisChannelPrefix = "AMIBRIDGE_REDIS_CHANNEL_PREFIX"
	EnvReconnectBackoff   = "AMIBRIDGE_RECONNECT_BACKOFF"
	EnvReconnectMax       = "AMIBRIDGE_RECONNECT_MAX_BACKOFF"
	EnvTracingExporter    = "AMIBRIDGE_TRACING_EXPORTER"
	EnvTracingEndpoint    = "AMIBRIDGE_TRACING_ENDPOINT"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		switch {
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		case isSensitiveKey(key):
			// For sensitive vars, just log that it was set
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It validates the input and falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Int("value", i).Str("source", "environment").Msg("using environment variable")
	return i
}

// ParseDuration reads a duration in Go syntax ("5s"). Invalid values fall
// back to the default with a warning.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Float64("value", f).Str("source", "environment").Msg("using environment variable")
	return f
}

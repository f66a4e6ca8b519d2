// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/amibridge/internal/ami"
)

const (
	DefaultListenAddr      = ":8080"
	DefaultRequestsPerMin  = 120
	DefaultShutdownTimeout = 10 * time.Second
	DefaultChannelPrefix   = "ami:events:"
	DefaultQueueSize       = 1024
	DefaultInitialBackoff  = time.Second
	DefaultMaxBackoff      = 30 * time.Second
)

// Default returns the built-in configuration.
func Default() AppConfig {
	return AppConfig{
		AMI: AMIConfig{
			Host:           ami.DefaultHost,
			Port:           ami.DefaultPort,
			Username:       ami.DefaultUsername,
			Secret:         ami.DefaultSecret,
			ConnectTimeout: ami.DefaultConnectTimeout,
			ReadTimeout:    ami.DefaultReadTimeout,
		},
		Server: ServerConfig{
			ListenAddr:      DefaultListenAddr,
			RequestsPerMin:  DefaultRequestsPerMin,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Logging: LoggingConfig{Level: "info"},
		Redis: RedisConfig{
			ChannelPrefix: DefaultChannelPrefix,
			QueueSize:     DefaultQueueSize,
		},
		Reconnect: ReconnectConfig{
			InitialBackoff: DefaultInitialBackoff,
			MaxBackoff:     DefaultMaxBackoff,
		},
		Tracing: TracingConfig{
			Exporter:     "noop",
			SamplingRate: 1.0,
		},
	}
}

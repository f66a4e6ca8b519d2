// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/telemetry"
)

// ToClientConfig maps the ami section onto the client configuration.
func (c AppConfig) ToClientConfig(logger *zerolog.Logger) ami.Config {
	return ami.Config{
		Host:            c.AMI.Host,
		Port:            c.AMI.Port,
		Username:        c.AMI.Username,
		Secret:          c.AMI.Secret,
		ConnectTimeout:  c.AMI.ConnectTimeout,
		ReadTimeout:     c.AMI.ReadTimeout,
		ResponseTimeout: c.AMI.ResponseTimeout,
		EventMask:       c.AMI.EventMask,
		ListActions:     c.listActions(),
		RateLimit:       rate.Limit(c.AMI.RateLimit),
		Logger:          logger,
	}
}

// listActions merges configured terminators over the built-in table.
func (c AppConfig) listActions() map[string]string {
	out := ami.DefaultListActions()
	for name, terminator := range c.AMI.ListActions {
		out[name] = terminator
	}
	return out
}

// ToTelemetryConfig maps the tracing section.
func (c AppConfig) ToTelemetryConfig() telemetry.Config {
	return telemetry.Config{
		ServiceName:    "amibridge",
		ServiceVersion: c.Version,
		Exporter:       c.Tracing.Exporter,
		Endpoint:       c.Tracing.Endpoint,
		SamplingRate:   c.Tracing.SamplingRate,
	}
}

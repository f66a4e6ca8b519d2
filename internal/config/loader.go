// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> parse file (strict) -> apply env -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()
	cfg.Version = l.version

	if l.configPath != "" {
		if err := l.mergeFile(&cfg, l.configPath); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// mergeFile decodes the YAML file over cfg. Keys absent from the file keep
// their current value.
func (l *Loader) mergeFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator supplied
	if err != nil {
		return err
	}
	data = []byte(os.ExpandEnv(string(data)))

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.AMI.Host = l.envString(EnvAMIHost, cfg.AMI.Host)
	cfg.AMI.Port = l.envInt(EnvAMIPort, cfg.AMI.Port)
	cfg.AMI.Username = l.envString(EnvAMIUsername, cfg.AMI.Username)
	cfg.AMI.Secret = l.envString(EnvAMISecret, cfg.AMI.Secret)
	cfg.AMI.ConnectTimeout = l.envDuration(EnvAMIConnectTimeout, cfg.AMI.ConnectTimeout)
	cfg.AMI.ReadTimeout = l.envDuration(EnvAMIReadTimeout, cfg.AMI.ReadTimeout)
	cfg.AMI.ResponseTimeout = l.envDuration(EnvAMIResponseTimeout, cfg.AMI.ResponseTimeout)
	cfg.AMI.EventMask = l.envString(EnvAMIEventMask, cfg.AMI.EventMask)
	cfg.AMI.RateLimit = l.envFloat(EnvAMIRateLimit, cfg.AMI.RateLimit)

	cfg.Server.ListenAddr = l.envString(EnvListenAddr, cfg.Server.ListenAddr)
	cfg.Logging.Level = l.envString(EnvLogLevel, cfg.Logging.Level)

	cfg.Redis.Addr = l.envString(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Redis.Password = l.envString(EnvRedisPassword, cfg.Redis.Password)
	cfg.Redis.ChannelPrefix = l.envString(EnvRedisChannelPrefix, cfg.Redis.ChannelPrefix)

	cfg.Reconnect.InitialBackoff = l.envDuration(EnvReconnectBackoff, cfg.Reconnect.InitialBackoff)
	cfg.Reconnect.MaxBackoff = l.envDuration(EnvReconnectMax, cfg.Reconnect.MaxBackoff)

	cfg.Tracing.Exporter = l.envString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
}

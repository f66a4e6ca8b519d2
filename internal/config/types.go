// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the effective daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	AMI       AMIConfig       `yaml:"ami"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Redis     RedisConfig     `yaml:"redis"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// AMIConfig is the manager connection. Durations accept Go syntax ("500ms").
type AMIConfig struct {
	Host            string            `yaml:"host"`
	Port            int               `yaml:"port"`
	Username        string            `yaml:"username"`
	Secret          string            `yaml:"secret"`
	ConnectTimeout  time.Duration     `yaml:"connectTimeout"`
	ReadTimeout     time.Duration     `yaml:"readTimeout"`
	ResponseTimeout time.Duration     `yaml:"responseTimeout"`
	EventMask       string            `yaml:"eventMask"`
	RateLimit       float64           `yaml:"rateLimit"` // actions per second, 0 = unlimited
	ListActions     map[string]string `yaml:"listActions"`
}

// ServerConfig is the HTTP API listener.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	RequestsPerMin  int           `yaml:"requestsPerMinute"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// RedisConfig enables the event sink when Addr is set.
type RedisConfig struct {
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channelPrefix"`
	QueueSize     int    `yaml:"queueSize"`
}

// ReconnectConfig bounds the session supervisor's exponential backoff.
type ReconnectConfig struct {
	InitialBackoff time.Duration `yaml:"initialBackoff"`
	MaxBackoff     time.Duration `yaml:"maxBackoff"`
}

type TracingConfig struct {
	Exporter     string  `yaml:"exporter"` // noop|grpc|http
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
}

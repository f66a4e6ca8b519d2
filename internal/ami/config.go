// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config configures a Client. Zero values fall back to the defaults below.
type Config struct {
	Host     string
	Port     int
	Username string
	Secret   string

	// ConnectTimeout bounds TCP dial plus the Login exchange.
	ConnectTimeout time.Duration
	// ReadTimeout is the socket poll interval of the read loop. A poll
	// without data is not an error.
	ReadTimeout time.Duration
	// ResponseTimeout is the idle time a pending action may go without a
	// correlated message before it fails with ErrTimeout. Defaults to
	// ReadTimeout.
	ResponseTimeout time.Duration
	WriteTimeout    time.Duration
	LogoffTimeout   time.Duration

	// EventMask is sent as the Events field of Login ("on", "off",
	// "system,call", ...). Empty leaves the server default.
	EventMask string

	// ListActions maps an action name to the event that terminates its
	// event list, for servers that do not send "EventList: start".
	// Keys are matched case-insensitively. Nil uses DefaultListActions.
	ListActions map[string]string

	// RateLimit caps outbound actions per second; zero disables it.
	RateLimit      rate.Limit
	RateLimitBurst int

	// DiagnosticsBuffer is the capacity of the Diagnostics channel.
	DiagnosticsBuffer int

	Logger *zerolog.Logger
}

const (
	DefaultHost              = "localhost"
	DefaultPort              = 5038
	DefaultUsername          = "phpagi"
	DefaultSecret            = "phpagi"
	DefaultConnectTimeout    = 10 * time.Second
	DefaultReadTimeout       = 500 * time.Millisecond
	defaultWriteTimeout      = 5 * time.Second
	defaultLogoffTimeout     = time.Second
	defaultDiagnosticsBuffer = 64
	defaultRateLimitBurst    = 20
)

// DefaultListActions lists actions whose responses are followed by an
// event list on Asterisk versions that predate the EventList marker.
func DefaultListActions() map[string]string {
	return map[string]string{
		"status":            "StatusComplete",
		"queuestatus":       "QueueStatusComplete",
		"queuesummary":      "QueueSummaryComplete",
		"sippeers":          "PeerlistComplete",
		"iaxpeers":          "PeerlistComplete",
		"iaxpeerlist":       "PeerlistComplete",
		"parkedcalls":       "ParkedCallsComplete",
		"zapshowchannels":   "ZapShowChannelsComplete",
		"dahdishowchannels": "DAHDIShowChannelsComplete",
		"coreshowchannels":  "CoreShowChannelsComplete",
		"agents":            "AgentsComplete",
	}
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return normalizeConfig(Config{})
}

func normalizeConfig(cfg Config) Config {
	if strings.TrimSpace(cfg.Host) == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port <= 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Username == "" {
		cfg.Username = DefaultUsername
	}
	if cfg.Secret == "" {
		cfg.Secret = DefaultSecret
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.ResponseTimeout <= 0 {
		cfg.ResponseTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.LogoffTimeout <= 0 {
		cfg.LogoffTimeout = defaultLogoffTimeout
	}
	if cfg.DiagnosticsBuffer <= 0 {
		cfg.DiagnosticsBuffer = defaultDiagnosticsBuffer
	}
	if cfg.RateLimit > 0 && cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = defaultRateLimitBurst
	}

	lists := cfg.ListActions
	if lists == nil {
		lists = DefaultListActions()
	}
	cfg.ListActions = make(map[string]string, len(lists))
	for name, terminator := range lists {
		cfg.ListActions[strings.ToLower(name)] = terminator
	}
	return cfg
}

// Address returns host:port for dialing.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConnectOption overrides connection settings for one Connect call. The
// override is kept for subsequent connects.
type ConnectOption func(*Config)

// WithServer sets the host and, when present, the port from "host[:port]".
func WithServer(server string) ConnectOption {
	return func(c *Config) {
		host, port := parseServer(server)
		if host != "" {
			c.Host = host
		}
		if port > 0 {
			c.Port = port
		}
	}
}

// WithCredentials sets the Login username and secret.
func WithCredentials(username, secret string) ConnectOption {
	return func(c *Config) {
		c.Username = username
		c.Secret = secret
	}
}

func parseServer(server string) (string, int) {
	server = strings.TrimSpace(server)
	if server == "" {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(server)
	if err != nil {
		return strings.Trim(server, "[]"), 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

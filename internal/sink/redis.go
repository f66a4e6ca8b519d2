// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package sink forwards AMI events to external systems.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/ami/wire"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/metrics"
)

const (
	sinkName       = "redis"
	allChannel     = "all"
	publishTimeout = 2 * time.Second
)

// Event is the JSON document published for every AMI event.
type Event struct {
	Event      string            `json:"event"`
	Fields     map[string]string `json:"fields"`
	ReceivedAt time.Time         `json:"received_at"`
}

// EventFromMessage flattens a decoded event.
func EventFromMessage(msg *wire.Message) Event {
	return Event{
		Event:      msg.EventType(),
		Fields:     msg.Map(),
		ReceivedAt: time.Now().UTC(),
	}
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr          string // Redis server address (host:port)
	Password      string // Redis password (optional)
	DB            int    // Redis database number
	ChannelPrefix string
	QueueSize     int
}

// Stats is a snapshot of publisher counters.
type Stats struct {
	Published int64
	Failed    int64
	Dropped   int64
	Queued    int
}

// RedisPublisher publishes events on Redis pub/sub channels. Enqueue never
// blocks; a single worker started by Run drains the queue.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
	prefix string
	queue  chan Event

	stats struct {
		published atomic.Int64
		failed    atomic.Int64
		dropped   atomic.Int64
	}

	closeOnce sync.Once
}

// NewRedisPublisher creates a publisher. It does not dial; the first
// publish or HealthCheck does.
func NewRedisPublisher(cfg RedisConfig, logger zerolog.Logger) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	return newRedisPublisher(client, cfg, logger)
}

func newRedisPublisher(client *redis.Client, cfg RedisConfig, logger zerolog.Logger) *RedisPublisher {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1024
	}
	return &RedisPublisher{
		client: client,
		logger: logger.With().Str(log.FieldComponent, "sink").Str("sink", sinkName).Logger(),
		prefix: cfg.ChannelPrefix,
		queue:  make(chan Event, size),
	}
}

// Channel returns the per-type channel name for an event.
func Channel(prefix, eventType string) string {
	return prefix + strings.ToLower(eventType)
}

// Enqueue hands an event to the worker. It reports false when the queue is
// full and the event was dropped.
func (p *RedisPublisher) Enqueue(ev Event) bool {
	select {
	case p.queue <- ev:
		metrics.SetSinkQueueDepth(sinkName, len(p.queue))
		return true
	default:
		p.stats.dropped.Add(1)
		metrics.IncSinkResult(sinkName, "dropped")
		p.logger.Debug().Str(log.FieldEventType, ev.Event).Msg("sink queue full, event dropped")
		return false
	}
}

// Listener adapts the publisher for Client.RegisterListener. It runs on the
// read loop, so it only enqueues.
func (p *RedisPublisher) Listener() ami.Listener {
	return func(msg *wire.Message) error {
		if !p.Enqueue(EventFromMessage(msg)) {
			return fmt.Errorf("redis sink queue full")
		}
		return nil
	}
}

// Run publishes queued events until ctx is done. Events still queued at
// that point are discarded.
func (p *RedisPublisher) Run(ctx context.Context) error {
	p.logger.Info().Str("prefix", p.prefix).Msg("redis sink started")
	defer p.logger.Info().Msg("redis sink stopped")

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-p.queue:
			metrics.SetSinkQueueDepth(sinkName, len(p.queue))
			p.publishOne(ctx, ev)
		}
	}
}

func (p *RedisPublisher) publishOne(ctx context.Context, ev Event) {
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.Publish(pctx, ev); err != nil {
		p.stats.failed.Add(1)
		metrics.IncSinkResult(sinkName, "error")
		p.logger.Warn().Err(err).Str(log.FieldEventType, ev.Event).Msg("redis publish failed")
		return
	}
	p.stats.published.Add(1)
	metrics.IncSinkResult(sinkName, "ok")
}

// Publish sends ev synchronously to its type channel and the "all" channel.
func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = p.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		if ev.Event != "" {
			pipe.Publish(ctx, Channel(p.prefix, ev.Event), data)
		}
		pipe.Publish(ctx, p.prefix+allChannel, data)
		return nil
	})
	return err
}

// Stats returns publisher counters.
func (p *RedisPublisher) Stats() Stats {
	return Stats{
		Published: p.stats.published.Load(),
		Failed:    p.stats.failed.Load(),
		Dropped:   p.stats.dropped.Load(),
		Queued:    len(p.queue),
	}
}

// HealthCheck checks if Redis is available.
func (p *RedisPublisher) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (p *RedisPublisher) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.client.Close()
	})
	return err
}

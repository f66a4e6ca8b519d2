// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SinkPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_sink_published_total",
		Help: "Events handed to an external sink by sink and result",
	}, []string{"sink", "result"}) // ok|error|dropped

	sinkQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "amibridge_sink_queue_depth",
		Help: "Events waiting in a sink queue",
	}, []string{"sink"})
)

// IncSinkResult records the outcome of one sink publish.
func IncSinkResult(sink, result string) {
	if sink == "" {
		sink = "unknown"
	}
	SinkPublishedTotal.WithLabelValues(sink, result).Inc()
}

// SetSinkQueueDepth publishes the current queue length of a sink.
func SetSinkQueueDepth(sink string, n int) {
	sinkQueueDepth.WithLabelValues(sink).Set(float64(n))
}

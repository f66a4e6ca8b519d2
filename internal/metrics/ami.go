// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_ami_actions_total",
		Help: "Submitted AMI actions by action name and outcome",
	}, []string{
		"action",  // lower-cased action name
		"outcome", // success|error|timeout|disconnected|canceled|invalid
	})

	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "amibridge_ami_action_duration_seconds",
		Help:    "Time from transmission to completion of AMI actions",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"action"})

	pendingActions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "amibridge_ami_pending_actions",
		Help: "AMI actions awaiting a response or event list completion",
	})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_ami_events_total",
		Help: "AMI events received by event type",
	}, []string{"event"})

	MalformedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amibridge_ami_malformed_lines_total",
		Help: "Lines or frames skipped by the AMI decoder",
	})

	LateResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amibridge_ami_late_responses_total",
		Help: "Responses dropped because their action was no longer pending",
	})

	ListenerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_ami_listener_failures_total",
		Help: "Event listener callbacks that returned an error or panicked",
	}, []string{"reason"}) // error|panic

	DiagnosticsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amibridge_ami_diagnostics_dropped_total",
		Help: "Diagnostics dropped because no consumer drained the channel",
	})

	ReconnectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_ami_reconnect_attempts_total",
		Help: "Session (re)connect attempts by result",
	}, []string{"result"}) // success|failure
)

// RecordAction records the outcome and latency of one submitted action.
func RecordAction(action, outcome string, elapsed time.Duration) {
	action = normalizeLabel(action)
	ActionsTotal.WithLabelValues(action, outcome).Inc()
	if elapsed > 0 {
		actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
	}
}

// SetPendingActions publishes the size of the pending table.
func SetPendingActions(n int) {
	pendingActions.Set(float64(n))
}

// IncEvent counts one received event.
func IncEvent(eventType string) {
	EventsTotal.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncReconnect counts a supervisor connect attempt.
func IncReconnect(ok bool) {
	if ok {
		ReconnectsTotal.WithLabelValues("success").Inc()
		return
	}
	ReconnectsTotal.WithLabelValues("failure").Inc()
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

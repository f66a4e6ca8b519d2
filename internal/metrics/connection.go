// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "amibridge_ami_connection_state",
		Help: "AMI connection state (the active state is 1, others 0)",
	}, []string{"state"})

	connectionDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amibridge_ami_connection_drops_total",
		Help: "Total number of unexpected AMI session terminations",
	}, []string{"reason"})
)

var connectionStates = []string{"disconnected", "connecting", "authenticating", "connected"}

// SetConnectionState records the active connection state.
func SetConnectionState(state string) {
	for _, s := range connectionStates {
		value := 0.0
		if s == state {
			value = 1.0
		}
		connectionState.WithLabelValues(s).Set(value)
	}
}

// RecordConnectionDrop increments the drop counter when a session ends
// without the caller asking for it.
func RecordConnectionDrop(reason string) {
	connectionDrops.WithLabelValues(normalizeLabel(reason)).Inc()
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package action

import "github.com/ManuGH/amibridge/internal/ami/wire"

func QueueAdd(queue, iface string, penalty int) *wire.Action {
	return wire.NewAction("QueueAdd",
		wire.Field{Key: "Queue", Value: queue},
		wire.Field{Key: "Interface", Value: iface},
		wire.Field{Key: "Penalty", Value: itoa(penalty)},
	)
}

func QueueRemove(queue, iface string) *wire.Action {
	return wire.NewAction("QueueRemove",
		wire.Field{Key: "Queue", Value: queue},
		wire.Field{Key: "Interface", Value: iface},
	)
}

// Queues returns CLI-style text, not an event list.
func Queues() *wire.Action { return wire.NewAction("Queues") }

// QueueStatus answers with QueueParams/QueueMember/QueueEntry events and a
// QueueStatusComplete terminator.
func QueueStatus() *wire.Action { return wire.NewAction("QueueStatus") }

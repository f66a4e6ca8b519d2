// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package action

import "github.com/ManuGH/amibridge/internal/ami/wire"

// Zaptel channel actions, kept for servers older than the DAHDI rename.

func ZapDialOffhook(zapChannel, number string) *wire.Action {
	return wire.NewAction("ZapDialOffhook",
		wire.Field{Key: "ZapChannel", Value: zapChannel},
		wire.Field{Key: "Number", Value: number},
	)
}

func ZapDNDoff(zapChannel string) *wire.Action {
	return wire.NewAction("ZapDNDoff", wire.Field{Key: "ZapChannel", Value: zapChannel})
}

func ZapDNDon(zapChannel string) *wire.Action {
	return wire.NewAction("ZapDNDon", wire.Field{Key: "ZapChannel", Value: zapChannel})
}

func ZapHangup(zapChannel string) *wire.Action {
	return wire.NewAction("ZapHangup", wire.Field{Key: "ZapChannel", Value: zapChannel})
}

func ZapTransfer(zapChannel string) *wire.Action {
	return wire.NewAction("ZapTransfer", wire.Field{Key: "ZapChannel", Value: zapChannel})
}

func ZapShowChannels() *wire.Action { return wire.NewAction("ZapShowChannels") }

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package action builds the AMI actions used by amibridge. Every
// constructor returns a plain *wire.Action; anything not covered here can
// be built with New.
package action

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

// New builds an arbitrary action from a field mapping. Keys are written in
// sorted order so the encoding is deterministic.
func New(name string, fields map[string]string) *wire.Action {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	a := wire.NewAction(name)
	for _, k := range keys {
		a.Set(k, fields[k])
	}
	return a
}

// Bool returns a pointer to b, for the optional flags below.
func Bool(b bool) *bool { return &b }

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func setIf(a *wire.Action, key, value string) {
	if value != "" {
		a.Set(key, value)
	}
}

// Login authenticates the session. An empty eventMask leaves the server's
// default event delivery in place.
func Login(username, secret, eventMask string) *wire.Action {
	a := wire.NewAction("Login",
		wire.Field{Key: "Username", Value: username},
		wire.Field{Key: "Secret", Value: secret},
	)
	setIf(a, "Events", eventMask)
	return a
}

func Logoff() *wire.Action { return wire.NewAction("Logoff") }

func Ping() *wire.Action { return wire.NewAction("Ping") }

// Command runs a CLI command. Its output comes back as Output fields of a
// "Response: Follows" message.
func Command(command string) *wire.Action {
	return wire.NewAction("Command", wire.Field{Key: "Command", Value: command})
}

func ListCommands() *wire.Action { return wire.NewAction("ListCommands") }

// Events changes the event mask of the session. The mask is a comma list
// ("system,call"), "on", "off" or "all"; blanks around entries are dropped.
func Events(mask string) *wire.Action {
	parts := strings.Split(mask, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return wire.NewAction("Events", wire.Field{Key: "EventMask", Value: strings.Join(parts, ",")})
}

func ExtensionState(exten, context string) *wire.Action {
	return wire.NewAction("ExtensionState",
		wire.Field{Key: "Exten", Value: exten},
		wire.Field{Key: "Context", Value: context},
	)
}

func MailboxCount(mailbox string) *wire.Action {
	return wire.NewAction("MailboxCount", wire.Field{Key: "Mailbox", Value: mailbox})
}

func MailboxStatus(mailbox string) *wire.Action {
	return wire.NewAction("MailboxStatus", wire.Field{Key: "Mailbox", Value: mailbox})
}

func ParkedCalls() *wire.Action { return wire.NewAction("ParkedCalls") }

func IAXPeers() *wire.Action { return wire.NewAction("IAXPeers") }

func itoa(n int) string { return strconv.Itoa(n) }

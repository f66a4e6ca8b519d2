// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package action

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

func TestConstructors(t *testing.T) {
	const ch = "SIP/101-00000000"

	tests := []struct {
		name   string
		action *wire.Action
		want   map[string]string
	}{
		{"AbsoluteTimeout", AbsoluteTimeout(ch, 60), map[string]string{"action": "AbsoluteTimeout", "channel": ch, "timeout": "60"}},
		{"ChangeMonitor", ChangeMonitor(ch, "rec-101"), map[string]string{"action": "ChangeMonitor", "channel": ch, "file": "rec-101"}},
		{"Command", Command("core show channels concise"), map[string]string{"action": "Command", "command": "core show channels concise"}},
		{"ExtensionState", ExtensionState("101", "default"), map[string]string{"action": "ExtensionState", "exten": "101", "context": "default"}},
		{"Getvar", Getvar(ch, "CALLERID(num)"), map[string]string{"action": "Getvar", "channel": ch, "variable": "CALLERID(num)"}},
		{"Hangup", Hangup(ch), map[string]string{"action": "Hangup", "channel": ch}},
		{"IAXPeers", IAXPeers(), map[string]string{"action": "IAXPeers"}},
		{"ListCommands", ListCommands(), map[string]string{"action": "ListCommands"}},
		{"Logoff", Logoff(), map[string]string{"action": "Logoff"}},
		{"MailboxCount", MailboxCount("101@default"), map[string]string{"action": "MailboxCount", "mailbox": "101@default"}},
		{"MailboxStatus", MailboxStatus("101@default"), map[string]string{"action": "MailboxStatus", "mailbox": "101@default"}},
		{"ParkedCalls", ParkedCalls(), map[string]string{"action": "ParkedCalls"}},
		{"Ping", Ping(), map[string]string{"action": "Ping"}},
		{"QueueAdd", QueueAdd("support", "SIP/101", 5), map[string]string{"action": "QueueAdd", "queue": "support", "interface": "SIP/101", "penalty": "5"}},
		{"QueueRemove", QueueRemove("support", "SIP/101"), map[string]string{"action": "QueueRemove", "queue": "support", "interface": "SIP/101"}},
		{"Queues", Queues(), map[string]string{"action": "Queues"}},
		{"QueueStatus", QueueStatus(), map[string]string{"action": "QueueStatus"}},
		{"Redirect", Redirect(ch, "SIP/102-00000001", "200", "default", 1), map[string]string{
			"action": "Redirect", "channel": ch, "extrachannel": "SIP/102-00000001", "exten": "200", "context": "default", "priority": "1",
		}},
		{"SetCDRUserField", SetCDRUserField(ch, "billing", Bool(true)), map[string]string{"action": "SetCDRUserField", "userfield": "billing", "channel": ch, "append": "true"}},
		{"Setvar", Setvar(ch, "ON_HOLD", "Yes"), map[string]string{"action": "Setvar", "channel": ch, "variable": "ON_HOLD", "value": "Yes"}},
		{"Status", Status(ch), map[string]string{"action": "Status", "channel": ch}},
		{"StopMonitor", StopMonitor(ch), map[string]string{"action": "StopMonitor", "channel": ch}},
		{"ZapDialOffhook", ZapDialOffhook("101", "8005550000"), map[string]string{"action": "ZapDialOffhook", "zapchannel": "101", "number": "8005550000"}},
		{"ZapDNDoff", ZapDNDoff(ch), map[string]string{"action": "ZapDNDoff", "zapchannel": ch}},
		{"ZapDNDon", ZapDNDon(ch), map[string]string{"action": "ZapDNDon", "zapchannel": ch}},
		{"ZapHangup", ZapHangup(ch), map[string]string{"action": "ZapHangup", "zapchannel": ch}},
		{"ZapTransfer", ZapTransfer(ch), map[string]string{"action": "ZapTransfer", "zapchannel": ch}},
		{"ZapShowChannels", ZapShowChannels(), map[string]string{"action": "ZapShowChannels"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Map())
		})
	}
}

func TestEvents_NormalizesMask(t *testing.T) {
	tests := []struct {
		mask string
		want string
	}{
		{"", ""},
		{"all", "all"},
		{"system, call ,log", "system,call,log"},
	}
	for _, tt := range tests {
		v, ok := Events(tt.mask).Get("EventMask")
		require.True(t, ok)
		assert.Equal(t, tt.want, v)
	}
}

func TestLogin_EventsOnlyWhenSet(t *testing.T) {
	_, ok := Login("admin", "s3cret", "").Get("Events")
	assert.False(t, ok)

	got := Login("admin", "s3cret", "off").Map()
	assert.Equal(t, map[string]string{"action": "Login", "username": "admin", "secret": "s3cret", "events": "off"}, got)
}

func TestOptionalFieldsOmitted(t *testing.T) {
	assert.Equal(t, map[string]string{"action": "Status"}, Status("").Map())
	assert.Equal(t, map[string]string{"action": "Monitor", "channel": "SIP/1"}, Monitor("SIP/1", MonitorOptions{}).Map())
	assert.Equal(t, map[string]string{"action": "SetCDRUserField", "channel": "SIP/1", "userfield": "x"}, SetCDRUserField("SIP/1", "x", nil).Map())

	r := Redirect("SIP/1", "", "200", "default", 1)
	_, ok := r.Get("ExtraChannel")
	assert.False(t, ok)
}

func TestMonitor_AllOptions(t *testing.T) {
	got := Monitor("SIP/101", MonitorOptions{File: "call-101", Format: "wav", Mix: Bool(false)}).Map()
	assert.Equal(t, map[string]string{
		"action": "Monitor", "channel": "SIP/101", "file": "call-101", "format": "wav", "mix": "false",
	}, got)
}

func TestOriginate(t *testing.T) {
	a := Originate("SIP/101", OriginateOptions{
		Exten:       "200",
		Context:     "default",
		Priority:    "1",
		Application: "Playback",
		Data:        "hello-world",
		Timeout:     30 * time.Second,
		CallerID:    "Bob <101>",
		Account:     "acct-7",
		Async:       Bool(false),
	})
	assert.Equal(t, map[string]string{
		"action":      "Originate",
		"channel":     "SIP/101",
		"exten":       "200",
		"context":     "default",
		"priority":    "1",
		"application": "Playback",
		"data":        "hello-world",
		"timeout":     "30000",
		"callerid":    "Bob <101>",
		"account":     "acct-7",
		"async":       "false",
	}, a.Map())
}

func TestOriginate_Variables(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		want      []string
	}{
		{name: "none", variables: "", want: nil},
		{name: "single", variables: "CDR(dst)=test", want: []string{"CDR(dst)=test"}},
		{name: "multiple", variables: "CDR(dst)=test1&TEST_VAR=test2", want: []string{"CDR(dst)=test1", "TEST_VAR=test2"}},
		{name: "value with equals", variables: "A=b=c", want: []string{"A=b=c"}},
		{name: "pair without value skipped", variables: "broken&X=1", want: []string{"X=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := string(wire.Encode(Originate("SIP/101", OriginateOptions{Variables: tt.variables})))
			if len(tt.want) == 0 {
				assert.NotContains(t, encoded, "Variable:")
				return
			}
			for _, v := range tt.want {
				assert.Contains(t, encoded, "Variable: "+v+"\r\n")
			}
			assert.Equal(t, len(tt.want), strings.Count(encoded, "Variable: "))
		})
	}
}

func TestNew_SortedFields(t *testing.T) {
	a := New("UserEvent", map[string]string{"UserTag2": "b", "UserTag1": "a", "UserEvent": "Custom"})
	assert.Equal(t, "UserEvent", a.Name)

	fields := a.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, []string{"UserEvent", "UserTag1", "UserTag2"}, []string{fields[0].Key, fields[1].Key, fields[2].Key})
}

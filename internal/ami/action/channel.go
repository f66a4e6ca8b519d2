// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package action

import (
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

func AbsoluteTimeout(channel string, seconds int) *wire.Action {
	return wire.NewAction("AbsoluteTimeout",
		wire.Field{Key: "Channel", Value: channel},
		wire.Field{Key: "Timeout", Value: itoa(seconds)},
	)
}

func Hangup(channel string) *wire.Action {
	return wire.NewAction("Hangup", wire.Field{Key: "Channel", Value: channel})
}

// Getvar reads a channel variable, or a global one for an empty channel.
func Getvar(channel, variable string) *wire.Action {
	a := wire.NewAction("Getvar")
	setIf(a, "Channel", channel)
	a.Set("Variable", variable)
	return a
}

// Setvar sets a channel variable, or a global one for an empty channel.
func Setvar(channel, variable, value string) *wire.Action {
	a := wire.NewAction("Setvar")
	setIf(a, "Channel", channel)
	a.Set("Variable", variable)
	a.Set("Value", value)
	return a
}

// Status lists active channels, or one channel when given. The answer is
// an event list terminated by StatusComplete.
func Status(channel string) *wire.Action {
	a := wire.NewAction("Status")
	setIf(a, "Channel", channel)
	return a
}

// Redirect transfers channel, and optionally extraChannel, to a dialplan
// location.
func Redirect(channel, extraChannel, exten, context string, priority int) *wire.Action {
	a := wire.NewAction("Redirect", wire.Field{Key: "Channel", Value: channel})
	setIf(a, "ExtraChannel", extraChannel)
	a.Set("Exten", exten)
	a.Set("Context", context)
	a.Set("Priority", itoa(priority))
	return a
}

// MonitorOptions are the optional fields of Monitor.
type MonitorOptions struct {
	File   string
	Format string
	Mix    *bool
}

func Monitor(channel string, opts MonitorOptions) *wire.Action {
	a := wire.NewAction("Monitor", wire.Field{Key: "Channel", Value: channel})
	setIf(a, "File", opts.File)
	setIf(a, "Format", opts.Format)
	if opts.Mix != nil {
		a.Set("Mix", boolString(*opts.Mix))
	}
	return a
}

func ChangeMonitor(channel, file string) *wire.Action {
	return wire.NewAction("ChangeMonitor",
		wire.Field{Key: "Channel", Value: channel},
		wire.Field{Key: "File", Value: file},
	)
}

func StopMonitor(channel string) *wire.Action {
	return wire.NewAction("StopMonitor", wire.Field{Key: "Channel", Value: channel})
}

// SetCDRUserField sets or, with append, extends the CDR user field.
func SetCDRUserField(channel, userField string, appendValue *bool) *wire.Action {
	a := wire.NewAction("SetCDRUserField",
		wire.Field{Key: "Channel", Value: channel},
		wire.Field{Key: "UserField", Value: userField},
	)
	if appendValue != nil {
		a.Set("Append", boolString(*appendValue))
	}
	return a
}

// OriginateOptions are the optional fields of Originate. Either
// Exten/Context/Priority or Application/Data is expected.
type OriginateOptions struct {
	Exten       string
	Context     string
	Priority    string
	Application string
	Data        string
	// Timeout is how long to wait for the channel to answer; it is sent in
	// milliseconds.
	Timeout  time.Duration
	CallerID string
	// Variables uses the "name=value&name2=value2" form. Each pair becomes
	// its own Variable line; pairs without "=" are ignored.
	Variables string
	Account   string
	Async     *bool
}

func Originate(channel string, opts OriginateOptions) *wire.Action {
	a := wire.NewAction("Originate", wire.Field{Key: "Channel", Value: channel})
	setIf(a, "Exten", opts.Exten)
	setIf(a, "Context", opts.Context)
	setIf(a, "Priority", opts.Priority)
	setIf(a, "Application", opts.Application)
	setIf(a, "Data", opts.Data)
	if opts.Timeout > 0 {
		a.Set("Timeout", strconv.FormatInt(opts.Timeout.Milliseconds(), 10))
	}
	setIf(a, "CallerID", opts.CallerID)
	for _, v := range ParseVariables(opts.Variables) {
		a.Add("Variable", v.Key+"="+v.Value)
	}
	setIf(a, "Account", opts.Account)
	if opts.Async != nil {
		a.Set("Async", boolString(*opts.Async))
	}
	return a
}

// ParseVariables splits "a=b&c=d" into ordered name/value pairs.
func ParseVariables(s string) []wire.Field {
	if s == "" {
		return nil
	}
	var out []wire.Field
	for _, pair := range strings.Split(s, "&") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		out = append(out, wire.Field{Key: name, Value: value})
	}
	return out
}

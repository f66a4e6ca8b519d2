// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

import (
	"strings"
)

// Kind discriminates decoded messages by their leading key.
type Kind int

const (
	KindUnknown Kind = iota
	KindResponse
	KindEvent
	KindAction // client-to-server frame; only seen by servers and test doubles
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindEvent:
		return "event"
	case KindAction:
		return "action"
	default:
		return "unknown"
	}
}

// Message is one decoded frame. Values are raw strings.
type Message struct {
	Kind   Kind
	Fields []Field
}

// Get returns the first value for key (case-insensitive).
func (m *Message) Get(key string) string {
	v, _ := m.Lookup(key)
	return v
}

// Lookup returns the first value for key and whether it was present.
func (m *Message) Lookup(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, f := range m.Fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value for key in wire order.
func (m *Message) Values(key string) []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, f := range m.Fields {
		if strings.EqualFold(f.Key, key) {
			out = append(out, f.Value)
		}
	}
	return out
}

func (m *Message) ActionID() string  { return m.Get("ActionID") }
func (m *Message) EventType() string { return m.Get("Event") }
func (m *Message) Response() string  { return m.Get("Response") }

// Map returns the fields with lower-cased keys. Repeated keys are joined
// with "\n" so multi-line command output survives flattening.
func (m *Message) Map() map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m.Fields))
	for _, f := range m.Fields {
		k := strings.ToLower(f.Key)
		if prev, ok := out[k]; ok {
			out[k] = prev + "\n" + f.Value
			continue
		}
		out[k] = f.Value
	}
	return out
}

// ChannelVariables extracts "ChanVariable(<chan>): name=value" style fields
// into a name → value map. Asterisk emits these on channel events when
// channelvars is configured in manager.conf.
func (m *Message) ChannelVariables() map[string]string {
	out := map[string]string{}
	if m == nil {
		return out
	}
	for _, f := range m.Fields {
		if !strings.HasPrefix(strings.ToLower(f.Key), "chanvariable") {
			continue
		}
		name, value, ok := strings.Cut(f.Value, "=")
		if !ok {
			continue
		}
		out[name] = value
	}
	return out
}

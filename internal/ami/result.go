// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"strings"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

// EventListKey is the Map key that carries collected list events.
const EventListKey = "__eventlist"

// Result is the aggregated answer to one action: the Response plus, for
// list actions, the events in wire order. On ErrTimeout it holds whatever
// had arrived.
type Result struct {
	ActionID string
	Response *wire.Message
	Events   []*wire.Message
	// Complete is the terminating list event, if one arrived.
	Complete *wire.Message
}

// Fields returns the response as a flat, lower-cased mapping.
func (r *Result) Fields() map[string]string {
	if r == nil || r.Response == nil {
		return map[string]string{}
	}
	return r.Response.Map()
}

// EventFields returns the collected events as ordered mappings.
func (r *Result) EventFields() []map[string]string {
	if r == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Map())
	}
	return out
}

// Map returns the flat response fields plus EventListKey when the action
// produced an event list.
func (r *Result) Map() map[string]any {
	fields := r.Fields()
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	if r != nil && len(r.Events) > 0 {
		out[EventListKey] = r.EventFields()
	}
	return out
}

// IsSuccess reports whether a response arrived and it is not "Error".
func (r *Result) IsSuccess() bool {
	if r == nil || r.Response == nil {
		return false
	}
	return !strings.EqualFold(r.Response.Response(), "Error")
}

// Message returns the server's Message field, if any.
func (r *Result) Message() string {
	if r == nil {
		return ""
	}
	return r.Response.Get("Message")
}

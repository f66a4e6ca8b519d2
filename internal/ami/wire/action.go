// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

import (
	"strings"
)

// Field is a single "Key: Value" line. Order is preserved on the wire.
type Field struct {
	Key   string
	Value string
}

// Action is an outbound AMI request.
//
// Fields keep insertion order because some Asterisk versions are sensitive
// to it (e.g. Originate with repeated Variable lines). The ActionID is kept
// apart from the fields and always serialized directly after the action name.
type Action struct {
	Name   string
	ID     string
	fields []Field
}

// NewAction builds an action with the given name and initial fields.
func NewAction(name string, fields ...Field) *Action {
	a := &Action{Name: name}
	for _, f := range fields {
		a.Set(f.Key, f.Value)
	}
	return a
}

// Set replaces the first field whose key matches case-insensitively, or
// appends a new field. Setting "Action" or "ActionID" updates Name / ID.
func (a *Action) Set(key, value string) *Action {
	switch {
	case strings.EqualFold(key, "Action"):
		a.Name = value
		return a
	case strings.EqualFold(key, "ActionID"):
		a.ID = value
		return a
	}
	for i := range a.fields {
		if strings.EqualFold(a.fields[i].Key, key) {
			a.fields[i].Value = value
			return a
		}
	}
	a.fields = append(a.fields, Field{Key: key, Value: value})
	return a
}

// Add appends a field even if the key already exists.
func (a *Action) Add(key, value string) *Action {
	a.fields = append(a.fields, Field{Key: key, Value: value})
	return a
}

// Get returns the first value for key.
func (a *Action) Get(key string) (string, bool) {
	switch {
	case strings.EqualFold(key, "Action"):
		return a.Name, a.Name != ""
	case strings.EqualFold(key, "ActionID"):
		return a.ID, a.ID != ""
	}
	for _, f := range a.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value, true
		}
	}
	return "", false
}

// Fields returns a copy of the ordered field list (without Action/ActionID).
func (a *Action) Fields() []Field {
	out := make([]Field, len(a.fields))
	copy(out, a.fields)
	return out
}

// WithID sets the action identifier and returns the action for chaining.
func (a *Action) WithID(id string) *Action {
	a.ID = id
	return a
}

// Clone returns a deep copy.
func (a *Action) Clone() *Action {
	c := &Action{Name: a.Name, ID: a.ID}
	c.fields = a.Fields()
	return c
}

// Map renders the action as a lower-cased key mapping, the same shape
// decoded messages expose. Repeated keys keep the last value.
func (a *Action) Map() map[string]string {
	out := make(map[string]string, len(a.fields)+2)
	out["action"] = a.Name
	if a.ID != "" {
		out["actionid"] = a.ID
	}
	for _, f := range a.fields {
		out[strings.ToLower(f.Key)] = f.Value
	}
	return out
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

// Listener receives events. A returned error is reported as a Diagnostic
// and never stops other listeners.
type Listener func(ev *wire.Message) error

// Predicate selects events by their event type. Nil matches everything.
type Predicate func(eventType string) bool

// Registration identifies a registered listener.
type Registration uint64

// Diagnostic reports a listener failure.
type Diagnostic struct {
	Registration Registration
	EventType    string
	Err          error
	Panicked     bool
	Time         time.Time
}

// EventType returns a case-insensitive predicate for one event type, or a
// match-all predicate for "*" and "".
func EventType(name string) Predicate {
	name = strings.TrimSpace(name)
	if name == "" || name == "*" {
		return nil
	}
	return func(eventType string) bool {
		return strings.EqualFold(eventType, name)
	}
}

type listenerEntry struct {
	id   Registration
	pred Predicate
	fn   Listener
}

// dispatcher fans events out to listeners in registration order.
type dispatcher struct {
	mu      sync.Mutex
	next    Registration
	entries []listenerEntry

	report func(Diagnostic)
}

func newDispatcher(report func(Diagnostic)) *dispatcher {
	return &dispatcher{report: report}
}

func (d *dispatcher) register(pred Predicate, fn Listener) Registration {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.entries = append(d.entries, listenerEntry{id: d.next, pred: pred, fn: fn})
	return d.next
}

func (d *dispatcher) unregister(id Registration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.entries {
		if e.id == id {
			// Copy so a snapshot taken by an in-flight dispatch stays intact.
			out := make([]listenerEntry, 0, len(d.entries)-1)
			out = append(out, d.entries[:i]...)
			d.entries = append(out, d.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (d *dispatcher) clear() {
	d.mu.Lock()
	d.entries = nil
	d.mu.Unlock()
}

func (d *dispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.entries)
}

// dispatch runs on the read loop. The listener table is snapshotted so
// callbacks may register or unregister without deadlocking.
func (d *dispatcher) dispatch(ev *wire.Message) {
	d.mu.Lock()
	entries := d.entries
	d.mu.Unlock()

	typ := ev.EventType()
	for _, e := range entries {
		if e.pred != nil && !e.pred(typ) {
			continue
		}
		d.invoke(e, ev, typ)
	}
}

func (d *dispatcher) invoke(e listenerEntry, ev *wire.Message, typ string) {
	defer func() {
		if r := recover(); r != nil {
			d.fail(Diagnostic{
				Registration: e.id,
				EventType:    typ,
				Err:          fmt.Errorf("listener panic: %v", r),
				Panicked:     true,
				Time:         time.Now(),
			})
		}
	}()
	if err := e.fn(ev); err != nil {
		d.fail(Diagnostic{Registration: e.id, EventType: typ, Err: err, Time: time.Now()})
	}
}

func (d *dispatcher) fail(diag Diagnostic) {
	if d.report != nil {
		d.report(diag)
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/amibridge/internal/ami/wire"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/metrics"
)

type pendingState int

const (
	pendingAwaiting pendingState = iota
	pendingCollecting
	pendingDone
)

// pending is one outstanding action. All fields except done are guarded
// by correlator.mu until done is closed; afterwards they are read-only.
type pending struct {
	id         string
	action     string
	terminator string
	timeout    time.Duration
	deadline   time.Time
	timer      *time.Timer
	sent       time.Time

	state    pendingState
	resp     *wire.Message
	events   []*wire.Message
	complete *wire.Message
	err      error

	done chan struct{}
}

func (p *pending) result() *Result {
	return &Result{
		ActionID: p.id,
		Response: p.resp,
		Events:   p.events,
		Complete: p.complete,
	}
}

// correlator matches responses and list events to outstanding actions.
// The read loop is the only caller of handle; register and cancel come
// from caller goroutines. mu is never held across I/O.
type correlator struct {
	mu          sync.Mutex
	table       map[string]*pending
	closed      bool
	closeErr    error
	listActions map[string]string
	logger      zerolog.Logger
}

func newCorrelator(listActions map[string]string, logger zerolog.Logger) *correlator {
	return &correlator{
		table:       make(map[string]*pending),
		closed:      true,
		closeErr:    newError(ErrDisconnected, "submit", "", nil),
		listActions: listActions,
		logger:      logger,
	}
}

// open accepts registrations for a new session.
func (c *correlator) open() {
	c.mu.Lock()
	c.closed = false
	c.closeErr = nil
	c.mu.Unlock()
}

// register records a pending entry for a (cloned, ID-bearing) action.
func (c *correlator) register(a *wire.Action, timeout time.Duration) (*pending, error) {
	p := &pending{
		id:         a.ID,
		action:     a.Name,
		terminator: c.listActions[strings.ToLower(a.Name)],
		timeout:    timeout,
		deadline:   time.Now().Add(timeout),
		sent:       time.Now(),
		done:       make(chan struct{}),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, c.closeErr
	}
	if _, dup := c.table[a.ID]; dup {
		return nil, newError(ErrInvalidArgument, "submit", a.ID, errDuplicateID)
	}
	c.table[a.ID] = p
	p.timer = time.AfterFunc(timeout, func() { c.expire(p) })
	metrics.SetPendingActions(len(c.table))
	return p, nil
}

// handle offers a decoded message to the pending table and reports
// whether it was consumed by a pending action.
func (c *correlator) handle(msg *wire.Message) bool {
	id := msg.ActionID()
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.table[id]
	if !ok {
		if msg.Kind == wire.KindResponse {
			metrics.LateResponsesTotal.Inc()
			c.logger.Debug().
				Str(log.FieldEvent, "ami.late_response").
				Str(log.FieldActionID, id).
				Msg("dropping response for unknown or finished action")
		}
		return false
	}

	switch msg.Kind {
	case wire.KindResponse:
		if p.state != pendingAwaiting {
			return false
		}
		p.resp = msg
		if c.expectsList(p, msg) {
			p.state = pendingCollecting
			c.touchLocked(p)
			return true
		}
		c.finishLocked(p, nil)
		return true

	case wire.KindEvent:
		if p.state != pendingCollecting {
			return false
		}
		if isListTerminator(p, msg) {
			p.complete = msg
			c.finishLocked(p, nil)
			return true
		}
		p.events = append(p.events, msg)
		c.touchLocked(p)
		return true
	}
	return false
}

func (c *correlator) expectsList(p *pending, resp *wire.Message) bool {
	if strings.EqualFold(resp.Response(), "Error") {
		return false
	}
	if strings.EqualFold(resp.Get("EventList"), "start") {
		return true
	}
	return p.terminator != "" && strings.EqualFold(resp.Response(), "Success")
}

func isListTerminator(p *pending, ev *wire.Message) bool {
	if strings.EqualFold(ev.Get("EventList"), "Complete") {
		return true
	}
	typ := ev.EventType()
	if p.terminator != "" && strings.EqualFold(typ, p.terminator) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(typ), "complete")
}

// touchLocked pushes the idle deadline out after progress.
func (c *correlator) touchLocked(p *pending) {
	p.deadline = time.Now().Add(p.timeout)
	p.timer.Reset(p.timeout)
}

func (c *correlator) expire(p *pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.state == pendingDone {
		return
	}
	// The timer may have fired while handle held the lock and pushed the
	// deadline; re-arm for the remainder instead of failing early.
	if remaining := time.Until(p.deadline); remaining > 0 {
		p.timer.Reset(remaining)
		return
	}
	c.finishLocked(p, newError(ErrTimeout, "submit", p.id, nil))
}

// cancel removes p without completing it successfully. The action may
// still be answered by the server; that answer is dropped as late.
func (c *correlator) cancel(p *pending, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishLocked(p, cause)
}

// failAll completes every outstanding entry with err and rejects new
// registrations until open is called again.
func (c *correlator) failAll(err error) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeErr = err
	n := 0
	for _, p := range c.table {
		if c.finishLocked(p, err) {
			n++
		}
	}
	return n
}

func (c *correlator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.table)
}

// finishLocked completes p at most once.
func (c *correlator) finishLocked(p *pending, err error) bool {
	if p.state == pendingDone {
		return false
	}
	p.state = pendingDone
	p.err = err
	if p.timer != nil {
		p.timer.Stop()
	}
	if c.table[p.id] == p {
		delete(c.table, p.id)
	}
	metrics.SetPendingActions(len(c.table))

	outcome := outcomeOf(err)
	if err == nil && p.resp != nil && strings.EqualFold(p.resp.Response(), "Error") {
		outcome = "error"
	}
	metrics.RecordAction(p.action, outcome, time.Since(p.sent))
	close(p.done)
	return true
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ami implements an Asterisk Manager Interface client: one TCP
// session, action/response correlation including event lists, and
// fan-out of unsolicited events to registered listeners.
package ami

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ManuGH/amibridge/internal/ami/action"
	"github.com/ManuGH/amibridge/internal/ami/wire"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/metrics"
	"github.com/ManuGH/amibridge/internal/telemetry"
)

// Client is safe for concurrent use. Listener registrations survive
// reconnects; pending actions do not.
type Client struct {
	logger  zerolog.Logger
	corr    *correlator
	disp    *dispatcher
	limiter *rate.Limiter
	diag    chan Diagnostic

	// connectMu serializes Connect and Disconnect.
	connectMu sync.Mutex

	mu      sync.Mutex
	cfg     Config
	state   State
	sess    *session
	lastErr error
	banner  string

	bytesRead      atomic.Uint64
	bytesWritten   atomic.Uint64
	actionsSent    atomic.Uint64
	eventsReceived atomic.Uint64
}

// Stats is a point-in-time snapshot of client counters.
type Stats struct {
	State          State
	Pending        int
	Listeners      int
	ActionsSent    uint64
	EventsReceived uint64
	BytesRead      uint64
	BytesWritten   uint64
}

// New returns a disconnected client.
func New(cfg Config) *Client {
	cfg = normalizeConfig(cfg)

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.WithComponent("ami")
	}

	c := &Client{
		logger: logger,
		cfg:    cfg,
		diag:   make(chan Diagnostic, cfg.DiagnosticsBuffer),
	}
	c.corr = newCorrelator(cfg.ListActions, logger)
	c.disp = newDispatcher(c.reportDiagnostic)
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(cfg.RateLimit, cfg.RateLimitBurst)
	}
	metrics.SetConnectionState(StateDisconnected.String())
	return c
}

// Config returns the effective configuration, including overrides from
// earlier Connect options.
func (c *Client) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Connect dials the manager port, reads the banner and logs in. It is a
// no-op when already connected and no options are given; options force a
// fresh session with the overridden settings.
func (c *Client) Connect(ctx context.Context, opts ...ConnectOption) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if len(opts) > 0 {
		if err := c.disconnectLocked(ctx); err != nil {
			return err
		}
		c.mu.Lock()
		for _, opt := range opts {
			opt(&c.cfg)
		}
		c.cfg = normalizeConfig(c.cfg)
		c.mu.Unlock()
	} else if c.connected() {
		return nil
	}

	cfg := c.Config()
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	deadline, _ := ctx.Deadline()

	c.setState(StateConnecting, nil)
	sess, err := dialSession(ctx, cfg.Address(), cfg.ReadTimeout, cfg.WriteTimeout, &c.bytesRead, &c.bytesWritten)
	if err != nil {
		e := newError(ErrConnection, "connect", "", err)
		c.setState(StateDisconnected, e)
		return e
	}

	leftover, err := sess.readBanner(deadline)
	if err != nil {
		sess.close()
		e := newError(ErrConnection, "connect", "", err)
		c.setState(StateDisconnected, e)
		return e
	}

	dec := wire.NewDecoder()
	dec.OnMalformed = c.onMalformed
	dec.Feed(leftover)

	c.mu.Lock()
	c.sess = sess
	c.banner = sess.banner
	c.mu.Unlock()

	c.corr.open()
	go c.run(sess, dec)

	if !c.promote(sess, StateAuthenticating) {
		e := newError(ErrConnection, "login", "", errSessionLost)
		c.abort(sess, e)
		return e
	}
	h, err := c.start(ctx, action.Login(cfg.Username, cfg.Secret, cfg.EventMask), submitConfig{timeout: time.Until(deadline)}, true)
	if err != nil {
		e := newError(ErrConnection, "login", "", err)
		c.abort(sess, e)
		return e
	}
	res, err := h.Wait(ctx)
	if err != nil {
		e := newError(ErrConnection, "login", h.ActionID(), err)
		c.abort(sess, e)
		return e
	}
	if !res.IsSuccess() {
		e := newError(ErrAuth, "login", h.ActionID(), errors.New(res.Message()))
		c.abort(sess, e)
		return e
	}

	// The server may hang up right after accepting the login.
	if !c.promote(sess, StateConnected) {
		e := newError(ErrConnection, "login", h.ActionID(), errSessionLost)
		c.abort(sess, e)
		return e
	}
	c.logger.Info().
		Str(log.FieldEvent, "ami.connected").
		Str(log.FieldRemoteAddr, sess.remoteAddr()).
		Str(log.FieldBanner, sess.banner).
		Msg("AMI session established")
	return nil
}

// abort tears down a session that never reached Connected.
func (c *Client) abort(sess *session, cause error) {
	sess.closing.Store(true)
	sess.close()
	<-sess.done
	c.setState(StateDisconnected, cause)
}

// Disconnect logs off (best effort), closes the socket and fails every
// pending action with ErrDisconnected. Listeners are kept.
func (c *Client) Disconnect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()
	return c.disconnectLocked(ctx)
}

func (c *Client) disconnectLocked(ctx context.Context) error {
	c.mu.Lock()
	sess := c.sess
	state := c.state
	cfg := c.cfg
	c.mu.Unlock()

	if sess == nil {
		return nil
	}

	if state == StateConnected {
		sess.expectEOF.Store(true)
		lctx, cancel := context.WithTimeout(ctx, cfg.LogoffTimeout)
		if h, err := c.start(lctx, action.Logoff(), submitConfig{timeout: cfg.LogoffTimeout}, true); err == nil {
			_, _ = h.Wait(lctx)
		}
		cancel()
	}

	sess.closing.Store(true)
	sess.close()
	select {
	case <-sess.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.Info().Str(log.FieldEvent, "ami.disconnected").Msg("AMI session closed")
	return nil
}

// run owns the read side of one session.
func (c *Client) run(sess *session, dec *wire.Decoder) {
	err := sess.readLoop(dec, c.handleMessage)
	c.sessionEnded(sess, err)
}

func (c *Client) sessionEnded(sess *session, err error) {
	sess.close()

	var lastErr error
	cause := newError(ErrDisconnected, "read", "", err)
	if err != nil {
		lastErr = cause
	}

	failed := c.corr.failAll(cause)

	c.mu.Lock()
	if c.sess == sess {
		c.sess = nil
	}
	c.mu.Unlock()
	c.setState(StateDisconnected, lastErr)

	if err != nil {
		reason := "error"
		if errors.Is(err, io.EOF) {
			reason = "eof"
		}
		metrics.RecordConnectionDrop(reason)
		c.logger.Warn().
			Err(err).
			Str(log.FieldEvent, "ami.connection_lost").
			Int("failed_pending", failed).
			Msg("AMI connection lost")
	}
	sess.finish(err)
}

func (c *Client) handleMessage(msg *wire.Message) {
	switch msg.Kind {
	case wire.KindResponse:
		c.corr.handle(msg)
	case wire.KindEvent:
		c.eventsReceived.Add(1)
		metrics.IncEvent(msg.EventType())
		// List events are both collected and broadcast.
		c.corr.handle(msg)
		c.disp.dispatch(msg)
	default:
		c.logger.Debug().
			Str(log.FieldEvent, "ami.unexpected_message").
			Str("kind", msg.Kind.String()).
			Msg("ignoring message")
	}
}

func (c *Client) onMalformed(line string) {
	metrics.MalformedTotal.Inc()
	c.logger.Debug().Str(log.FieldEvent, "ami.malformed").Str("line", line).Msg("skipping malformed input")
}

func (c *Client) setState(next State, lastErr error) {
	c.mu.Lock()
	prev := c.state
	c.state = next
	if next == StateDisconnected {
		if lastErr != nil || prev != StateDisconnected {
			c.lastErr = lastErr
		}
	} else {
		c.lastErr = nil
	}
	c.mu.Unlock()

	c.stateChanged(prev, next)
}

// promote moves a live session forward. It fails once the read loop has
// retired sess, so a dead session is never reported as Connected.
func (c *Client) promote(sess *session, next State) bool {
	c.mu.Lock()
	if c.sess != sess {
		c.mu.Unlock()
		return false
	}
	prev := c.state
	c.state = next
	c.lastErr = nil
	c.mu.Unlock()

	c.stateChanged(prev, next)
	return true
}

func (c *Client) connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateConnected && c.sess != nil
}

func (c *Client) stateChanged(prev, next State) {
	if prev == next {
		return
	}
	metrics.SetConnectionState(next.String())
	c.logger.Debug().
		Str(log.FieldEvent, "ami.state").
		Str(log.FieldOldState, prev.String()).
		Str(log.FieldNewState, next.String()).
		Msg("connection state changed")
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns why the last session ended or failed to start, or nil after
// a clean disconnect.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Done is closed when the current session ends. Without a session the
// returned channel is already closed.
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.sess.done
}

// Banner returns the greeting of the most recent session.
func (c *Client) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

func (c *Client) Stats() Stats {
	return Stats{
		State:          c.State(),
		Pending:        c.corr.pendingCount(),
		Listeners:      c.disp.count(),
		ActionsSent:    c.actionsSent.Load(),
		EventsReceived: c.eventsReceived.Load(),
		BytesRead:      c.bytesRead.Load(),
		BytesWritten:   c.bytesWritten.Load(),
	}
}

type submitConfig struct {
	timeout time.Duration
}

// SubmitOption adjusts a single submission.
type SubmitOption func(*submitConfig)

// WithTimeout overrides the idle response timeout for one action, e.g. a
// synchronous Originate that only answers once the call is up.
func WithTimeout(d time.Duration) SubmitOption {
	return func(sc *submitConfig) {
		sc.timeout = d
	}
}

// Handle tracks one in-flight action.
type Handle struct {
	c *Client
	p *pending
}

func (h *Handle) ActionID() string { return h.p.id }

// Done is closed once the action completed, failed or was cancelled.
func (h *Handle) Done() <-chan struct{} { return h.p.done }

// Cancel abandons the action. A response arriving later is dropped.
func (h *Handle) Cancel() {
	h.c.corr.cancel(h.p, context.Canceled)
}

// Wait blocks until the action finishes or ctx ends. On ErrTimeout or a
// context error the partial Result collected so far is returned with it.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.p.done:
	case <-ctx.Done():
		h.c.corr.cancel(h.p, ctx.Err())
		<-h.p.done
	}
	return h.p.result(), h.p.err
}

// Submit sends a and waits for its Result. Without an ActionID a UUID is
// assigned. A Response of "Error" is a Result, not an error.
func (c *Client) Submit(ctx context.Context, a *wire.Action, opts ...SubmitOption) (*Result, error) {
	name, id := "", ""
	if a != nil {
		name, id = a.Name, a.ID
	}
	ctx, span := telemetry.Tracer("ami").Start(ctx, "ami.submit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.ActionAttributes(name, id)...),
	)
	defer span.End()

	h, err := c.SubmitAsync(ctx, a, opts...)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(outcomeOf(err))...)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(telemetry.ActionAttributes(name, h.ActionID())...)

	res, err := h.Wait(ctx)
	span.SetAttributes(telemetry.ResultAttributes(res.Response.Response(), len(res.Events))...)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(outcomeOf(err))...)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

// SubmitAsync sends a and returns immediately.
func (c *Client) SubmitAsync(ctx context.Context, a *wire.Action, opts ...SubmitOption) (*Handle, error) {
	var sc submitConfig
	for _, opt := range opts {
		opt(&sc)
	}
	return c.start(ctx, a, sc, false)
}

// Send builds an action from a flat field mapping. Fields are written in
// key order; actionID may be empty.
func (c *Client) Send(ctx context.Context, name string, fields map[string]string, actionID string, opts ...SubmitOption) (*Result, error) {
	a := action.New(name, fields)
	if actionID != "" {
		a.ID = actionID
	}
	return c.Submit(ctx, a, opts...)
}

// start validates, registers and writes one action. internal submissions
// (Login, Logoff) bypass the rate limiter and the Connected check.
func (c *Client) start(ctx context.Context, a *wire.Action, sc submitConfig, internal bool) (*Handle, error) {
	if a == nil || strings.TrimSpace(a.Name) == "" {
		return nil, newError(ErrInvalidArgument, "submit", "", errNoAction)
	}
	a = a.Clone()
	if a.ID == "" {
		a.ID = uuid.NewString()
	} else if strings.TrimSpace(a.ID) == "" {
		return nil, newError(ErrInvalidArgument, "submit", "", errEmptyID)
	}

	if c.limiter != nil && !internal {
		if err := c.limiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, newError(ErrTimeout, "submit", a.ID, err)
		}
	}

	c.mu.Lock()
	sess := c.sess
	state := c.state
	timeout := c.cfg.ResponseTimeout
	c.mu.Unlock()

	if sess == nil || (!internal && state != StateConnected) {
		return nil, newError(ErrDisconnected, "submit", a.ID, nil)
	}
	if sc.timeout > 0 {
		timeout = sc.timeout
	}

	p, err := c.corr.register(a, timeout)
	if err != nil {
		return nil, err
	}
	if err := sess.write(wire.Encode(a)); err != nil {
		e := newError(ErrDisconnected, "submit", a.ID, err)
		c.corr.cancel(p, e)
		return nil, e
	}
	c.actionsSent.Add(1)
	c.logger.Debug().
		Str(log.FieldEvent, "ami.action_sent").
		Str(log.FieldAction, a.Name).
		Str(log.FieldActionID, a.ID).
		Msg("action sent")
	return &Handle{c: c, p: p}, nil
}

// RegisterListener subscribes fn to one event type, or to every event for
// "*" or "".
func (c *Client) RegisterListener(eventType string, fn Listener) (Registration, error) {
	return c.RegisterPredicate(EventType(eventType), fn)
}

// RegisterPredicate subscribes fn to events whose type satisfies pred. A
// nil pred matches every event.
func (c *Client) RegisterPredicate(pred Predicate, fn Listener) (Registration, error) {
	if fn == nil {
		return 0, newError(ErrInvalidArgument, "register", "", errors.New("nil listener"))
	}
	return c.disp.register(pred, fn), nil
}

// Unregister removes a listener and reports whether it was registered.
func (c *Client) Unregister(id Registration) bool {
	return c.disp.unregister(id)
}

// ClearListeners removes every listener.
func (c *Client) ClearListeners() {
	c.disp.clear()
}

// Diagnostics delivers listener failures. Reports are dropped when the
// channel is full.
func (c *Client) Diagnostics() <-chan Diagnostic {
	return c.diag
}

func (c *Client) reportDiagnostic(d Diagnostic) {
	reason := "error"
	if d.Panicked {
		reason = "panic"
	}
	metrics.ListenerFailuresTotal.WithLabelValues(reason).Inc()
	c.logger.Warn().
		Err(d.Err).
		Str(log.FieldEvent, "ami.listener_failed").
		Str(log.FieldEventType, d.EventType).
		Uint64("registration", uint64(d.Registration)).
		Bool("panicked", d.Panicked).
		Msg("event listener failed")

	select {
	case c.diag <- d:
	default:
		metrics.DiagnosticsDroppedTotal.Inc()
	}
}

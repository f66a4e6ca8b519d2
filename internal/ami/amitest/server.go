// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package amitest provides an in-process AMI server for tests.
package amitest

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

// DefaultBanner is sent to every client on accept.
const DefaultBanner = "Asterisk Call Manager/5.0.1"

// Handler answers one action. It runs on the connection's read goroutine,
// so a handler that never replies simulates a stalled server.
type Handler func(c *Conn, req *wire.Message)

// Server is a loopback AMI endpoint with scripted action handlers.
type Server struct {
	ln     net.Listener
	Banner string

	mu       sync.Mutex
	username string
	secret   string
	handlers map[string]Handler
	conns    map[*Conn]struct{}
	actions  []*wire.Message
	closed   bool

	wg sync.WaitGroup
}

// NewServer starts listening on 127.0.0.1 with an ephemeral port. Login
// accepts admin/secret until SetCredentials changes it. Like
// httptest.NewServer it panics when it cannot listen.
func NewServer() *Server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(fmt.Sprintf("amitest: failed to listen: %v", err))
	}
	s := &Server{
		ln:       ln,
		Banner:   DefaultBanner,
		username: "admin",
		secret:   "secret",
		handlers: make(map[string]Handler),
		conns:    make(map[*Conn]struct{}),
	}
	s.handlers["login"] = s.handleLogin
	s.handlers["logoff"] = handleLogoff
	s.handlers["ping"] = handlePing

	s.wg.Add(1)
	go s.acceptLoop()
	return s
}

// Addr returns host:port of the listener.
func (s *Server) Addr() string { return s.ln.Addr().String() }

func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Addr())
	return host
}

func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Addr())
	n, _ := strconv.Atoi(port)
	return n
}

// SetCredentials changes the accepted Login.
func (s *Server) SetCredentials(username, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.secret = secret
}

// Handle installs h for an action name (case-insensitive), replacing any
// built-in handler.
func (s *Server) Handle(action string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[strings.ToLower(action)] = h
}

// Actions returns every action received so far, in arrival order.
func (s *Server) Actions() []*wire.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*wire.Message, len(s.actions))
	copy(out, s.actions)
	return out
}

// Received counts received actions with the given name.
func (s *Server) Received(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.actions {
		if strings.EqualFold(a.Get("Action"), action) {
			n++
		}
	}
	return n
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Broadcast sends msg to every connected client.
func (s *Server) Broadcast(msg *wire.Message) {
	s.BroadcastRaw(wire.EncodeMessage(msg))
}

// BroadcastRaw writes p verbatim to every connected client.
func (s *Server) BroadcastRaw(p []byte) {
	for _, c := range s.snapshot() {
		_ = c.WriteRaw(p)
	}
}

// DropConnections closes every client connection without a Goodbye.
func (s *Server) DropConnections() {
	for _, c := range s.snapshot() {
		c.Close()
	}
}

// Close stops accepting, drops all clients and waits for their goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.ln.Close()
	s.DropConnections()
	s.wg.Wait()
}

func (s *Server) snapshot() []*Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		out = append(out, c)
	}
	return out
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		nc, err := s.ln.Accept()
		if err != nil {
			return
		}
		c := &Conn{nc: nc}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = nc.Close()
			return
		}
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serve(c)
	}
}

func (s *Server) serve(c *Conn) {
	defer s.wg.Done()
	defer func() {
		c.Close()
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	if s.Banner != "" {
		if err := c.WriteRaw([]byte(s.Banner + "\r\n")); err != nil {
			return
		}
	}

	dec := wire.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			for {
				msg, ok := dec.Next()
				if !ok {
					break
				}
				s.dispatch(c, msg)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *Server) dispatch(c *Conn, msg *wire.Message) {
	if msg.Kind != wire.KindAction {
		return
	}
	name := strings.ToLower(msg.Get("Action"))

	s.mu.Lock()
	s.actions = append(s.actions, msg)
	h, ok := s.handlers[name]
	s.mu.Unlock()

	if !ok {
		_ = c.Reply(msg, "Response", "Error", "Message", "Invalid/unknown command")
		return
	}
	h(c, msg)
}

func (s *Server) handleLogin(c *Conn, req *wire.Message) {
	s.mu.Lock()
	ok := req.Get("Username") == s.username && req.Get("Secret") == s.secret
	s.mu.Unlock()

	if !ok {
		_ = c.Reply(req, "Response", "Error", "Message", "Authentication failed")
		return
	}
	_ = c.Reply(req, "Response", "Success", "Message", "Authentication accepted")
	_ = c.Send(Msg("Event", "FullyBooted", "Privilege", "system,all", "Status", "Fully Booted"))
}

func handleLogoff(c *Conn, req *wire.Message) {
	_ = c.Reply(req, "Response", "Goodbye", "Message", "Thanks for all the fish.")
	c.Close()
}

func handlePing(c *Conn, req *wire.Message) {
	_ = c.Reply(req, "Response", "Success", "Ping", "Pong", "Timestamp", "1700000000.000000")
}

// Conn is one accepted client connection.
type Conn struct {
	nc        net.Conn
	wmu       sync.Mutex
	closeOnce sync.Once
}

// Send writes one message.
func (c *Conn) Send(msg *wire.Message) error {
	return c.WriteRaw(wire.EncodeMessage(msg))
}

// Reply answers req: the first key/value pair, then req's ActionID, then
// the remaining pairs.
func (c *Conn) Reply(req *wire.Message, kv ...string) error {
	return c.Send(ReplyTo(req, kv...))
}

// WriteRaw writes p verbatim, for malformed or split frames.
func (c *Conn) WriteRaw(p []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.nc.Write(p)
	return err
}

// Close closes the connection.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { _ = c.nc.Close() })
}

// Msg builds a message from alternating keys and values. The kind follows
// the first key, as on the wire.
func Msg(kv ...string) *wire.Message {
	if len(kv)%2 != 0 {
		panic(errors.New("amitest: odd number of key/value arguments"))
	}
	m := &wire.Message{}
	for i := 0; i < len(kv); i += 2 {
		m.Fields = append(m.Fields, wire.Field{Key: kv[i], Value: kv[i+1]})
	}
	if len(kv) > 0 {
		switch strings.ToLower(kv[0]) {
		case "response":
			m.Kind = wire.KindResponse
		case "event":
			m.Kind = wire.KindEvent
		case "action":
			m.Kind = wire.KindAction
		}
	}
	return m
}

// ReplyTo builds a message correlated to req. See Conn.Reply.
func ReplyTo(req *wire.Message, kv ...string) *wire.Message {
	id := req.ActionID()
	if id == "" || len(kv) < 2 {
		return Msg(kv...)
	}
	out := make([]string, 0, len(kv)+2)
	out = append(out, kv[0], kv[1], "ActionID", id)
	out = append(out, kv[2:]...)
	return Msg(out...)
}

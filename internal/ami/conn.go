// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/amibridge/internal/ami/wire"
)

const readBufferSize = 4096

// session is a single, ephemeral TCP connection to the manager port.
// It is created by Connect and discarded when the read loop ends.
type session struct {
	conn   net.Conn
	reader *bufio.Reader

	readTimeout  time.Duration
	writeTimeout time.Duration

	banner string

	// writes from caller goroutines are serialized; the read loop never
	// takes this lock
	wmu sync.Mutex

	bytesRead    *atomic.Uint64
	bytesWritten *atomic.Uint64

	// closing is set when the caller asked for the session to end, so a
	// read error after that point is not reported as a failure.
	closing   atomic.Bool
	closeOnce sync.Once
	// expectEOF is set before Logoff; the server hangs up after Goodbye.
	expectEOF atomic.Bool

	done chan struct{}
	err  error // cause of termination, set before done is closed
}

func dialSession(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration, read, written *atomic.Uint64) (*session, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	// Configure TCP KeepAlive (for detecting dropped connections)
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetKeepAlive(true)
		_ = tcpConn.SetKeepAlivePeriod(30 * time.Second)
	}

	return &session{
		conn:         conn,
		reader:       bufio.NewReaderSize(conn, readBufferSize),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		bytesRead:    read,
		bytesWritten: written,
		done:         make(chan struct{}),
	}, nil
}

// readBanner consumes the "Asterisk Call Manager/x.y" greeting. A first
// line that already looks like a header is returned so the caller can
// feed it to the decoder.
func (s *session) readBanner(deadline time.Time) ([]byte, error) {
	_ = s.conn.SetReadDeadline(deadline)
	defer func() { _ = s.conn.SetReadDeadline(time.Time{}) }()

	line, err := s.reader.ReadSlice('\n')
	if err != nil && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}
	s.bytesRead.Add(uint64(len(line)))

	text := strings.TrimRight(string(line), "\r\n")
	if strings.Contains(text, ": ") {
		return append([]byte(nil), line...), nil
	}
	s.banner = text
	return nil, nil
}

// write sends one encoded frame.
func (s *session) write(frame []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	n, err := s.conn.Write(frame)
	_ = s.conn.SetWriteDeadline(time.Time{})
	s.bytesWritten.Add(uint64(n))
	if err != nil {
		// Write failed - close the connection to trigger read loop cleanup
		s.close()
		return err
	}
	return nil
}

// readLoop drains the socket until it fails or is closed. Each read is
// bounded by readTimeout; an expired deadline is a normal poll cycle.
// It returns nil when the session was closed on request.
func (s *session) readLoop(dec *wire.Decoder, handle func(*wire.Message)) error {
	buf := make([]byte, readBufferSize)
	for {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		n, err := s.reader.Read(buf)
		if n > 0 {
			s.bytesRead.Add(uint64(n))
			dec.Feed(buf[:n])
			for {
				msg, ok := dec.Next()
				if !ok {
					break
				}
				handle(msg)
			}
		}
		if err == nil {
			continue
		}

		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() && !s.closing.Load() {
			continue
		}
		if s.closing.Load() || s.expectEOF.Load() {
			return nil
		}
		return err
	}
}

// close shuts the socket exactly once.
func (s *session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// finish records the termination cause and releases waiters.
func (s *session) finish(err error) {
	s.err = err
	close(s.done)
}

func (s *session) remoteAddr() string {
	if addr := s.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

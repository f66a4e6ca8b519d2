// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package wire

import (
	"bytes"
	"errors"
	"fmt"
)

// DefaultMaxFrameSize bounds a single frame, including Follows output.
const DefaultMaxFrameSize = 1 << 20

// Decoder accumulates bytes across reads and yields complete messages.
// It is not safe for concurrent use; the read loop owns it.
type Decoder struct {
	buf []byte

	// MaxFrameSize caps the bytes buffered for one frame. A frame that
	// grows past it is reported as malformed and discarded up to its
	// terminating blank line. Zero means DefaultMaxFrameSize.
	MaxFrameSize int

	// OnMalformed is called for every skipped line and for frames that
	// carried no field or were too large. Optional.
	OnMalformed func(line string)

	// scan is where the terminator search resumes, so a frame delivered
	// in small pieces is not rescanned from the start.
	scan       int
	content    bool
	discarding bool
}

// NewDecoder returns an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 4096)}
}

// Feed appends raw bytes. p may be reused by the caller afterwards.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered reports how many bytes are waiting for a terminator.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Next returns the next complete message, or (nil, false) when more input
// is needed. Malformed frames are reported and skipped.
func (d *Decoder) Next() (*Message, bool) {
	for {
		if d.discarding && !d.skipDiscarded() {
			return nil, false
		}

		end := d.frameEnd()
		if end < 0 {
			if len(d.buf) > d.maxFrame() {
				d.report(fmt.Sprintf("%v: frame exceeds %d bytes", ErrMalformed, d.maxFrame()))
				d.buf = d.buf[:0]
				d.rewind()
				d.discarding = true
			}
			return nil, false
		}
		if end > d.maxFrame() {
			d.report(fmt.Sprintf("%v: frame exceeds %d bytes", ErrMalformed, d.maxFrame()))
			d.buf = d.buf[end:]
			d.rewind()
			continue
		}

		msg, n, skipped, err := decode(d.buf[:end])
		if errors.Is(err, ErrIncomplete) {
			// frameEnd and decode disagree; wait for more input.
			return nil, false
		}
		d.buf = d.buf[n:]
		d.rewind()
		for _, line := range skipped {
			d.report(line)
		}
		if errors.Is(err, ErrMalformed) {
			if len(skipped) == 0 {
				d.report("")
			}
			continue
		}
		return msg, true
	}
}

// frameEnd returns the offset just past the blank line that terminates
// the buffered frame, or -1. Leading blank lines do not terminate.
func (d *Decoder) frameEnd() int {
	for {
		idx := bytes.IndexByte(d.buf[d.scan:], '\n')
		if idx < 0 {
			return -1
		}
		line := d.buf[d.scan : d.scan+idx]
		d.scan += idx + 1
		if len(bytes.TrimRight(line, "\r")) == 0 {
			if d.content {
				return d.scan
			}
			continue
		}
		d.content = true
	}
}

// skipDiscarded drops input until the blank line ending an oversized
// frame. It reports whether normal decoding can resume.
func (d *Decoder) skipDiscarded() bool {
	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			if len(d.buf) > d.maxFrame() {
				d.buf = d.buf[:0]
			}
			return false
		}
		line := d.buf[:idx]
		d.buf = d.buf[idx+1:]
		if len(bytes.TrimRight(line, "\r")) == 0 {
			d.discarding = false
			d.rewind()
			return true
		}
	}
}

func (d *Decoder) rewind() {
	d.scan = 0
	d.content = false
}

func (d *Decoder) maxFrame() int {
	if d.MaxFrameSize > 0 {
		return d.MaxFrameSize
	}
	return DefaultMaxFrameSize
}

func (d *Decoder) report(line string) {
	if d.OnMalformed != nil {
		d.OnMalformed(line)
	}
}

// Reset drops any buffered bytes, e.g. after a reconnect.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
	d.rewind()
	d.discarding = false
}

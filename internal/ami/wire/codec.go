// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package wire implements the AMI frame codec: "Key: Value" lines terminated
// by an empty line, in either CRLF or bare LF form.
package wire

import (
	"bytes"
	"errors"
	"strings"
)

var (
	// ErrIncomplete means no frame terminator has arrived yet. Nothing was
	// consumed; append more bytes and retry.
	ErrIncomplete = errors.New("wire: incomplete frame")
	// ErrMalformed means a terminated frame carried no usable field. The
	// reported byte count must still be consumed.
	ErrMalformed = errors.New("wire: malformed frame")
)

const (
	crlf       = "\r\n"
	endCommand = "--END COMMAND--"
)

// Encode serializes an action. ActionID follows the Action line.
func Encode(a *Action) []byte {
	var b bytes.Buffer
	b.Grow(64 + 32*len(a.fields))
	writeLine(&b, "Action", a.Name)
	if a.ID != "" {
		writeLine(&b, "ActionID", a.ID)
	}
	for _, f := range a.fields {
		writeLine(&b, f.Key, f.Value)
	}
	b.WriteString(crlf)
	return b.Bytes()
}

// EncodeMessage serializes a decoded message back to wire form. Used by
// servers and test doubles to emit responses and events.
func EncodeMessage(m *Message) []byte {
	var b bytes.Buffer
	for _, f := range m.Fields {
		writeLine(&b, f.Key, f.Value)
	}
	b.WriteString(crlf)
	return b.Bytes()
}

func writeLine(b *bytes.Buffer, key, value string) {
	// A stray line break would split the frame on the server side.
	value = strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString(crlf)
}

// Decode parses the first complete frame in buf.
//
// It returns ErrIncomplete (n == 0) when buf holds no terminated frame, and
// ErrMalformed with the consumed length when a terminated frame carries no
// field at all. Lines without a colon are skipped, except in a Follows
// response where every line after the headers is kept verbatim as Output.
func Decode(buf []byte) (*Message, int, error) {
	msg, n, _, err := decode(buf)
	return msg, n, err
}

// decode also returns the skipped lines so the Decoder can report them.
func decode(buf []byte) (*Message, int, []string, error) {
	var (
		msg     = &Message{}
		skipped []string
		pos     int
		started bool
		follows bool
		output  bool
	)
	for {
		idx := bytes.IndexByte(buf[pos:], '\n')
		if idx < 0 {
			return nil, 0, nil, ErrIncomplete
		}
		raw := buf[pos : pos+idx]
		pos += idx + 1
		line := string(bytes.TrimRight(raw, "\r"))

		if line == "" {
			if !started {
				// Leading blank lines belong to no frame.
				continue
			}
			break
		}
		started = true

		if output {
			if line != endCommand {
				msg.Fields = append(msg.Fields, Field{Key: "Output", Value: line})
			}
			continue
		}

		key, value, ok := splitLine(line)
		if follows && (!ok || !isFollowsHeader(key)) {
			// Everything after the Follows headers is raw command output,
			// colons included.
			output = true
			if line != endCommand {
				msg.Fields = append(msg.Fields, Field{Key: "Output", Value: line})
			}
			continue
		}
		if !ok {
			skipped = append(skipped, line)
			continue
		}
		if len(msg.Fields) == 0 {
			msg.Kind = kindOf(key)
			follows = msg.Kind == KindResponse && strings.EqualFold(value, "Follows")
		}
		msg.Fields = append(msg.Fields, Field{Key: key, Value: value})
	}

	if len(msg.Fields) == 0 {
		return nil, pos, skipped, ErrMalformed
	}
	return msg, pos, skipped, nil
}

func isFollowsHeader(key string) bool {
	switch strings.ToLower(key) {
	case "privilege", "actionid", "message":
		return true
	}
	return false
}

func splitLine(line string) (string, string, bool) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}

func kindOf(key string) Kind {
	switch {
	case strings.EqualFold(key, "Response"):
		return KindResponse
	case strings.EqualFold(key, "Event"):
		return KindEvent
	case strings.EqualFold(key, "Action"):
		return KindAction
	default:
		return KindUnknown
	}
}

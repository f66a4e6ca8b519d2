// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ami

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrConnection      = errors.New("ami: connection failed")
	ErrAuth            = errors.New("ami: authentication rejected")
	ErrTimeout         = errors.New("ami: request timed out")
	ErrDisconnected    = errors.New("ami: disconnected")
	ErrInvalidArgument = errors.New("ami: invalid argument")
)

var (
	errDuplicateID = errors.New("action id already outstanding")
	errEmptyID     = errors.New("action id is blank")
	errNoAction    = errors.New("action name is empty")
	errSessionLost = errors.New("session closed during login")
)

// Error wraps a sentinel with the failing operation and, where known, the
// action it concerns. errors.Is matches both the sentinel and Err.
type Error struct {
	Sentinel error
	Op       string
	ActionID string
	Err      error // lower-level cause (net.Error, context error, server message)
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Sentinel)
	if e.ActionID != "" {
		msg = fmt.Sprintf("%s (action %s)", msg, e.ActionID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

func newError(sentinel error, op, actionID string, cause error) *Error {
	return &Error{Sentinel: sentinel, Op: op, ActionID: actionID, Err: cause}
}

// outcomeOf maps a completion error to the metrics outcome label.
func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrDisconnected):
		return "disconnected"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid"
	default:
		return "canceled"
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"

	"github.com/ManuGH/amibridge/internal/ami"
)

// SessionSource is the slice of *ami.Client the AMI checker needs.
type SessionSource interface {
	State() ami.State
	Err() error
	Banner() string
}

// AMIChecker reports the manager session. Anything but Connected is
// unhealthy so readiness follows the session.
type AMIChecker struct {
	client SessionSource
}

// NewAMIChecker creates a checker for the AMI session state
func NewAMIChecker(client SessionSource) *AMIChecker {
	return &AMIChecker{client: client}
}

func (c *AMIChecker) Name() string {
	return "ami"
}

func (c *AMIChecker) Check(_ context.Context) CheckResult {
	state := c.client.State()
	switch state {
	case ami.StateConnected:
		return CheckResult{
			Status:  StatusHealthy,
			Message: c.client.Banner(),
		}
	case ami.StateConnecting, ami.StateAuthenticating:
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: state.String(),
		}
	}

	res := CheckResult{
		Status:  StatusUnhealthy,
		Message: "not connected",
	}
	if err := c.client.Err(); err != nil {
		res.Error = err.Error()
	}
	return res
}

// FuncChecker adapts a plain function. A nil error is healthy; degraded
// components return an error wrapped by Degraded.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) error
}

// NewFuncChecker creates a checker backed by fn
func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, check: fn}
}

func (c *FuncChecker) Name() string {
	return c.name
}

func (c *FuncChecker) Check(ctx context.Context) CheckResult {
	err := c.check(ctx)
	if err == nil {
		return CheckResult{Status: StatusHealthy}
	}
	if d, ok := err.(degradedError); ok {
		return CheckResult{Status: StatusDegraded, Message: d.msg}
	}
	return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
}

type degradedError struct{ msg string }

func (e degradedError) Error() string { return e.msg }

// Degraded marks a FuncChecker outcome as degraded rather than unhealthy.
func Degraded(format string, args ...any) error {
	return degradedError{msg: fmt.Sprintf(format, args...)}
}

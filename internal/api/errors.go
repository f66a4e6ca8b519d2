// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/amibridge/internal/ami"
)

// errorResponse is the body of every non-2xx answer.
type errorResponse struct {
	Error    string         `json:"error"`
	Code     string         `json:"code"`
	ActionID string         `json:"actionId,omitempty"`
	Result   map[string]any `json:"result,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBadRequest writes a 400 for malformed input
func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Code: "invalid_argument"})
}

// statusFor maps a client error onto an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ami.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, ami.ErrDisconnected), errors.Is(err, ami.ErrConnection):
		return http.StatusServiceUnavailable, "disconnected"
	case errors.Is(err, ami.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		// client went away; the status is never seen
		return 499, "canceled"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ManuGH/amibridge/internal/log"
)

type statusResponse struct {
	Version        string `json:"version,omitempty"`
	State          string `json:"state"`
	Banner         string `json:"banner,omitempty"`
	Pending        int    `json:"pending"`
	Listeners      int    `json:"listeners"`
	ActionsSent    uint64 `json:"actionsSent"`
	EventsReceived uint64 `json:"eventsReceived"`
	BytesRead      uint64 `json:"bytesRead"`
	BytesWritten   uint64 `json:"bytesWritten"`
}

// GET /api/v1/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.client.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Version:        s.cfg.Version,
		State:          st.State.String(),
		Banner:         s.client.Banner(),
		Pending:        st.Pending,
		Listeners:      st.Listeners,
		ActionsSent:    st.ActionsSent,
		EventsReceived: st.EventsReceived,
		BytesRead:      st.BytesRead,
		BytesWritten:   st.BytesWritten,
	})
}

// actionRequest is the body of POST /api/v1/actions.
type actionRequest struct {
	Action   string            `json:"action"`
	Fields   map[string]string `json:"fields,omitempty"`
	ActionID string            `json:"actionId,omitempty"`
}

// POST /api/v1/actions
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeBadRequest(w, "request body is empty")
			return
		}
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Action) == "" {
		writeBadRequest(w, "action is required")
		return
	}

	ctx := r.Context()
	if req.ActionID != "" {
		ctx = log.ContextWithActionID(ctx, req.ActionID)
	}
	logger := log.WithComponentFromContext(ctx, "api")

	res, err := s.client.Send(ctx, req.Action, req.Fields, req.ActionID)
	if err != nil {
		code, label := statusFor(err)
		body := errorResponse{Error: err.Error(), Code: label}
		if res != nil {
			body.ActionID = res.ActionID
			if res.Response != nil || len(res.Events) > 0 {
				body.Result = res.Map()
			}
		}
		logger.Warn().
			Err(err).
			Str(log.FieldAction, req.Action).
			Int("status", code).
			Msg("action failed")
		writeJSON(w, code, body)
		return
	}

	logger.Debug().
		Str(log.FieldAction, req.Action).
		Str(log.FieldActionID, res.ActionID).
		Bool("success", res.IsSuccess()).
		Msg("action completed")
	writeJSON(w, http.StatusOK, res.Map())
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldActionID  = "action_id"
	FieldAction    = "action"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldEventType = "event_type"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"

	// Network fields
	FieldRemoteAddr = "remote_addr"
	FieldBanner     = "banner"
)

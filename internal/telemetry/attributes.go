// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys used on AMI and HTTP spans.
const (
	HTTPMethodKey     = "http.method"
	HTTPRouteKey      = "http.route"
	HTTPStatusCodeKey = "http.status_code"

	AMIActionKey     = "ami.action"
	AMIActionIDKey   = "ami.action_id"
	AMIResponseKey   = "ami.response"
	AMIEventCountKey = "ami.event_count"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ActionAttributes describes an outbound action. Empty values are omitted.
func ActionAttributes(action, actionID string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if action != "" {
		attrs = append(attrs, attribute.String(AMIActionKey, strings.ToLower(action)))
	}
	if actionID != "" {
		attrs = append(attrs, attribute.String(AMIActionIDKey, actionID))
	}
	return attrs
}

// ResultAttributes describes the outcome of an action.
func ResultAttributes(response string, events int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.Int(AMIEventCountKey, events)}
	if response != "" {
		attrs = append(attrs, attribute.String(AMIResponseKey, response))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}

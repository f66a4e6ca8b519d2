// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestHTTPAttributes(t *testing.T) {
	attrs := HTTPAttributes("POST", "/api/v1/actions", 200)

	if len(attrs) != 3 {
		t.Fatalf("Expected 3 attributes, got %d", len(attrs))
	}
	verifyAttribute(t, attrs, HTTPMethodKey, "POST")
	verifyAttribute(t, attrs, HTTPRouteKey, "/api/v1/actions")
	verifyIntAttribute(t, attrs, HTTPStatusCodeKey, 200)
}

func TestActionAttributes(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		actionID string
		wantLen  int
	}{
		{name: "all fields", action: "QueueStatus", actionID: "q1", wantLen: 2},
		{name: "no id yet", action: "Ping", wantLen: 1},
		{name: "empty", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := ActionAttributes(tt.action, tt.actionID)
			if len(attrs) != tt.wantLen {
				t.Errorf("Expected %d attributes, got %d", tt.wantLen, len(attrs))
			}
			if tt.action != "" {
				verifyAttribute(t, attrs, AMIActionKey, strings.ToLower(tt.action))
			}
			if tt.actionID != "" {
				verifyAttribute(t, attrs, AMIActionIDKey, tt.actionID)
			}
		})
	}
}

func TestResultAttributes(t *testing.T) {
	attrs := ResultAttributes("Success", 3)
	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyIntAttribute(t, attrs, AMIEventCountKey, 3)
	verifyAttribute(t, attrs, AMIResponseKey, "Success")

	if got := ResultAttributes("", 0); len(got) != 1 {
		t.Errorf("Expected only the event count without a response, got %d attributes", len(got))
	}
}

func TestErrorAttributes(t *testing.T) {
	attrs := ErrorAttributes("timeout")

	if len(attrs) != 2 {
		t.Fatalf("Expected 2 attributes, got %d", len(attrs))
	}
	verifyBoolAttribute(t, attrs, ErrorKey, true)
	verifyAttribute(t, attrs, ErrorTypeKey, "timeout")
}

func verifyAttribute(t *testing.T, attrs []attribute.KeyValue, key, expectedValue string) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsString() != expectedValue {
				t.Errorf("Expected %s=%s, got %s", key, expectedValue, attr.Value.AsString())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyIntAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue int) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsInt64() != int64(expectedValue) {
				t.Errorf("Expected %s=%d, got %d", key, expectedValue, attr.Value.AsInt64())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

func verifyBoolAttribute(t *testing.T, attrs []attribute.KeyValue, key string, expectedValue bool) {
	t.Helper()
	for _, attr := range attrs {
		if string(attr.Key) == key {
			if attr.Value.AsBool() != expectedValue {
				t.Errorf("Expected %s=%t, got %t", key, expectedValue, attr.Value.AsBool())
			}
			return
		}
	}
	t.Errorf("Attribute %s not found", key)
}

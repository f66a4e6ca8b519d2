// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"testing"
	"time"
)

func TestValidator_Port(t *testing.T) {
	tests := []struct {
		name    string
		port    int
		wantErr bool
	}{
		{"valid port", 5038, false},
		{"min port", 1, false},
		{"max port", 65535, false},
		{"zero", 0, true},
		{"negative", -1, true},
		{"too large", 65536, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Port("Port", tt.port)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("Port(%d) error = %v, want %v", tt.port, got, tt.wantErr)
			}
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{":8080", false},
		{"127.0.0.1:8080", false},
		{"[::1]:0", false},
		{"8080", true},
		{"localhost:http", true},
		{":70000", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("ListenAddr", tt.addr)
			if got := !v.IsValid(); got != tt.wantErr {
				t.Errorf("ListenAddr(%q) error = %v, want %v", tt.addr, got, tt.wantErr)
			}
		})
	}
}

func TestValidator_Scalars(t *testing.T) {
	v := New()
	v.NotEmpty("Host", "  ")
	v.PositiveDuration("ReadTimeout", 0)
	v.NonNegative("RateLimit", -1)
	v.OneOf("Exporter", "zipkin", []string{"noop", "grpc", "http"})
	v.OneOf("Level", "INFO", LogLevels)
	v.PositiveDuration("ConnectTimeout", time.Second)
	v.Custom("Secret", "x", func(any) error { return errors.New("too short") })

	errs := v.Errors()
	if len(errs) != 5 {
		t.Fatalf("expected 5 errors, got %d: %v", len(errs), errs)
	}
	want := []string{"Host", "ReadTimeout", "RateLimit", "Exporter", "Secret"}
	for i, field := range want {
		if errs[i].Field != field {
			t.Errorf("error %d field = %q, want %q", i, errs[i].Field, field)
		}
	}
}

func TestValidationError(t *testing.T) {
	v := New()
	if v.Err() != nil {
		t.Fatal("expected nil error for a valid validator")
	}

	v.AddError("Port", "port must be between 1 and 65535, got 0", 0)
	if got := v.Err().Error(); got != "validation failed for Port: port must be between 1 and 65535, got 0" {
		t.Errorf("unexpected single error message: %q", got)
	}

	v.AddError("Host", "cannot be empty", "")
	err := v.Err()
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors()) != 2 {
		t.Errorf("expected 2 errors, got %d", len(ve.Errors()))
	}
	want := "validation failed for Port: port must be between 1 and 65535, got 0; validation failed for Host: cannot be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLogLevel_IsValid(t *testing.T) {
	for _, l := range LogLevels {
		if !LogLevel(l).IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if LogLevel("verbose").IsValid() {
		t.Error("verbose should not be valid")
	}
}

package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sublingo/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "dispatch", "primary-1", "call failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"dispatch", "primary-1", "call failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected default detail, got %q", err.Error())
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{context.Canceled, "canceled"},
		{fmt.Errorf("race: %w", context.DeadlineExceeded), "timeout"},
		{services.Wrap(services.ErrCountMismatch, "validate", "", "expected 2 got 3", nil), "count_mismatch"},
		{services.Wrap(services.ErrResidualSourceScript, "validate", "", "line 1", nil), "residual_source_script"},
		{services.Wrap(services.ErrMalformedResponse, "validate", "", "not an array", nil), "malformed_response"},
		{services.Wrap(services.ErrTransport, "gemini", "", "", errors.New("dial")), "transport"},
		{services.Wrap(services.ErrConfiguration, "config", "", "", nil), "configuration"},
		{errors.New("mystery"), "unknown"},
	}
	for _, tc := range cases {
		if got := services.ErrorKind(tc.err); got != tc.want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIsCallFailure(t *testing.T) {
	if services.IsCallFailure(nil) {
		t.Fatal("nil must not be a call failure")
	}
	if services.IsCallFailure(fmt.Errorf("stop: %w", context.Canceled)) {
		t.Fatal("cancellation must not be treated as a call failure")
	}
	if !services.IsCallFailure(services.Wrap(services.ErrTransport, "", "", "", nil)) {
		t.Fatal("transport errors are call failures")
	}
}

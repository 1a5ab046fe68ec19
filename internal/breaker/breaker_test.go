// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package breaker

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/civitas/internal/metrics"
)

var errUpstream = errors.New("upstream down")

func TestExecute_Success(t *testing.T) {
	t.Parallel()

	b := New("test-success", Settings{})
	got, err := Execute(b, func() (int, error) { return 42, nil })
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != 42 {
		t.Errorf("Execute() = %d, want 42", got)
	}
	if b.State() != "closed" {
		t.Errorf("State() = %q, want closed", b.State())
	}
	if n := testutil.ToFloat64(metrics.CircuitBreakerRequests.WithLabelValues("test-success", "success")); n != 1 {
		t.Errorf("success requests = %v, want 1", n)
	}
}

func TestExecute_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := New("test-open", Settings{MinRequests: 3, FailureRatio: 0.5, Timeout: time.Hour})
	for i := 0; i < 3; i++ {
		if _, err := Execute(b, func() (string, error) { return "", errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: Execute() error = %v, want errUpstream", i, err)
		}
	}

	if b.State() != "open" {
		t.Fatalf("State() = %q, want open", b.State())
	}

	called := false
	_, err := Execute(b, func() (string, error) {
		called = true
		return "ok", nil
	})
	if !IsRejection(err) {
		t.Errorf("Execute() on open circuit error = %v, want rejection", err)
	}
	if called {
		t.Error("open circuit invoked the wrapped function")
	}
	if n := testutil.ToFloat64(metrics.CircuitBreakerState.WithLabelValues("test-open")); n != 2 {
		t.Errorf("state gauge = %v, want 2 (open)", n)
	}
}

func TestIsRejection(t *testing.T) {
	t.Parallel()
	if IsRejection(errUpstream) {
		t.Error("IsRejection(errUpstream) = true, want false")
	}
	if IsRejection(nil) {
		t.Error("IsRejection(nil) = true, want false")
	}
}

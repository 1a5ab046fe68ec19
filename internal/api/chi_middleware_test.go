// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/civitas/internal/config"
	"github.com/tomtom215/civitas/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	t.Parallel()
	m := NewChiMiddleware(nil)
	if len(m.config.CORSAllowedOrigins) != 0 {
		t.Errorf("CORSAllowedOrigins = %v, want []", m.config.CORSAllowedOrigins)
	}
	if m.config.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", m.config.CORSMaxAge)
	}
}

func TestNewChiMiddlewareFromConfig(t *testing.T) {
	t.Parallel()
	m := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		CORSOrigins:     []string{"https://parks.example.gov"},
		RateLimitReqs:   200,
		RateLimitWindow: 2 * time.Minute,
	})
	if len(m.config.CORSAllowedOrigins) != 1 || m.config.CORSAllowedOrigins[0] != "https://parks.example.gov" {
		t.Errorf("CORSAllowedOrigins = %v, want [https://parks.example.gov]", m.config.CORSAllowedOrigins)
	}
	if m.config.RateLimitRequests != 200 || m.config.RateLimitWindow != 2*time.Minute {
		t.Errorf("rate limit = %d/%v, want 200/2m", m.config.RateLimitRequests, m.config.RateLimitWindow)
	}
}

func TestChiMiddleware_CORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		allowed   []string
		method    string
		origin    string
		wantAllow string
	}{
		{"wildcard", []string{"*"}, http.MethodGet, "https://example.com", "*"},
		{"specific origin", []string{"https://allowed.com"}, http.MethodGet, "https://allowed.com", "https://allowed.com"},
		{"disallowed origin", []string{"https://allowed.com"}, http.MethodGet, "https://evil.com", ""},
		{"preflight", []string{"*"}, http.MethodOptions, "https://example.com", "*"},
		{"preflight disallowed", []string{"https://allowed.com"}, http.MethodOptions, "https://evil.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewChiMiddleware(&ChiMiddlewareConfig{
				CORSAllowedOrigins: tt.allowed,
				CORSAllowedMethods: []string{"GET", "PATCH"},
			})
			handler := m.CORS()(okHandler())

			req := httptest.NewRequest(tt.method, "/api/v1/venues", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", "PATCH")
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestChiMiddleware_RateLimit(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute, RateLimitDisabled: true})
		handler := m.RateLimit()(okHandler())
		for i := 0; i < 5; i++ {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			if w.Code != http.StatusOK {
				t.Fatalf("request %d = %d, want 200", i, w.Code)
			}
		}
	})

	t.Run("enforced per IP", func(t *testing.T) {
		t.Parallel()
		m := NewChiMiddleware(&ChiMiddlewareConfig{RateLimitRequests: 2, RateLimitWindow: time.Minute})
		handler := m.RateLimit()(okHandler())

		send := func(ip string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = ip + ":1234"
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			return w
		}

		for i := 0; i < 2; i++ {
			if w := send("10.0.0.1"); w.Code != http.StatusOK {
				t.Fatalf("request %d = %d, want 200", i, w.Code)
			}
		}
		w := send("10.0.0.1")
		if w.Code != http.StatusTooManyRequests {
			t.Errorf("third request = %d, want 429", w.Code)
		}
		if w.Header().Get("Content-Type") != "application/json" {
			t.Errorf("429 Content-Type = %q, want application/json", w.Header().Get("Content-Type"))
		}
		if w := send("10.0.0.2"); w.Code != http.StatusOK {
			t.Errorf("other IP = %d, want 200", w.Code)
		}
	})
}

func TestRequestIDWithLogging(t *testing.T) {
	t.Parallel()

	var requestID string
	handler := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.TraceFrom(r.Context()).RequestID
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if requestID != "req-123" {
		t.Errorf("request id = %q, want req-123", requestID)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID response header = %q, want req-123", got)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if requestID == "" || requestID == "req-123" {
		t.Errorf("generated request id = %q, want a fresh id", requestID)
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()
	if got := sanitizeLogValue("line1\nline2\x7f"); got != `line1\x0aline2\x7f` {
		t.Errorf("sanitizeLogValue() = %q, want escaped control characters", got)
	}
}

// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Level != "info" {
		t.Errorf("DefaultConfig().Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("DefaultConfig().Format = %q, want json", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("DefaultConfig().Timestamp = false, want true")
	}
}

func TestInit(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Version: "1.2.3", Output: &buf})
	defer Init(DefaultConfig())

	cl := WithComponent("venue_registry")
	cl.Info().Msg("venues loaded")

	out := buf.String()
	if !strings.Contains(out, "venues loaded") {
		t.Errorf("output missing message: %s", out)
	}
	for _, field := range []string{`"component":"venue_registry"`, `"service":"civitas"`, `"version":"1.2.3"`, `"time":`} {
		if !strings.Contains(out, field) {
			t.Errorf("output missing %s: %s", field, out)
		}
	}
}

func TestNew_LeavesGlobalLogger(t *testing.T) {
	var global, local bytes.Buffer
	Init(Config{Level: "info", Output: &global})
	defer Init(DefaultConfig())

	l := New(Config{Level: "info", Output: &local})
	l.Info().Msg("local only")

	if global.Len() != 0 {
		t.Errorf("global logger received output: %s", global.String())
	}
	if strings.Contains(local.String(), `"time":`) {
		t.Errorf("New without Timestamp wrote a time field: %s", local.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	t.Parallel()

	if !ValidLevel("warn") {
		t.Error("ValidLevel(warn) = false, want true")
	}
	if ValidLevel("loud") {
		t.Error("ValidLevel(loud) = true, want false")
	}
}

func TestCtx_AddsTraceIDs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewTestLogger(&buf))
	ctx = WithRequestID(ctx, "req-123")
	ctx = WithNewCycle(ctx)

	Ctx(ctx).Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-123"`) {
		t.Errorf("output missing request_id: %s", out)
	}
	if id := TraceFrom(ctx).CycleID; id == "" || !strings.Contains(out, `"cycle_id":"`+id+`"`) {
		t.Errorf("output missing cycle_id %q: %s", id, out)
	}
}

func TestCtx_NoTrace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Ctx(WithLogger(context.Background(), NewTestLogger(&buf))).Info().Msg("plain")

	if out := buf.String(); strings.Contains(out, "request_id") || strings.Contains(out, "cycle_id") {
		t.Errorf("untraced output has trace ids: %s", out)
	}
}

func TestNewIDs(t *testing.T) {
	t.Parallel()

	if got := len(NewCycleID()); got != 8 {
		t.Errorf("len(NewCycleID()) = %d, want 8", got)
	}
	if got := len(NewRequestID()); got != 36 {
		t.Errorf("len(NewRequestID()) = %d, want 36", got)
	}
	if NewRequestID() == NewRequestID() {
		t.Error("NewRequestID() returned duplicate ids")
	}
}

func TestWithNewCycle_KeepsRequestID(t *testing.T) {
	t.Parallel()

	if got := TraceFrom(context.Background()); got != (Trace{}) {
		t.Errorf("TraceFrom(empty) = %+v, want zero", got)
	}
	ctx := WithNewCycle(WithRequestID(context.Background(), "req-1"))
	if got := TraceFrom(ctx).RequestID; got != "req-1" {
		t.Errorf("RequestID after WithNewCycle = %q, want req-1", got)
	}
}

func TestSlogLogger_WritesThroughZerolog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSlogLoggerFrom(zerolog.New(&buf))

	logger.WithGroup("supervisor").With("service", "weather").Warn("service restarted",
		"attempt", 2, slog.Group("backoff", "seconds", 15))

	out := buf.String()
	for _, want := range []string{
		`"level":"warn"`,
		`"supervisor.service":"weather"`,
		`"supervisor.attempt":2`,
		`"supervisor.backoff.seconds":15`,
		`"message":"service restarted"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogLogger_Enabled(t *testing.T) {
	t.Parallel()

	logger := NewSlogLoggerFrom(zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel))
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Enabled(Info) = true for warn logger, want false")
	}
	if !logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Enabled(Error) = false for warn logger, want true")
	}
}

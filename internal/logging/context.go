// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Trace identifies the unit of work a log line belongs to. HTTP requests
// carry a RequestID; background cycles (a sensor refresh, an insight run)
// carry a short CycleID.
type Trace struct {
	RequestID string
	CycleID   string
}

type traceKey struct{}

type loggerKey struct{}

// NewRequestID returns a full UUID.
func NewRequestID() string {
	return uuid.NewString()
}

// NewCycleID returns an 8 character id, enough to tell cycles apart in logs.
func NewCycleID() string {
	return uuid.NewString()[:8]
}

// WithTrace stores t in ctx, replacing any trace already there.
func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// TraceFrom returns the trace in ctx, or the zero Trace.
func TraceFrom(ctx context.Context) Trace {
	t, _ := ctx.Value(traceKey{}).(Trace)
	return t
}

// WithRequestID sets the request id of the trace in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	t := TraceFrom(ctx)
	t.RequestID = id
	return WithTrace(ctx, t)
}

// WithNewCycle starts a background cycle with a fresh cycle id.
func WithNewCycle(ctx context.Context) context.Context {
	t := TraceFrom(ctx)
	t.CycleID = NewCycleID()
	return WithTrace(ctx, t)
}

// WithLogger stores a logger that Ctx uses instead of the global one.
//
//nolint:gocritic // zerolog.Logger is passed by value throughout zerolog
func WithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Ctx returns the context logger (or the global logger) with the trace ids
// of ctx attached.
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Periodic cycle failed")
func Ctx(ctx context.Context) *zerolog.Logger {
	base, ok := ctx.Value(loggerKey{}).(zerolog.Logger)
	if !ok {
		base = Logger()
	}
	t := TraceFrom(ctx)
	if t.RequestID == "" && t.CycleID == "" {
		return &base
	}
	lc := base.With()
	if t.RequestID != "" {
		lc = lc.Str("request_id", t.RequestID)
	}
	if t.CycleID != "" {
		lc = lc.Str("cycle_id", t.CycleID)
	}
	l := lc.Logger()
	return &l
}

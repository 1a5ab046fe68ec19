// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// slogBridge is an slog.Handler that writes through a zerolog logger.
// Attributes added with WithAttrs are folded into the logger's context, and
// open groups become a dotted key prefix.
type slogBridge struct {
	logger zerolog.Logger
	prefix string
}

// NewSlogLogger returns an *slog.Logger that writes through the global
// logger. sutureslog and watermill take their loggers this way.
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg)
func NewSlogLogger() *slog.Logger {
	return NewSlogLoggerFrom(Logger())
}

// NewSlogLoggerFrom returns an *slog.Logger writing through l.
//
//nolint:gocritic // zerolog.Logger is passed by value throughout zerolog
func NewSlogLoggerFrom(l zerolog.Logger) *slog.Logger {
	return slog.New(&slogBridge{logger: l})
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return zerologLevel(level) >= b.logger.GetLevel()
}

//nolint:gocritic // slog.Handler takes the record by value
func (b *slogBridge) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]interface{}, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		flattenAttr(fields, b.prefix, a)
		return true
	})
	ev := b.logger.WithLevel(zerologLevel(r.Level))
	if len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	ev.Msg(r.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return b
	}
	fields := make(map[string]interface{}, len(attrs))
	for _, a := range attrs {
		flattenAttr(fields, b.prefix, a)
	}
	return &slogBridge{logger: b.logger.With().Fields(fields).Logger(), prefix: b.prefix}
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	return &slogBridge{logger: b.logger, prefix: b.prefix + name + "."}
}

// flattenAttr writes a into dst under prefix. Groups recurse with their key
// appended; a group with an empty key is inlined.
func flattenAttr(dst map[string]interface{}, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p = prefix + a.Key + "."
		}
		for _, ga := range v.Group() {
			flattenAttr(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	dst[prefix+a.Key] = v.Any()
}

func zerologLevel(l slog.Level) zerolog.Level {
	switch {
	case l >= slog.LevelError:
		return zerolog.ErrorLevel
	case l >= slog.LevelWarn:
		return zerolog.WarnLevel
	case l >= slog.LevelInfo:
		return zerolog.InfoLevel
	case l >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// The supervisor stack (suture via sutureslog) speaks slog. zerologHandler
// bridges those records onto the zerolog backend so supervision events land
// in the same stream, with the same fields, as everything else.
//
// Group nesting is flattened into dotted keys: WithGroup("suture") plus an
// "event" attr emits "suture.event".
type zerologHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
	prefix string
}

// NewSlogLogger returns an *slog.Logger backed by the process-wide zerolog
// logger.
//
//	tree, err := supervisor.NewTree(logging.NewSlogLogger(), cfg)
func NewSlogLogger() *slog.Logger {
	return NewSlogLoggerWithLogger(Logger())
}

// NewSlogLoggerWithLogger returns an *slog.Logger writing through the given
// zerolog logger. Tests use this to capture bridged output.
//
//nolint:gocritic // hugeParam: zerolog loggers are value types
func NewSlogLoggerWithLogger(logger zerolog.Logger) *slog.Logger {
	return slog.New(&zerologHandler{logger: logger})
}

func (h *zerologHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= zerologLevel(level)
}

//nolint:gocritic // hugeParam: the slog.Handler contract passes records by value
func (h *zerologHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.event(record.Level)

	for _, attr := range h.attrs {
		event = appendAttr(event, attr, h.prefix)
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = appendAttr(event, attr, h.prefix)
		return true
	})

	event.Msg(record.Message)
	return nil
}

func (h *zerologHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &zerologHandler{logger: h.logger, attrs: merged, prefix: h.prefix}
}

func (h *zerologHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &zerologHandler{logger: h.logger, attrs: h.attrs, prefix: h.prefix + name + "."}
}

// event opens a zerolog event at the closest matching severity. Thresholds
// rather than exact matches so custom in-between slog levels round down to
// the nearest standard one.
func (h *zerologHandler) event(level slog.Level) *zerolog.Event {
	switch {
	case level >= slog.LevelError:
		return h.logger.Error()
	case level >= slog.LevelWarn:
		return h.logger.Warn()
	case level >= slog.LevelInfo:
		return h.logger.Info()
	default:
		return h.logger.Debug()
	}
}

// appendAttr writes one slog attribute under the accumulated group prefix.
func appendAttr(event *zerolog.Event, attr slog.Attr, prefix string) *zerolog.Event {
	value := attr.Value.Resolve()
	key := prefix + attr.Key

	switch value.Kind() {
	case slog.KindString:
		return event.Str(key, value.String())
	case slog.KindInt64:
		return event.Int64(key, value.Int64())
	case slog.KindUint64:
		return event.Uint64(key, value.Uint64())
	case slog.KindFloat64:
		return event.Float64(key, value.Float64())
	case slog.KindBool:
		return event.Bool(key, value.Bool())
	case slog.KindDuration:
		return event.Dur(key, value.Duration())
	case slog.KindTime:
		return event.Time(key, value.Time())
	case slog.KindGroup:
		// Inline groups with an empty key per slog semantics.
		p := prefix
		if attr.Key != "" {
			p = key + "."
		}
		for _, ga := range value.Group() {
			event = appendAttr(event, ga, p)
		}
		return event
	default:
		return event.Interface(key, value.Any())
	}
}

// zerologLevel maps an slog level onto the zerolog scale.
func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package logging is the zerolog backend shared by every package in the
// health sync service.
//
// The service logs JSON in production and pretty console lines in
// development. Request and correlation IDs travel through context (see
// context.go), supervisor events arrive over an slog bridge
// (slog_adapter.go), and OAuth lifecycle events go through SecurityLogger
// (security.go), which sanitizes anything credential-shaped before it
// reaches a sink.
//
// Packages obtain a tagged logger once and keep it:
//
//	log := logging.WithComponent("oauth")
//	log.Info().Str("user_id", logging.SanitizeUserID(id)).Msg("Connected")
//
// Chains must end in .Msg or .Send or nothing is written. Raw tokens and
// key material never go to a log field; use the sanitizers in security.go
// or vault.MaskCredential.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config selects the backend's level, encoding, and destination. The zero
// value logs info-level JSON to stderr.
type Config struct {
	// Level is the minimum emitted level: trace, debug, info, warn, error,
	// fatal, or disabled. Unknown values fall back to info.
	Level string

	// Format is "json" or "console".
	Format string

	// Caller annotates every event with file:line.
	Caller bool

	// Output overrides the destination, primarily for tests.
	Output io.Writer
}

var (
	mu   sync.RWMutex
	root = build(Config{})
)

// Init replaces the process-wide logger. main calls it once configuration
// is loaded; until then the zero-value backend is already usable. Calling
// it again reconfigures in place.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	root = l
	mu.Unlock()
}

func build(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.SetGlobalLevel(levelFromString(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	lc := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		lc = lc.Caller()
	}
	return lc.Logger()
}

// levelNames maps accepted configuration strings to zerolog levels.
var levelNames = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"fatal":    zerolog.FatalLevel,
	"disabled": zerolog.Disabled,
}

func levelFromString(s string) zerolog.Level {
	if lvl, ok := levelNames[strings.ToLower(s)]; ok {
		return lvl
	}
	return zerolog.InfoLevel
}

// Logger returns a copy of the current process-wide logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// SetLogger swaps the process-wide logger wholesale. Tests use this to
// capture output from package-level helpers.
//
//nolint:gocritic // hugeParam: zerolog loggers are value types
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	root = l
	mu.Unlock()
}

// With opens a child context on the current logger.
func With() zerolog.Context {
	return Logger().With()
}

// WithComponent returns a child logger tagged with a fixed component
// field. Every package's logger comes from here so output is filterable
// by subsystem.
func WithComponent(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// Debug starts a debug-level event on the process-wide logger.
func Debug() *zerolog.Event { l := Logger(); return l.Debug() }

// Info starts an info-level event on the process-wide logger.
func Info() *zerolog.Event { l := Logger(); return l.Info() }

// Warn starts a warn-level event on the process-wide logger.
func Warn() *zerolog.Event { l := Logger(); return l.Warn() }

// Error starts an error-level event on the process-wide logger.
func Error() *zerolog.Event { l := Logger(); return l.Error() }

// Fatal starts a fatal-level event; the process exits once it is written.
func Fatal() *zerolog.Event { l := Logger(); return l.Fatal() }

// NewTestLogger returns a logger writing to w so tests can assert on
// emitted JSON.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}

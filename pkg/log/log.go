// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package log configures the process-wide slog logger, optionally teeing
// output into time-rotated files.
package log

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"

	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
)

// DefaultPattern names rotated files inside Config.Dir.
const DefaultPattern = "trialrag-%Y-%m-%d.log"

// Config controls log level, format and optional file output.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	// Dir enables file output when non-empty.
	Dir          string
	Pattern      string
	RotationTime time.Duration
	MaxAge       time.Duration
}

// Validate returns every problem with the configuration.
func (c Config) Validate() []error {
	var errs []error
	if !slices.Contains([]string{"", "debug", "info", "warn", "error"}, strings.ToLower(c.Level)) {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "logging.level: unknown level %q", c.Level))
	}
	if !slices.Contains([]string{"", "text", "json"}, strings.ToLower(c.Format)) {
		errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "logging.format: must be text or json, got %q", c.Format))
	}
	if c.Dir != "" {
		if c.RotationTime <= 0 {
			errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "logging.rotation_time: must be positive, got %s", c.RotationTime))
		}
		if c.MaxAge <= 0 {
			errs = append(errs, ragerr.Errorf(ragerr.CodeConfigValidateInvalidValue, "logging.max_age: must be positive, got %s", c.MaxAge))
		}
	}
	return errs
}

// NewHandler builds a handler writing to console and, when cfg.Dir is set,
// to a rotating file. The returned closer releases the file and is never nil.
func NewHandler(cfg Config, console io.Writer) (slog.Handler, io.Closer, error) {
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, nil, ragerr.Join(errs...)
	}

	out := console
	var closer io.Closer = nopCloser{}

	if cfg.Dir != "" {
		rl, err := newRotator(cfg)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(console, rl)
		closer = rl
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(out, opts), closer, nil
	}
	return slog.NewTextHandler(out, opts), closer, nil
}

// Init installs the configured handler as the slog default, logging to
// stderr so command output on stdout stays machine-readable.
func Init(cfg Config) (io.Closer, error) {
	h, closer, err := NewHandler(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(h))
	return closer, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newRotator(cfg Config) (*rotatelogs.RotateLogs, error) {
	if err := os.MkdirAll(cfg.Dir, 0o700); err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "creating log directory %s", cfg.Dir)
	}

	pattern := cfg.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	rl, err := rotatelogs.New(
		filepath.Join(cfg.Dir, pattern),
		rotatelogs.WithRotationTime(cfg.RotationTime),
		rotatelogs.WithMaxAge(cfg.MaxAge),
	)
	if err != nil {
		return nil, ragerr.Wrapf(err, ragerr.CodeConfigValidateInvalidValue, "configuring log rotation")
	}
	return rl, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

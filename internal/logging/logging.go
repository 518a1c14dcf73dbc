// Package logging builds the application's zap logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// ParseLevel maps a config level name to a zap level. "off" reports false.
func ParseLevel(s string) (zapcore.Level, bool, error) {
	switch strings.ToLower(s) {
	case "off":
		return zapcore.InvalidLevel, false, nil
	case "", "info":
		return zapcore.InfoLevel, true, nil
	case "debug":
		return zapcore.DebugLevel, true, nil
	case "warn":
		return zapcore.WarnLevel, true, nil
	case "error":
		return zapcore.ErrorLevel, true, nil
	default:
		return zapcore.InvalidLevel, false, fmt.Errorf("logging: unknown level %q", s)
	}
}

// NewLogger returns a logger that writes JSON lines to file (if not empty)
// and human-readable warnings and errors to console. Level "off" yields a
// no-op logger. The returned close function flushes and closes the file.
func NewLogger(level, file string, console io.Writer) (*zap.Logger, func() error, error) {
	lvl, enabled, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}
	if !enabled {
		return zap.NewNop(), func() error { return nil }, nil
	}

	var cores []zapcore.Core
	closeFile := func() error { return nil }

	if file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("logging: create log directory: %w", err)
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open log file: %w", err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), lvl))
		closeFile = f.Close
	}

	if console != nil {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		// The terminal is shared with the study prompt; keep it quiet.
		consoleLevel := max(lvl, zapcore.WarnLevel)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(console)), consoleLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return logger, func() error {
		_ = logger.Sync()
		return closeFile()
	}, nil
}

// ContextWithLogger returns a copy of ctx carrying logger.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// LoggerFromContext returns the logger stored in ctx, if any.
func LoggerFromContext(ctx context.Context) (*zap.Logger, bool) {
	logger, ok := ctx.Value(ctxKey{}).(*zap.Logger)
	return logger, ok && logger != nil
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := LoggerFromContext(ctx); ok {
		return logger
	}
	return zap.NewNop()
}

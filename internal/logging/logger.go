package logging

import (
	"os"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Fields map[string]interface{}

var base = zap.NewNop()

func init() {
	if l, err := zap.NewProduction(); err == nil {
		base = l
	}
}

// Configure replaces the process logger. level is a zap level name
// ("debug", "info", "warn", "error"); format "console" selects the
// human-readable development encoder, anything else emits JSON.
func Configure(level, format string) error {
	cfg := zap.NewProductionConfig()
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l
	return nil
}

// Sync flushes buffered entries.
func Sync() {
	_ = base.Sync()
}

func toZap(fields Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// Debug logs a diagnostic message with optional fields.
func Debug(msg string, fields Fields) {
	base.Debug(msg, toZap(fields)...)
}

// Info logs an informational message with optional fields.
func Info(msg string, fields Fields) {
	base.Info(msg, toZap(fields)...)
}

// Warn logs a recoverable problem, including err when non-nil.
func Warn(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	base.Warn(msg, zf...)
}

// Error logs an error message and includes the error text in the fields.
func Error(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	base.Error(msg, zf...)
}

// Fatal logs a fatal error and exits the process.
func Fatal(msg string, err error, fields Fields) {
	zf := toZap(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	base.Error(msg, zf...)
	_ = base.Sync()
	os.Exit(1)
}

// Package logger provides context-aware structured logging on top of zap.
// Operator-facing progress is printed by the output package; this logger
// carries the per-application decisions (skips, fallbacks, collaborator
// failures) that are useful when a run needs to be audited afterwards.
package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DevelopmentEnvironment logs human-readable console lines.
	DevelopmentEnvironment = "development"

	// ProductionEnvironment logs JSON lines.
	ProductionEnvironment = "production"
)

// defaultLogger is used when no logger is attached to the context.
var defaultLogger = zap.NewNop() //nolint: gochecknoglobals

// Setup initializes the default logger. Both environments write to stderr so
// that stdout stays reserved for the report. Warnings and above are logged
// unless debug is set.
func Setup(environment string, debug bool) {
	var cfg zap.Config
	if environment == ProductionEnvironment {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	level := zap.WarnLevel
	if debug {
		level = zap.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		return
	}
	defaultLogger = l
}

type key struct{}

// Get retrieves the logger stored in ctx, or the default logger.
func Get(ctx context.Context) *zap.Logger {
	if l, _ := ctx.Value(key{}).(*zap.Logger); l != nil {
		return l
	}

	return defaultLogger
}

// WithLogger returns a copy of ctx carrying l.
func WithLogger(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, key{}, l)
}

// WithFields returns a copy of ctx whose logger includes fields.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}

// Debug logs a message at debug level.
func Debug(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Debug(msg, fields...)
}

// Info logs a message at info level.
func Info(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Info(msg, fields...)
}

// Warn logs a message at warn level.
func Warn(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Warn(msg, fields...)
}

// Error logs a message at error level.
func Error(ctx context.Context, msg string, fields ...zapcore.Field) {
	Get(ctx).Error(msg, fields...)
}

// Sync flushes the default logger.
func Sync() {
	_ = defaultLogger.Sync()
}

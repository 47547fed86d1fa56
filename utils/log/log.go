// Package log carries zap loggers and fields through a context.
package log

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type key int

const (
	fieldsKey key = iota
	loggerKey
)

// New builds a production logger at the named level
// ("debug", "info", "warn", "error")
func New(level string) (*zap.Logger, error) {
	var l zapcore.Level

	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(l)

	return cfg.Build()
}

// WithContext enriches the logger with fields from the context.
// A nil logger is replaced by the one carried by ctx or the
// global logger.
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if logger == nil {
		logger, _ = FromContext(ctx, zap.L())
	}

	return logger.With(Fields(ctx)...)
}

// Operation is WithContext plus an operation field
func Operation(ctx context.Context, logger *zap.Logger, operation string) *zap.Logger {
	return WithContext(ctx, logger).With(zap.String("operation", operation))
}

// WithFields adds log fields to the context
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	existing := Fields(ctx)
	merged := make([]zap.Field, 0, len(existing)+len(fields))
	merged = append(merged, existing...)

	return context.WithValue(ctx, fieldsKey, append(merged, fields...))
}

// Fields extracts log fields from the context
func Fields(ctx context.Context) []zap.Field {
	fields, ok := ctx.Value(fieldsKey).([]zap.Field)

	if !ok {
		return []zap.Field{}
	}

	return fields
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger extracts a logger from the context. It returns nil
// if the context carries none.
func Logger(ctx context.Context) *zap.Logger {
	logger, _ := ctx.Value(loggerKey).(*zap.Logger)

	return logger
}

// FromContext returns the logger carried by ctx. If there is none it
// returns defaultLogger and a context carrying it.
func FromContext(ctx context.Context, defaultLogger *zap.Logger) (*zap.Logger, context.Context) {
	logger := Logger(ctx)

	if logger == nil {
		logger = defaultLogger
		ctx = WithLogger(ctx, logger)
	}

	return logger, ctx
}

package log_test

import (
	"context"
	"testing"

	"github.com/jrife/graphkv/utils/log"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFields(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, log.Fields(ctx))

	ctx = log.WithFields(ctx, zap.String("table", "graph"))
	child := log.WithFields(ctx, zap.String("row", "x"))
	sibling := log.WithFields(ctx, zap.String("row", "y"))

	require.Len(t, log.Fields(ctx), 1)
	require.Equal(t, []zap.Field{zap.String("table", "graph"), zap.String("row", "x")}, log.Fields(child))
	require.Equal(t, []zap.Field{zap.String("table", "graph"), zap.String("row", "y")}, log.Fields(sibling))
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	require.Nil(t, log.Logger(ctx))

	logger := zap.NewNop()
	ctx = log.WithLogger(ctx, logger)
	require.Same(t, logger, log.Logger(ctx))

	found, _ := log.FromContext(ctx, zap.L())
	require.Same(t, logger, found)

	fallback := zap.NewNop()
	found, ctx = log.FromContext(context.Background(), fallback)
	require.Same(t, fallback, found)
	require.Same(t, fallback, log.Logger(ctx))
}

func TestOperation(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := log.WithFields(context.Background(), zap.String("table", "graph"))

	log.Operation(ctx, zap.New(core), "flush").Debug("start")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, map[string]interface{}{"table": "graph", "operation": "flush"}, entries[0].ContextMap())
}

func TestNew(t *testing.T) {
	logger, err := log.New("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = log.New("warn")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = log.New("loud")
	require.Error(t, err)
}

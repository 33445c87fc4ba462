package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vulnverified/sitevault/pkg/logger"
)

func TestSetup(t *testing.T) {
	for _, env := range []string{logger.DevelopmentEnvironment, logger.ProductionEnvironment} {
		t.Run(env, func(t *testing.T) {
			require.NotPanics(t, func() { logger.Setup(env, false) })
			require.NotNil(t, logger.Get(context.Background()))
		})
	}
}

func TestSetup_DebugLevel(t *testing.T) {
	logger.Setup(logger.DevelopmentEnvironment, true)
	require.True(t, logger.Get(context.Background()).Core().Enabled(zap.DebugLevel))

	logger.Setup(logger.DevelopmentEnvironment, false)
	require.False(t, logger.Get(context.Background()).Core().Enabled(zap.InfoLevel))
	require.True(t, logger.Get(context.Background()).Core().Enabled(zap.WarnLevel))
}

func TestWithLogger(t *testing.T) {
	custom := zap.NewExample()
	ctx := logger.WithLogger(context.Background(), custom)
	require.Equal(t, custom, logger.Get(ctx))
}

func TestWithFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))
	ctx = logger.WithFields(ctx, zap.String("app", "shop42"))

	logger.Warn(ctx, "skipping application", zap.String("reason", "no web root"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "skipping application", entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "shop42", fields["app"])
	require.Equal(t, "no web root", fields["reason"])
}

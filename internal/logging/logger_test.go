package logging

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger.Underlying())

	_, err = NewLogger(&Config{Level: zapcore.InfoLevel, Format: "xml"})
	assert.Error(t, err)
}

func TestLogger_ContextFields(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	ctx := WithWorkflow(WithRunID(context.Background(), "run-1"), "golden_gate")
	logger.Info(ctx, "planned", zap.Int("operations", 12))

	logs := observed.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "run-1", fields["run.id"])
	assert.Equal(t, "golden_gate", fields["workflow"])
	assert.EqualValues(t, 12, fields["operations"])
}

func TestLogger_Levels(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	logger := FromZap(zap.New(core)).Named("robot")
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	logger.Error(ctx, "shown")

	assert.Equal(t, 2, observed.Len())
	assert.False(t, logger.Enabled(zapcore.InfoLevel))
	assert.Equal(t, "robot", observed.All()[0].LoggerName)
}

func TestLogger_KV(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	kv := FromZap(zap.New(core)).KV()

	kv.Warn("rule warning", "rule", "ambiguous_part", "subject", "gfp")

	logs := observed.FilterMessage("rule warning").All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "ambiguous_part", logs[0].ContextMap()["rule"])
}

func TestContextHelpersIgnoreEmpty(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, WithRunID(ctx, ""))
	assert.Empty(t, ContextFields(ctx))
}

func TestIsStdoutSyncError(t *testing.T) {
	assert.True(t, isStdoutSyncError(syscall.EINVAL))
	assert.True(t, isStdoutSyncError(syscall.ENOTTY))
	assert.False(t, isStdoutSyncError(syscall.EPERM))
	assert.NoError(t, NewNop().Sync())
}

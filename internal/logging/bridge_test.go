package logging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/capitan"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	logger, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("", false)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = New("loud", true)
	assert.Error(t, err)
}

func TestCatalogCoversEverySignal(t *testing.T) {
	assert.Len(t, catalog, 14)
	seen := make(map[string]bool)
	for _, entry := range catalog {
		assert.False(t, seen[entry.name], "duplicate signal %s", entry.name)
		seen[entry.name] = true
	}
}

func TestBridgeForwardsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	detach := Bridge(zap.New(core))
	defer detach()

	ctx := context.Background()
	capitan.Emit(ctx, CycleCompleted, FieldAgentID.Field("agent-a"), FieldCycle.Field(7))
	capitan.Error(ctx, PersistFailed, FieldAgentID.Field("agent-a"), FieldError.Field(errors.New("disk full")))

	require.Eventually(t, func() bool { return logs.Len() >= 2 }, 2*time.Second, 10*time.Millisecond)

	byMessage := make(map[string]observer.LoggedEntry)
	for _, entry := range logs.All() {
		byMessage[entry.Message] = entry
	}

	done, ok := byMessage["mind.cycle.completed"]
	require.True(t, ok)
	assert.Equal(t, zapcore.DebugLevel, done.Level)
	ctxMap := done.ContextMap()
	assert.Equal(t, "agent-a", ctxMap["agent_id"])
	assert.EqualValues(t, 7, ctxMap["cycle"])

	failed, ok := byMessage["mind.persist.failed"]
	require.True(t, ok)
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, "disk full", failed.ContextMap()["error"])
}

package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestFromContextAddsFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, AnalysisKey, "count_plum_trees")

	FromContext(ctx, base).Info("analysis finished")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "count_plum_trees", fields["analysis"])
	assert.NotContains(t, fields, "job")
}

func TestSetReplacesGlobal(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	previous := Get()
	t.Cleanup(func() { Set(previous) })

	Set(zap.New(core))
	Debug("hello")

	assert.Equal(t, 1, logs.Len())
}

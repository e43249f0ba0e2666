package logger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// swap installs l as the global logger for the duration of the test.
func swap(t *testing.T, l *zap.Logger) {
	t.Helper()
	original := log
	Set(l)
	t.Cleanup(func() { Set(original) })
}

func TestNew(t *testing.T) {
	t.Run("Production", func(t *testing.T) {
		l, err := New("production", "")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Development", func(t *testing.T) {
		l, err := New("development", "")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("Explicit level", func(t *testing.T) {
		l, err := New("production", "warn")
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
		assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
	})

	t.Run("Unknown level keeps default", func(t *testing.T) {
		l, err := New("production", "loud")
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})
}

func TestInit(t *testing.T) {
	swap(t, nil)

	Init("production", "")
	assert.NotNil(t, log)
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))

	Init("production", "error")
	assert.False(t, log.Core().Enabled(zapcore.WarnLevel))
	assert.True(t, log.Core().Enabled(zapcore.ErrorLevel))
}

func TestL(t *testing.T) {
	// Force nil to test lazy initialization
	swap(t, nil)
	t.Setenv("APP_ENV", "test")

	l := L()
	assert.NotNil(t, l)
	assert.Same(t, l, L())
}

func TestContextFunctions(t *testing.T) {
	ctx := context.Background()
	reqID := "test-request-id-123"

	t.Run("WithRequestID", func(t *testing.T) {
		newCtx := WithRequestID(ctx, reqID)
		assert.Equal(t, reqID, newCtx.Value(requestIDKey))
	})

	t.Run("RequestIDFrom", func(t *testing.T) {
		assert.Equal(t, reqID, RequestIDFrom(WithRequestID(ctx, reqID)))
		assert.Equal(t, "", RequestIDFrom(ctx))
	})
}

func TestEnsureRequestID(t *testing.T) {
	t.Run("Keeps existing id", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-1")

		got, id := EnsureRequestID(ctx)
		assert.Equal(t, "req-1", id)
		assert.Equal(t, ctx, got)
	})

	t.Run("Generates uuid when missing", func(t *testing.T) {
		got, id := EnsureRequestID(context.Background())

		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, RequestIDFrom(got))
	})
}

func TestFromCtx(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	swap(t, zap.New(core))

	t.Run("WithRequestID", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-abc-123")

		FromCtx(ctx).Info("test message with id")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		assert.Equal(t, "test message with id", logs[0].Message)
		assert.Equal(t, "req-abc-123", logs[0].ContextMap()["request_id"])
	})

	t.Run("WithoutRequestID", func(t *testing.T) {
		FromCtx(context.Background()).Info("test message without id")

		logs := observed.TakeAll()
		require.Len(t, logs, 1)
		_, ok := logs[0].ContextMap()["request_id"]
		assert.False(t, ok)
	})
}

func TestSync(t *testing.T) {
	// Just ensure it doesn't panic.
	assert.NotPanics(t, func() {
		Sync()
	})
}

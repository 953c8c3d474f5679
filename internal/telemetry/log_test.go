package telemetry_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/calvinalkan/lazyslot/internal/telemetry"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

var errDown = errors.New("down")

func TestLogHook_LogsEachAttempt(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)

	calls := 0
	s := slot.New(func() (int, error) {
		calls++
		if calls == 1 {
			return 0, errDown
		}

		return 1, nil
	}, slot.WithName("db"), slot.WithHook(telemetry.LogHook(zap.New(core))))

	_, _ = s.Get()
	_, _ = s.Get()
	_, _ = s.Get()

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, "constructing", entries[0].Message)
	assert.Equal(t, "construction failed", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "constructing", entries[2].Message)
	assert.Equal(t, "constructed", entries[3].Message)

	ctx := entries[3].ContextMap()
	assert.Equal(t, "db", ctx["slot"])
	assert.Equal(t, int64(2), ctx["attempt"])
}

func TestLogHook_AcceptsNilLogger(t *testing.T) {
	t.Parallel()

	done := telemetry.LogHook(nil)("x", 1)
	require.NotNil(t, done)
	assert.NotPanics(t, func() { done(nil) })
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger, err := telemetry.NewLogger("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", zap.String("slot", "db"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, `"slot": "db"`)
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := telemetry.NewLogger("loud", &bytes.Buffer{})
	require.ErrorIs(t, err, telemetry.ErrLogLevel)
}

func TestMulti_CallsHooksInOrder(t *testing.T) {
	t.Parallel()

	var order []string

	mk := func(id string) slot.Hook {
		return func(string, int64) func(error) {
			order = append(order, "start "+id)
			return func(error) { order = append(order, "done "+id) }
		}
	}

	hook := telemetry.Multi(mk("a"), nil, mk("b"))
	hook("s", 1)(nil)

	assert.Equal(t, []string{"start a", "start b", "done b", "done a"}, order)
}

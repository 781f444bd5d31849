package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestZapLogger(t *testing.T) {
	l := newZapLogger(true, zapcore.DebugLevel)
	l.Debug(map[string]any{"key": "value", "n": 42, "err": errors.New("boom")}, "test debug")
	l.Info(nil, "test info")
	l.With(map[string]any{"component": "test"}).Warn(nil, "test warn")
	l.Error(nil, "test error")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	rec := NewRecorder()
	SetLogger(rec)

	Debug(nil, "debug msg")
	Info(map[string]any{"zone": "example.com"}, "info msg")
	Warn(nil, "warn msg")
	Error(nil, "error msg")

	assert.Equal(t, []string{"debug msg", "info msg", "warn msg", "error msg"}, rec.Messages())
	assert.Equal(t, "info", rec.Entries[1].Level)
	assert.Equal(t, "example.com", rec.Entries[1].Fields["zone"])
}

func TestNamed(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	rec := NewRecorder()
	SetLogger(rec)

	Named("zones").Info(map[string]any{"zone": "a"}, "zone_block_parsed")

	require.Len(t, rec.Entries, 1)
	assert.Equal(t, "zones", rec.Entries[0].Fields["component"])
	assert.Equal(t, "a", rec.Entries[0].Fields["zone"])
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		require.NoError(t, Configure("prod", level), level)
		require.NoError(t, Configure("dev", level), level)
	}

	err := Configure("prod", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Debug(nil, "x")
	l.Info(nil, "x")
	l.Warn(nil, "x")
	l.Error(nil, "x")
	assert.NotNil(t, l.With(map[string]any{"a": 1}))
}

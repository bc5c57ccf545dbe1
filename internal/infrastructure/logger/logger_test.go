// internal/infrastructure/logger/logger_test.go
package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLogger(zap.New(core)), logs
}

func TestZapLogger(t *testing.T) {
	log, logs := newObserved(zapcore.DebugLevel)

	log.Debug("Debug message", map[string]interface{}{
		"key1": "value1",
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.DebugLevel, entry.Level)
	assert.Equal(t, "Debug message", entry.Message)
	assert.Equal(t, "value1", entry.ContextMap()["key1"])

	// WithField
	fieldLogger := log.WithField("context", "test")
	fieldLogger.Info("With field", nil)

	entry = logs.FilterMessage("With field").All()[0]
	assert.Equal(t, "test", entry.ContextMap()["context"])

	// WithFields
	fieldsLogger := log.WithFields(map[string]interface{}{
		"app":     "test-app",
		"version": "1.0.0",
	})
	fieldsLogger.Warn("With fields", map[string]interface{}{"extra": 3})

	entry = logs.FilterMessage("With fields").All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "test-app", entry.ContextMap()["app"])
	assert.Equal(t, "1.0.0", entry.ContextMap()["version"])
	assert.EqualValues(t, 3, entry.ContextMap()["extra"])

	// WithFields without fields returns the same logger
	assert.Same(t, log, log.WithFields(nil))
}

func TestZapLoggerLevels(t *testing.T) {
	log, logs := newObserved(zapcore.InfoLevel)

	log.Debug("Debug", nil)
	assert.Equal(t, 0, logs.Len())

	log.Info("Info", nil)
	log.Warn("Warn", nil)
	log.Error("Error", nil)
	assert.Equal(t, 3, logs.Len())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		" error ": ErrorLevel,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	log, err := New(WarnLevel)
	require.NoError(t, err)
	assert.True(t, log.Zap().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, log.Zap().Core().Enabled(zapcore.InfoLevel))
}

func TestDefaultLogger(t *testing.T) {
	original := GetDefaultLogger()
	assert.NotNil(t, original)

	replacement, _ := newObserved(zapcore.DebugLevel)
	SetDefaultLogger(replacement)
	assert.Same(t, replacement, GetDefaultLogger())

	SetDefaultLogger(nil)
	assert.Same(t, replacement, GetDefaultLogger())

	SetDefaultLogger(original)
}

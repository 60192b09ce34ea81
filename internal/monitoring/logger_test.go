package monitoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func restoreLoggers(t *testing.T) {
	t.Helper()
	logf, debugf, warnf := Logf, Debugf, Warnf
	t.Cleanup(func() {
		Logf, Debugf, Warnf = logf, debugf, warnf
	})
}

func TestSetLogger(t *testing.T) {
	restoreLoggers(t)

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil || Debugf == nil || Warnf == nil {
		t.Fatal("loggers should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
	Debugf("debug message: %d", 1)
}

func TestUseZap(t *testing.T) {
	restoreLoggers(t)

	core, logs := observer.New(zapcore.DebugLevel)
	UseZap(zap.New(core))

	Logf("[Trial] started %s", "t1")
	Debugf("[FoF] group %d", 3)
	Warnf("[FoF] not converged")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "[Trial] started t1", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
}

func TestUseZap_NilMutes(t *testing.T) {
	restoreLoggers(t)

	UseZap(nil)
	assert.NotPanics(t, func() {
		Logf("quiet")
		Warnf("quiet")
	})
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = NewLogger(false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

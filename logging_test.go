package sdfblend

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore("rt", "info", core)

	l.Debugf("hidden %d", 1)
	l.Infof("frame %d", 2)
	l.Warnf("slow")
	l.Errorf("broken: %s", "x")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "frame 2", entries[0].Message)
	assert.Equal(t, "rt", entries[0].LoggerName)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "broken: x", entries[2].Message)
}

func TestLoggerSetDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewLoggerFromCore("", "warn", core)

	assert.False(t, l.DebugEnabled())
	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("now visible")
	l.SetDebug(false)
	l.Debugf("hidden again")
	l.Infof("below warn")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "now visible", logs.All()[0].Message)
}

func TestLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encode.log")
	cfg := DefaultLogFileConfig(path)
	cfg.Compress = false

	l := NewDefaultLogger("sdf", "debug", cfg)
	l.Infof("encoded %d containers", 3)
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "encoded 3 containers"))
	assert.True(t, strings.Contains(string(data), "INFO"))
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.SetDebug(true)
	assert.False(t, l.DebugEnabled())
	l.Errorf("ignored")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("bogus"))
}

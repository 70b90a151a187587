package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sydologie/diapoai/internal/domain/entities"
)

func TestLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).Named("preview")

	l.Debug("attempt %d", 2)
	l.Info("ready")
	l.Warn("teardown failed: %v", "gone")
	l.Error("boom")
	l.Success("exported %s", "deck.pptx")

	entries := logs.AllUntimed()
	require.Len(t, entries, 5)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "attempt 2", entries[0].Message)
	assert.Equal(t, "teardown failed: gone", entries[2].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)

	assert.Equal(t, zapcore.InfoLevel, entries[4].Level)
	assert.Equal(t, "success", entries[4].ContextMap()["outcome"])
	for _, e := range entries {
		assert.Equal(t, "preview", e.ContextMap()["component"])
	}
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, entities.LogLevelWarn)

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Named("http").SetLevel(entities.LogLevelDebug)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diapoai.log")

	l, err := New(entities.LoggingConfig{Level: "info", File: path})
	require.NoError(t, err)

	l.Named("export").Info("wrote %d slides", 3)
	l.Debug("not written")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"wrote 3 slides"`)
	assert.Contains(t, string(data), `"component":"export"`)
	assert.NotContains(t, string(data), "not written")
}

func TestNew_BadFile(t *testing.T) {
	_, err := New(entities.LoggingConfig{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

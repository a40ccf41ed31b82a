package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	c "lautenbacher.net/fireflyjar/config"
)

func TestInit_BufferedUntilSetOutput(t *testing.T) {
	err := Init(true, c.LogConfig{Level: "INFO", Format: "text"})
	require.NoError(t, err)

	slog.Info("held back")

	var buf bytes.Buffer
	err = SetOutput(&buf)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "held back", "buffered output should be flushed to the new target")

	slog.Info("live now")
	assert.Contains(t, buf.String(), "live now", "output after SetOutput should be written directly")
}

func TestInit_LevelFiltering(t *testing.T) {
	err := Init(true, c.LogConfig{Level: "WARN", Format: "text"})
	require.NoError(t, err)

	slog.Info("too quiet")
	slog.Warn("loud enough")

	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf))

	assert.NotContains(t, buf.String(), "too quiet")
	assert.Contains(t, buf.String(), "loud enough")
}

func TestInit_JSONFormat(t *testing.T) {
	err := Init(true, c.LogConfig{Level: "INFO", Format: "json"})
	require.NoError(t, err)

	slog.Info("structured", "key", "value")

	var buf bytes.Buffer
	require.NoError(t, SetOutput(&buf))

	assert.Contains(t, buf.String(), `"msg":"structured"`)
	assert.Contains(t, buf.String(), `"key":"value"`)
}

func TestInit_FileTee(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "jar.log")
	err := Init(false, c.LogConfig{Level: "INFO", Format: "text", File: logFile})
	require.NoError(t, err)

	slog.Info("on disk too")
	require.NoError(t, Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "on disk too")
}

func TestInit_ReinitClosesPreviousLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "jar.log")
	require.NoError(t, Init(false, c.LogConfig{Level: "INFO", Format: "text", File: logFile}))
	previous := writer

	// A config reload calls Init again; the old log file handle must
	// not outlive its writer.
	require.NoError(t, Init(false, c.LogConfig{Level: "INFO", Format: "text", File: logFile}))
	_, err := previous.file.Write([]byte("stale handle"))
	assert.ErrorIs(t, err, os.ErrClosed, "previous log file should be closed on re-Init")

	require.NoError(t, Close())
}

func TestClose_FlushesBufferToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "jar.log")
	err := Init(true, c.LogConfig{Level: "INFO", Format: "text", File: logFile})
	require.NoError(t, err)

	slog.Info("never went live")
	require.NoError(t, Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "never went live")
}

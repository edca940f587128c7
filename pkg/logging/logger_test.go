package logging

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDir points the package at a temporary log directory and resets
// the process-wide state.
func setupTestDir(t *testing.T) {
	t.Helper()

	origLogDir, origInitErr := logDir, initErr
	origProcessID := processID

	logDir = t.TempDir()
	initErr = nil
	initOnce = sync.Once{}
	processID = ""
	processIDOnce = sync.Once{}

	t.Cleanup(func() {
		logDir, initErr = origLogDir, origInitErr
		initOnce = sync.Once{}
		processID = origProcessID
		processIDOnce = sync.Once{}
	})
}

func TestNewLogger_FileBacked(t *testing.T) {
	setupTestDir(t)

	logger, err := NewLogger("store", WithStderr(false))
	require.NoError(t, err)
	defer logger.Close()

	assert.Equal(t, "store", logger.Component())
	assert.NotEmpty(t, logger.ProcessID())
	require.NotEmpty(t, logger.LogPath())

	logger.Infof("created session %s", "abc")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(logger.LogPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "created session abc")
	assert.Contains(t, string(data), "INFO")
	assert.Contains(t, string(data), "store")
}

func TestLogger_LevelsAndChildren(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("server", WithOutput(&buf), WithLevel("warn"))
	require.NoError(t, err)

	logger.Infof("hidden")
	logger.Warnf("visible %d", 1)
	logger.With("dispatch").Errorf("child line")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible 1")
	assert.Contains(t, out, "server.dispatch")
	assert.Contains(t, out, "child line")

	require.NoError(t, logger.SetLevel("debug"))
	logger.Debugf("now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	logger, err := NewLogger("x", WithLevel("loud"))
	require.Error(t, err)
	require.NotNil(t, logger, "a fallback logger is always returned")
	assert.True(t, strings.Contains(err.Error(), "loud"))
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Infof("discarded")
	assert.NoError(t, logger.Close())
	assert.NoError(t, logger.Close())
}

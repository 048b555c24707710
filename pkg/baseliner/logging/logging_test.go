package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/baseliner/pkg/baseliner/logging"
)

// These tests share the package-level logging state and must not run in parallel.

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    logging.Level
		wantErr bool
	}{
		{input: "debug", want: logging.LevelDebug},
		{input: "INFO", want: logging.LevelInfo},
		{input: "warning", want: logging.LevelWarn},
		{input: "warn", want: logging.LevelWarn},
		{input: "error", want: logging.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := logging.ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, logging.ErrInvalidLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestInit_InvalidLevel(t *testing.T) {
	err := logging.Init(logging.Config{Level: "chatty"})
	require.ErrorIs(t, err, logging.ErrInvalidLevel)
}

func TestInit_InvalidComponentLevel(t *testing.T) {
	err := logging.Init(logging.Config{
		Level:      "info",
		Components: map[string]string{"loader": "nope"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loader")
}

func TestLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseliner.log")

	require.NoError(t, logging.Init(logging.Config{Level: "debug", Path: path}))
	t.Cleanup(func() { _ = logging.Close() })

	logger := logging.Get("loader")
	logger.Info("baseline loaded", "entries", 3)
	logger.Debug("visiting", "file", "/a/b.txt")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "baseline loaded")
	assert.Contains(t, content, "entries=3")
	assert.Contains(t, content, "loader")
	assert.Contains(t, content, "visiting")
}

func TestLogger_ComponentLevelOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baseliner.log")

	require.NoError(t, logging.Init(logging.Config{
		Level:      "info",
		Path:       path,
		Components: map[string]string{"scanner": "error"},
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("scanner").Info("quiet please")
	logging.Get("engine").Info("loud enough")

	require.NoError(t, logging.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet please")
	assert.Contains(t, string(data), "loud enough")
}

func TestLogger_Console(t *testing.T) {
	var console bytes.Buffer

	require.NoError(t, logging.Init(logging.Config{
		Level:        "debug",
		ConsoleLevel: "warn",
		Console:      &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logger := logging.Get("cli")
	logger.Info("not shown")
	logger.Warn("shown", "file", "x.txt")

	out := console.String()
	assert.NotContains(t, out, "not shown")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "file=x.txt")
}

func TestGet_ReturnsSameLogger(t *testing.T) {
	a := logging.Get("same")
	b := logging.Get("same")
	assert.Same(t, a, b)
	assert.Equal(t, "same", a.Component())
}

func TestGet_LoggerCreatedBeforeInitFollowsInit(t *testing.T) {
	require.NoError(t, logging.Close())
	logger := logging.Get("early")

	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		ConsoleLevel: "info",
		Console:      &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logger.Info("after init")
	assert.True(t, strings.Contains(console.String(), "after init"))
}

func TestWith_AddsContext(t *testing.T) {
	var console bytes.Buffer
	require.NoError(t, logging.Init(logging.Config{
		Level:        "info",
		ConsoleLevel: "info",
		Console:      &console,
	}))
	t.Cleanup(func() { _ = logging.Close() })

	logging.Get("with").With("run", "abc").Info("checked")
	assert.Contains(t, console.String(), "run=abc")
}

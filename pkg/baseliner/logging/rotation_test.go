package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countRotated(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	n := 0
	for _, e := range entries {
		if e.Name() != "test.log" && strings.HasPrefix(e.Name(), "test.") {
			n++
		}
	}
	return n
}

func TestRotatingWriter_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRotatingWriter_RotatesOnSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("0123456789"))
	require.NoError(t, err)
	_, err = w.Write([]byte("next"))
	require.NoError(t, err)

	assert.Equal(t, 1, countRotated(t, dir))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "next", string(data))
}

func TestRotatingWriter_RotatesDaily(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{Daily: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	_, err = w.Write([]byte("day one\n"))
	require.NoError(t, err)

	tomorrow := time.Now().Add(24 * time.Hour)
	w.now = func() time.Time { return tomorrow }

	_, err = w.Write([]byte("day two\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, countRotated(t, dir))
}

func TestRotatingWriter_MaxBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{MaxSize: 1, MaxBackups: 2})
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	base := time.Now()
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		w.now = func() time.Time { return at }
		_, err := w.Write([]byte("xx"))
		require.NoError(t, err)
	}

	assert.LessOrEqual(t, countRotated(t, dir), 2)
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")

	w, err := NewRotatingWriter(path, RotationConfig{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "double close is a no-op")

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, os.ErrClosed)
}

package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 20 * time.Millisecond

func runWatcher(t *testing.T, w *Watcher) <-chan Change {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan Change, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = w.Run(ctx, func(c Change) { changes <- c })
	}()

	t.Cleanup(func() {
		cancel()
		<-done
		_ = w.Close()
	})
	return changes
}

func waitChange(t *testing.T, changes <-chan Change) Change {
	t.Helper()
	select {
	case c := <-changes:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return Change{}
	}
}

func TestWatcher_BaselineFileChange(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "baseline.txt")
	require.NoError(t, os.WriteFile(baseline, []byte("a/*\n"), 0o644))

	w, err := New(testDebounce)
	require.NoError(t, err)
	require.NoError(t, w.WatchFiles(baseline))
	assert.Equal(t, []string{dir}, w.Watched())

	changes := runWatcher(t, w)

	// Unrelated files next to the baseline are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(baseline, []byte("a/*\nb/*\n"), 0o644))

	c := waitChange(t, changes)
	assert.True(t, c.Baseline)
	assert.Equal(t, []string{baseline}, c.Paths)
}

func TestWatcher_TreeChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))

	w, err := New(testDebounce)
	require.NoError(t, err)
	require.NoError(t, w.WatchTree(root, ".git"))
	assert.Equal(t, []string{root, filepath.Join(root, "sub")}, w.Watched())

	changes := runWatcher(t, w)

	target := filepath.Join(root, "sub", "new.dll")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	c := waitChange(t, changes)
	assert.False(t, c.Baseline)
	assert.Contains(t, c.Paths, target)
}

func TestWatcher_Debounces(t *testing.T) {
	dir := t.TempDir()
	baseline := filepath.Join(dir, "baseline.txt")
	require.NoError(t, os.WriteFile(baseline, nil, 0o644))

	w, err := New(200 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.WatchFiles(baseline))
	changes := runWatcher(t, w)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(baseline, []byte{byte('a' + i)}, 0o644))
	}

	c := waitChange(t, changes)
	assert.Equal(t, []string{baseline}, c.Paths)

	select {
	case extra := <-changes:
		t.Fatalf("unexpected second change: %+v", extra)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_Closed(t *testing.T) {
	w, err := New(0)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	err = w.WatchFiles(filepath.Join(t.TempDir(), "b.txt"))
	require.ErrorIs(t, err, ErrClosed)
}

func TestWatcher_RunStopsOnContext(t *testing.T) {
	w, err := New(testDebounce)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, w.Run(ctx, nil), context.Canceled)
}

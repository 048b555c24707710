package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)

	run := &Run{
		Root:       "/repo",
		Baseline:   "/repo/eng/baseline.txt",
		Suffix:     "sdk",
		Summary:    Summary{Checked: 10, Excluded: 7, Unexpected: 3},
		Unexpected: []string{"a.dll", "b.dll", "c.dll"},
		Unused:     []Stale{{File: "/repo/eng/baseline.txt", Pattern: "old/**", Line: 4}},
	}
	require.NoError(t, s.Record(run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.Timestamp.IsZero())

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Root, got.Root)
	assert.Equal(t, run.Summary, got.Summary)
	assert.Equal(t, run.Unexpected, got.Unexpected)
	assert.Equal(t, run.Unused, got.Unused)
	assert.True(t, run.Timestamp.Equal(got.Timestamp))
	assert.False(t, got.Passed())
}

func TestStore_GetByPrefix(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Record(&Run{ID: "abc-111"}))
	require.NoError(t, s.Record(&Run{ID: "abc-222"}))
	require.NoError(t, s.Record(&Run{ID: "def-333"}))

	got, err := s.Get("def")
	require.NoError(t, err)
	assert.Equal(t, "def-333", got.ID)

	_, err = s.Get("abc")
	require.ErrorIs(t, err, ErrAmbiguous)

	_, err = s.Get("zzz")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(" ")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for i := 0; i < 4; i++ {
		run := &Run{Root: "/repo"}
		require.NoError(t, s.Record(run))
		ids = append(ids, run.ID)
	}

	runs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 4)
	assert.Equal(t, ids[3], runs[0].ID)
	assert.Equal(t, ids[0], runs[3].ID)

	limited, err := s.List(2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, ids[3], limited[0].ID)
}

func TestStore_ListEmpty(t *testing.T) {
	runs, err := openTestStore(t).List(10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStore_Cleanup(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Record(&Run{ID: "old", Timestamp: now.Add(-40 * 24 * time.Hour)}))
	require.NoError(t, s.Record(&Run{ID: "recent", Timestamp: now.Add(-2 * 24 * time.Hour)}))
	require.NoError(t, s.Record(&Run{ID: "today"}))

	removed, err := s.Cleanup(0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = s.Cleanup(30 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.Get("old")
	require.ErrorIs(t, err, ErrNotFound)

	runs, err := s.List(0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_OpenOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	run := &Run{Root: "/persisted"}
	require.NoError(t, s.Record(run))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/persisted", got.Root)
}

func TestRun_Passed(t *testing.T) {
	assert.True(t, (&Run{}).Passed())
	assert.False(t, (&Run{Summary: Summary{Unused: 1}}).Passed())
	assert.False(t, (&Run{Summary: Summary{Partial: 1}}).Passed())
}

package datalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b3nn0/leanangle/session"
)

func openMemory(t *testing.T) *Log {
	t.Helper()
	l, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func ride(startMin, lenMin int, right, left float64) session.Session {
	base := time.Date(2026, 7, 4, 8, 0, 0, 0, time.UTC)
	start := base.Add(time.Duration(startMin) * time.Minute)
	return session.Session{
		Start:    start,
		End:      start.Add(time.Duration(lenMin) * time.Minute),
		MaxRight: right,
		MaxLeft:  left,
	}
}

func TestLog_InsertAndRecent(t *testing.T) {
	l := openMemory(t)

	rides := []session.Session{
		ride(0, 10, 31.5, -28.25),
		ride(20, 5, 12, -44),
		ride(40, 30, 50.125, -47),
	}
	for i, s := range rides {
		id, err := l.Insert(s)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), id)
	}

	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recs, err := l.Recent(2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(3), recs[0].ID)
	assert.Equal(t, rides[2], recs[0].Session)
	assert.Equal(t, rides[1], recs[1].Session)
}

func TestLog_RecentEmpty(t *testing.T) {
	l := openMemory(t)
	recs, err := l.Recent(20)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestLog_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	l, err := Open(path)
	require.NoError(t, err)
	_, err = l.Insert(ride(0, 1, 5, -6))
	require.NoError(t, err)
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	defer l.Close()
	n, err := l.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestLog_OpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib", "leanangle", "sessions.db")
	l, err := Open(path)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Insert(session.Session{Start: time.Unix(10, 0), End: time.Unix(20, 0), MaxRight: 5})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestLog_OpenDirectoryBlocked(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, err := Open(filepath.Join(blocker, "sessions.db"))
	assert.Error(t, err)
}

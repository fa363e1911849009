package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogFiles(t *testing.T) (*logFiles, *logrus.Logger, *bytes.Buffer) {
	t.Helper()
	logger := logrus.New()
	stdout := &bytes.Buffer{}
	files := newLogFiles(t.TempDir(), logger)
	files.stdout = stdout
	files.free = func(string) uint64 { return 1 << 40 }
	require.NoError(t, files.open())
	t.Cleanup(func() { files.Close() })
	return files, logger, stdout
}

func TestLogFilesWritesBoth(t *testing.T) {
	files, logger, stdout := newTestLogFiles(t)
	logger.Info("IMU Info: hello")

	buf, err := os.ReadFile(files.path())
	require.NoError(t, err)
	assert.Contains(t, string(buf), "IMU Info: hello")
	assert.Contains(t, stdout.String(), "IMU Info: hello")
}

func TestLogFilesRotate(t *testing.T) {
	files, logger, _ := newTestLogFiles(t)
	logger.Info("first")
	files.rotate()
	logger.Info("second")

	old, err := os.ReadFile(files.path() + ".1")
	require.NoError(t, err)
	assert.Contains(t, string(old), "first")

	cur, err := os.ReadFile(files.path())
	require.NoError(t, err)
	assert.Contains(t, string(cur), "second")
	assert.NotContains(t, string(cur), "first")
}

func TestLogFilesRotateDropsLastGeneration(t *testing.T) {
	files, _, _ := newTestLogFiles(t)
	for i := 1; i <= maxLogRotation; i++ {
		require.NoError(t, os.WriteFile(files.path()+"."+strconv.Itoa(i), []byte(strconv.Itoa(i)), 0644))
	}
	files.rotate()

	logs := files.rotations()
	require.Len(t, logs, maxLogRotation)
	assert.Equal(t, files.path()+".1", logs[0])
	assert.Equal(t, files.path()+"."+strconv.Itoa(maxLogRotation), logs[len(logs)-1])

	last, err := os.ReadFile(logs[len(logs)-1])
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(maxLogRotation-1), string(last))
}

func TestLogFilesDeleteOldest(t *testing.T) {
	files, _, _ := newTestLogFiles(t)
	assert.Zero(t, files.deleteOldest())

	require.NoError(t, os.WriteFile(files.path()+".1", []byte("a"), 0644))
	require.NoError(t, os.WriteFile(files.path()+".10", []byte("oldest"), 0644))
	require.NoError(t, os.WriteFile(files.path()+".2", []byte("bb"), 0644))

	assert.Equal(t, int64(len("oldest")), files.deleteOldest())
	assert.NoFileExists(t, files.path()+".10")
	assert.Equal(t, []string{files.path() + ".1", files.path() + ".2"}, files.rotations())
}

func TestLogFilesCheckRotatesLargeLog(t *testing.T) {
	files, _, _ := newTestLogFiles(t)
	require.NoError(t, os.WriteFile(files.path(), make([]byte, maxLogSize+1), 0644))
	files.check()
	assert.FileExists(t, files.path()+".1")

	info, err := os.Stat(files.path())
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestLogFilesCheckFreesSpace(t *testing.T) {
	files, _, _ := newTestLogFiles(t)
	for i := 1; i <= 3; i++ {
		require.NoError(t, os.WriteFile(files.path()+"."+strconv.Itoa(i), make([]byte, 10), 0644))
	}
	free := uint64(minFreeBytes - 15)
	files.free = func(string) uint64 { return free }
	files.check()

	// Two 10 byte files bring free space back over the limit.
	assert.Equal(t, []string{files.path() + ".1"}, files.rotations())
}

func TestInitLoggingFallsBackToStdout(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	logger := logrus.New()
	done := make(chan struct{})
	defer close(done)
	files := initLogging(logger, filepath.Join(blocker, "logs"), true, done)
	assert.Nil(t, files.handle)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

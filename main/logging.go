/*
	Copyright (c) 2023 Adrian Batzill
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	logging.go: Initialize logging, watch log file size and rotate, delete old logs

*/

package main

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/sirupsen/logrus"
)

const (
	debugLogFile = "leanangle.log"

	maxLogSize     = 10 * 1024 * 1024 // Rotate above 10mb.
	minFreeBytes   = 50 * 1024 * 1024 // Leave 50mb free.
	maxLogRotation = 9
)

// logFiles owns the debug log file in dir and its rotations
// (leanangle.log.1 .. leanangle.log.9, newest first).
type logFiles struct {
	dir    string
	logger *logrus.Logger
	stdout io.Writer
	free   func(dir string) uint64

	mu     sync.Mutex
	handle *os.File
}

func newLogFiles(dir string, logger *logrus.Logger) *logFiles {
	return &logFiles{dir: dir, logger: logger, stdout: os.Stdout, free: freeBytes}
}

func freeBytes(dir string) uint64 {
	return du.NewDiskUsage(dir).Free()
}

func (l *logFiles) path() string {
	return filepath.Join(l.dir, debugLogFile)
}

// rotations returns the rotated log files sorted by generation.
func (l *logFiles) rotations() []string {
	entries, err := os.ReadDir(l.dir)
	logs := make([]string, 0)
	if err != nil {
		return logs
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), debugLogFile+".") {
			logs = append(logs, filepath.Join(l.dir, e.Name()))
		}
	}
	sort.Slice(logs, func(i, j int) bool {
		return generation(logs[i]) < generation(logs[j])
	})
	return logs
}

func generation(path string) int {
	n, err := strconv.Atoi(path[strings.LastIndex(path, ".")+1:])
	if err != nil {
		return -1
	}
	return n
}

func (l *logFiles) rotate() {
	logs := l.rotations()

	// Bump the suffix, remove past the last generation.
	for i := len(logs) - 1; i >= 0; i-- {
		n := generation(logs[i])
		if n < 0 {
			continue
		}
		if n >= maxLogRotation {
			os.Remove(logs[i])
		} else {
			os.Rename(logs[i], filepath.Join(l.dir, debugLogFile+"."+strconv.Itoa(n+1)))
		}
	}

	// Now rename current log file and re-open.
	os.Rename(l.path(), l.path()+".1")
	l.open()
}

// deleteOldest removes the oldest rotation and returns the bytes freed.
func (l *logFiles) deleteOldest() int64 {
	logs := l.rotations()
	if len(logs) == 0 {
		return 0
	}
	oldest := logs[len(logs)-1]
	info, err := os.Stat(oldest)
	if err != nil {
		return 0
	}
	if err := os.Remove(oldest); err != nil {
		return 0
	}
	return info.Size()
}

func (l *logFiles) open() error {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return err
	}
	fp, err := os.OpenFile(l.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	l.mu.Lock()
	old := l.handle
	l.handle = fp
	l.mu.Unlock()
	l.logger.SetOutput(io.MultiWriter(fp, l.stdout))
	if old != nil {
		old.Close()
	}
	return nil
}

// check rotates an oversized log and frees space on the log volume.
func (l *logFiles) check() {
	if info, err := os.Stat(l.path()); err == nil && info.Size() > maxLogSize {
		l.rotate()
	}

	free := int64(l.free(l.dir))
	for free < minFreeBytes {
		deleted := l.deleteOldest()
		if deleted == 0 {
			break
		}
		free += deleted
	}
}

func (l *logFiles) watch(done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.check()
		case <-done:
			return
		}
	}
}

func (l *logFiles) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handle == nil {
		return nil
	}
	l.logger.SetOutput(l.stdout)
	err := l.handle.Close()
	l.handle = nil
	return err
}

// initLogging points logger at the debug log in dir and starts the
// rotation watcher. On failure logging stays on stdout.
func initLogging(logger *logrus.Logger, dir string, debug bool, done <-chan struct{}) *logFiles {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	files := newLogFiles(dir, logger)
	if err := files.open(); err != nil {
		logger.WithError(err).Errorf("Failed to open '%s'", files.path())
		return files
	}
	go files.watch(done)
	return files
}

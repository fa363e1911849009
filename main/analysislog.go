/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	analysislog.go: Per-tick CSV log of the estimator inputs and outputs,
	for offline replay with tools/leanplot.
*/

package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/ricochet2200/go-disk-usage/du"
)

const (
	analysisMaxUsage   = 0.95
	analysisCheckEvery = 1000
)

var analysisHeader = []string{"time", "dt", "accel_roll", "rate", "roll", "bias", "p00"}

type analysisRow struct {
	T         time.Time
	DT        float64
	AccelRoll float64
	Rate      float64
	Roll      float64
	Bias      float64
	P00       float64
}

func (r analysisRow) record() []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []string{
		strconv.FormatInt(r.T.UnixNano(), 10),
		f(r.DT), f(r.AccelRoll), f(r.Rate), f(r.Roll), f(r.Bias), f(r.P00),
	}
}

type analysisLog struct {
	mu    sync.Mutex
	dir   string
	fp    *os.File
	w     *csv.Writer
	rows  int
	full  bool
	err   error
	usage func(dir string) float32
}

func diskUsage(dir string) float32 {
	return du.NewDiskUsage(dir).Usage()
}

func analysisFileName(t time.Time) string {
	return "lean_" + t.Format("20060102_150405") + ".csv"
}

// openAnalysisLog creates a new CSV in dir named after t. It refuses when
// the volume is already almost full.
func openAnalysisLog(dir string, t time.Time) (*analysisLog, error) {
	return openAnalysisLogUsage(dir, t, diskUsage)
}

func openAnalysisLogUsage(dir string, t time.Time, usage func(string) float32) (*analysisLog, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "analysis log")
	}
	if u := usage(dir); u >= analysisMaxUsage {
		return nil, errors.Errorf("analysis log: disk %.0f%% full", u*100)
	}
	path := filepath.Join(dir, analysisFileName(t))
	fp, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "analysis log")
	}
	l := &analysisLog{dir: dir, fp: fp, w: csv.NewWriter(fp), usage: usage}
	if err := l.w.Write(analysisHeader); err != nil {
		fp.Close()
		return nil, errors.Wrap(err, "analysis log")
	}
	return l, nil
}

// Write appends r. Once the disk passes the usage limit further rows are
// dropped.
func (l *analysisLog) Write(r analysisRow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.full || l.w == nil {
		return
	}
	l.rows++
	if l.rows%analysisCheckEvery == 0 {
		l.w.Flush()
		if err := l.w.Error(); err != nil {
			l.fail(err)
			return
		}
		if l.usage(l.dir) >= analysisMaxUsage {
			l.full = true
			return
		}
	}
	if err := l.w.Write(r.record()); err != nil {
		l.fail(err)
	}
}

// fail stops the log after a write error. Close reports it.
func (l *analysisLog) fail(err error) {
	l.err = errors.Wrap(err, "analysis log")
	l.full = true
}

// Err returns the write error that stopped the log, if any.
func (l *analysisLog) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *analysisLog) Path() string {
	return l.fp.Name()
}

func (l *analysisLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.w == nil {
		return nil
	}
	l.w.Flush()
	err := l.err
	if err == nil {
		err = l.w.Error()
	}
	if cerr := l.fp.Close(); err == nil {
		err = cerr
	}
	l.w = nil
	return err
}

/*
	Copyright (c) 2015-2016 Christopher Young
	Distributable under the terms of The "BSD New"" License
	that can be found in the LICENSE file, herein included
	as part of this header.

	Modifications (c) 2016 AvSquirrel (https://github.com/AvSquirrel)
	monotonic.go: Monotonic clock since start - necessary because of real time clock changes on RPi.
*/

package main

import (
	"time"

	humanize "github.com/dustin/go-humanize"
)

// monotonic measures time from process start using the runtime's
// monotonic reading, so RTC or NTP jumps don't move it.
type monotonic struct {
	start time.Time
	now   func() time.Time
}

func newMonotonic() *monotonic {
	return &monotonic{start: time.Now(), now: time.Now}
}

// Time returns the current instant.
func (m *monotonic) Time() time.Time {
	return m.now()
}

// Since returns the time elapsed since t.
func (m *monotonic) Since(t time.Time) time.Duration {
	return m.now().Sub(t)
}

// Uptime returns the time since the clock was created.
func (m *monotonic) Uptime() time.Duration {
	return m.Since(m.start)
}

// HumanizeTime renders t relative to now, e.g. "3 minutes ago". The zero
// time renders as "never".
func (m *monotonic) HumanizeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, m.now(), "ago", "from now")
}

// Package session tracks the maximum lean angles of a ride and resets them
// once the bike has been upright for a while.
package session

import (
	"fmt"
	"time"
)

// DefaultResetAfter is how long the roll must stay within one degree of
// upright before the maxima are cleared.
const DefaultResetAfter = 5 * time.Second

// Session summarizes one stretch of riding between resets.
type Session struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	MaxRight float64   `json:"max_right"` // Largest roll, degrees.
	MaxLeft  float64   `json:"max_left"`  // Smallest roll, degrees (<= 0).
}

// Duration returns the length of the session.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Readout is what the lean display shows: whole degrees, without sign.
type Readout struct {
	MaxRight int `json:"max_right"`
	Roll     int `json:"roll"`
	MaxLeft  int `json:"max_left"`
}

func (r Readout) String() string {
	return fmt.Sprintf("%d | %d | %d", r.MaxRight, r.Roll, r.MaxLeft)
}

func absInt(v float64) int {
	i := int(v)
	if i < 0 {
		return -i
	}
	return i
}

// Tracker records lean extremes. It is not safe for concurrent use.
type Tracker struct {
	resetAfter time.Duration

	start     time.Time
	maxRight  float64
	maxLeft   float64
	zeroSince time.Time
	lastReset time.Time
	resets    int
}

// NewTracker returns a Tracker that clears its maxima after resetAfter of
// upright riding. A non-positive resetAfter selects DefaultResetAfter.
func NewTracker(resetAfter time.Duration) *Tracker {
	if resetAfter <= 0 {
		resetAfter = DefaultResetAfter
	}
	return &Tracker{resetAfter: resetAfter}
}

// Update folds in the fused roll at time now and returns the readout. When
// the maxima are reset and the finished session leaned at least one degree
// either way, that session is returned as well.
func (t *Tracker) Update(roll float64, now time.Time) (Readout, *Session) {
	if t.start.IsZero() {
		t.start = now
	}
	if roll > t.maxRight {
		t.maxRight = roll
	}
	if roll < t.maxLeft {
		t.maxLeft = roll
	}

	var done *Session
	if int(roll) != 0 {
		t.zeroSince = time.Time{}
	} else if t.zeroSince.IsZero() {
		t.zeroSince = now
	} else if now.Sub(t.zeroSince) > t.resetAfter {
		if absInt(t.maxRight) > 0 || absInt(t.maxLeft) > 0 {
			done = &Session{
				Start:    t.start,
				End:      now,
				MaxRight: t.maxRight,
				MaxLeft:  t.maxLeft,
			}
		}
		t.reset(now)
	}

	return Readout{
		MaxRight: absInt(t.maxRight),
		Roll:     absInt(roll),
		MaxLeft:  absInt(t.maxLeft),
	}, done
}

func (t *Tracker) reset(now time.Time) {
	t.maxRight = 0
	t.maxLeft = 0
	t.zeroSince = time.Time{}
	t.start = time.Time{}
	t.lastReset = now
	t.resets++
}

// MaxRight returns the largest roll since the last reset.
func (t *Tracker) MaxRight() float64 { return t.maxRight }

// MaxLeft returns the smallest roll since the last reset.
func (t *Tracker) MaxLeft() float64 { return t.maxLeft }

// LastReset returns when the maxima were last cleared, or the zero time.
func (t *Tracker) LastReset() time.Time { return t.lastReset }

// Resets returns how many times the maxima have been cleared.
func (t *Tracker) Resets() int { return t.resets }

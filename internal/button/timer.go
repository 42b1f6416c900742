package button

import (
	"time"

	"github.com/temoto/atomic_clock"
)

// clockZero is the origin for reading clock values through Sub.
var clockZero atomic_clock.Clock

// Timer is a single-shot polled timeout. Zero value is disarmed.
// Used for continuous-press repeat: armed on dispatch, polled every tick.
type Timer struct {
	deadline atomic_clock.Clock
	now      func() int64
}

// NewTimer with custom clock source, nil means atomic_clock.Source.
func NewTimer(now func() int64) *Timer {
	return &Timer{now: now}
}

func (t *Timer) source() int64 {
	if t.now != nil {
		return t.now()
	}
	return atomic_clock.Source()
}

// Start (re)arms the timer to elapse after d.
func (t *Timer) Start(d time.Duration) {
	at := t.source() + int64(d)
	if at == 0 {
		at = 1
	}
	t.deadline.Set(at)
}

func (t *Timer) Armed() bool { return !t.deadline.IsZero() }

// HasElapsed is true only while armed and past deadline.
func (t *Timer) HasElapsed() bool {
	if t.deadline.IsZero() {
		return false
	}
	return t.source() >= int64(t.deadline.Sub(&clockZero))
}

// Clear disarms the timer.
func (t *Timer) Clear() { t.deadline.Set(0) }

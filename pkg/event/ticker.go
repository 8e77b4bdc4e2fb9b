package event

import "time"

// Ticker produces Tick events with frame counters and elapsed time.
type Ticker struct {
	now   func() time.Time
	start time.Time
	last  time.Time
	frame int64
}

// NewTicker creates a ticker. A nil now uses time.Now.
func NewTicker(now func() time.Time) *Ticker {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Ticker{now: now, start: t, last: t}
}

// Next returns the Tick for the next frame.
func (t *Ticker) Next() Tick {
	n := t.now()
	t.frame++
	tick := Tick{
		Frame:   t.frame,
		Elapsed: n.Sub(t.start),
		Delta:   n.Sub(t.last),
	}
	t.last = n
	return tick
}

// Frame returns the number of ticks produced so far.
func (t *Ticker) Frame() int64 { return t.frame }

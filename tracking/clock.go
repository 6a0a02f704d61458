package tracking

import "sync/atomic"

// Clock hands out timestamps to one or more stores. It is the only piece of shared state
// that stores touch concurrently, hence the atomic counter.
type Clock struct {
	now atomic.Uint64
}

// NewClock returns a clock reading 1, so the window (0, Now()] already covers writes made
// before the first Tick.
func NewClock() *Clock {
	c := &Clock{}
	c.now.Store(1)
	return c
}

// Now returns the timestamp stamped on writes made right now.
func (c *Clock) Now() Timestamp {
	return Timestamp(c.now.Load())
}

// Tick advances the clock and returns the new reading.
func (c *Clock) Tick() Timestamp {
	return Timestamp(c.now.Add(1))
}

// Set moves the clock to ts. Used when restoring a snapshot.
func (c *Clock) Set(ts Timestamp) {
	c.now.Store(uint64(ts))
}

package tracewire

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Clock produces timestamps for a single span's measurement window.
//
// Operating system wall clocks commonly tick at 10-15ms granularity, too
// coarse to time short operations. Clock samples the wall clock once at
// construction and advances that base by elapsed time measured against
// the source's monotonic reading, so successive timestamps move in fine
// increments from a fixed anchor.
//
// A Clock never resynchronizes against the wall clock; that avoids
// mid-span timestamp jumps but lets wall/monotonic divergence accumulate
// (roughly half a second per hour). Create one Clock per span and discard
// it when the span finishes.
type Clock struct {
	source clockz.Clock
	base   time.Time
}

// NewClock samples the source once and returns a clock anchored there.
// A nil source falls back to the real clock.
func NewClock(source clockz.Clock) *Clock {
	if source == nil {
		source = clockz.RealClock
	}
	return &Clock{source: source, base: source.Now()}
}

// Now returns the anchored base advanced by the time elapsed since
// construction. Two calls on the same Clock never decrease.
func (c *Clock) Now() time.Time {
	return c.base.Add(c.source.Now().Sub(c.base))
}

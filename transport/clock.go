// SPDX-License-Identifier: Apache-2.0

package transport

import "time"

// Clock is the host's monotonic millisecond source, the hosted
// analogue of §6's now_ms(). hexwire itself takes the reading as a
// plain parameter rather than depending on a clock type directly;
// Clock exists for the host loop that drives HandleFrame and Tick.
type Clock struct {
	start time.Time
}

// NewClock starts a new monotonic clock at "now".
func NewClock() *Clock {
	return &Clock{start: time.Now()}
}

// NowMS returns milliseconds elapsed since the clock was created,
// truncated to a uint32 the way the reference firmware's free-running
// millisecond counter wraps.
func (c *Clock) NowMS() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

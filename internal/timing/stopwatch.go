// Package timing provides the monotonic stopwatch every latency and TTFB
// measurement in this module is built on.
package timing

import "time"

// Handle is an in-flight stopwatch reading. Zero value is not valid; obtain
// one from Start.
type Handle struct {
	start time.Time
}

// Start begins a stopwatch reading. Uses time.Now, whose Time value carries
// a monotonic clock reading (Go 1.9+) so Elapsed is unaffected by wall-clock
// adjustments (NTP steps, manual clock changes) between Start and Elapsed.
func Start() Handle {
	return Handle{start: time.Now()}
}

// Elapsed returns the duration since Start. Safe to call more than once;
// each call reflects elapsed time at the moment it's called.
func (h Handle) Elapsed() time.Duration {
	return time.Since(h.start)
}

// Stopwatch pairs a running Handle with a captured wall-clock timestamp for
// human-readable started_at/finished_at fields. The monotonic Handle is
// authoritative for every duration computation; StartedAt is display-only.
type Stopwatch struct {
	Handle
	StartedAt time.Time
}

// NewStopwatch starts both the monotonic handle and the wall-clock capture.
func NewStopwatch() Stopwatch {
	now := time.Now()
	return Stopwatch{Handle: Handle{start: now}, StartedAt: now}
}

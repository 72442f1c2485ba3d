// Package lifecycle holds process-wide state read by /health: when the process
// started serving and whether it is draining.
package lifecycle

import (
	"sync/atomic"
	"time"
)

var (
	shuttingDown atomic.Bool
	startedAt    atomic.Int64 // unix nanoseconds; 0 until MarkStarted
)

// SetShuttingDown flips the drain flag. /health reports shutting-down with 503 while set.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// MarkStarted records when the server began accepting traffic.
func MarkStarted(t time.Time) {
	startedAt.Store(t.UnixNano())
}

// Uptime returns the time since MarkStarted, truncated to seconds, or 0 if the
// server has not started.
func Uptime(now time.Time) time.Duration {
	ns := startedAt.Load()
	if ns == 0 {
		return 0
	}
	d := now.Sub(time.Unix(0, ns)).Truncate(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

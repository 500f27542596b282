// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the subset of the time package that fnhost's waits go
// through: deadlines, poll intervals and the post-spawn delay.
type Clock interface {
	Now() time.Time

	// After delivers the time once d has passed, or at once when d is
	// not positive.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks for d.
	Sleep(d time.Duration)
}

// Real returns the wall clock.
func Real() Clock { return wallClock{} }

type wallClock struct{}

func (wallClock) Now() time.Time                         { return time.Now() }
func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
func (wallClock) Sleep(d time.Duration)                  { time.Sleep(d) }

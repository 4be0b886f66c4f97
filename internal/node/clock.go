// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Lumenworks

package node

import "time"

// Clock abstracts monotonic time so scheduler and dispatcher timing can
// be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock {
	return systemClock{}
}

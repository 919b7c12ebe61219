package domain

import "time"

// Clock abstracts the time source so deadline and replenishment timestamps
// are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock used in production.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

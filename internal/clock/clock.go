// Package clock abstracts the subset of package time the dashboard needs so
// tests can control apparent time.
package clock

import "time"

type (
	// Clock is a source of "now" and of periodic ticks.
	Clock interface {
		Now() time.Time
		NewTicker(d time.Duration) Ticker
	}

	// Ticker abstracts the functionality of time.Ticker.
	Ticker interface {
		C() <-chan time.Time
		Stop()
	}

	wallClock struct{}

	ticker struct {
		*time.Ticker
	}
)

// Wall is the real clock.
var Wall Clock = wallClock{}

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}

// NewTicker indirects time.NewTicker.
func (wallClock) NewTicker(d time.Duration) Ticker {
	return ticker{Ticker: time.NewTicker(d)}
}

// C indirects time.Ticker.C.
func (t ticker) C() <-chan time.Time {
	return t.Ticker.C
}

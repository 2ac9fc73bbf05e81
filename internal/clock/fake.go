package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock. Tickers fire at most once per Advance,
// like a real ticker that drops ticks for a slow reader.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

type fakeTicker struct {
	c       chan time.Time
	period  time.Duration
	next    time.Time
	stopped bool
}

// NewFake returns a fake clock set to now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake's current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// NewTicker registers a ticker that fires when Advance crosses its period.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{c: make(chan time.Time, 1), period: d, next: f.now.Add(d)}
	f.tickers = append(f.tickers, t)
	return &fakeTickerHandle{f: f, t: t}
}

// Advance moves time forward and fires every due ticker.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	for _, t := range f.tickers {
		if t.stopped || f.now.Before(t.next) {
			continue
		}
		for !f.now.Before(t.next) {
			t.next = t.next.Add(t.period)
		}
		select {
		case t.c <- f.now:
		default:
		}
	}
}

type fakeTickerHandle struct {
	f *Fake
	t *fakeTicker
}

func (h *fakeTickerHandle) C() <-chan time.Time {
	return h.t.c
}

func (h *fakeTickerHandle) Stop() {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	h.t.stopped = true
}

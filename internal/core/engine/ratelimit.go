package engine

import (
	"sync"
	"time"
)

// DefaultWindow is the rolling window the gate counts requests in.
const DefaultWindow = time.Second

// RateGate admits at most Limit requests per rolling Window, shared by every
// caller holding the same gate.
type RateGate struct {
	Limit  int
	Window time.Duration
	Clock  func() time.Time
	Sleep  func(time.Duration)

	// OnWait, when set, is called with every non-zero delay before sleeping.
	OnWait func(time.Duration)

	mu  sync.Mutex
	log []time.Time
}

// NewRateGate returns a gate admitting limit requests per second.
func NewRateGate(limit int) *RateGate {
	return &RateGate{Limit: limit, Window: DefaultWindow}
}

// Acquire blocks until the caller may issue exactly one request. It never
// fails and cannot be cancelled once a delay has been scheduled.
func (g *RateGate) Acquire() {
	if g == nil {
		return
	}

	delay := g.reserve()
	if delay <= 0 {
		return
	}
	if g.OnWait != nil {
		g.OnWait(delay)
	}
	g.sleep(delay)
}

// reserve prunes the log, picks the earliest release time that keeps every
// window at or under the limit, records it and returns how long to wait.
func (g *RateGate) reserve() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	window := g.window()
	limit := g.limit()

	g.prune(now, window)

	release := now
	if len(g.log) >= limit {
		oldest := g.log[len(g.log)-limit]
		if candidate := oldest.Add(window); candidate.After(release) {
			release = candidate
		}
	}

	g.log = append(g.log, release)
	return release.Sub(now)
}

// prune drops timestamps that fell out of the window ending at now.
func (g *RateGate) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	keep := 0
	for keep < len(g.log) && !g.log[keep].After(cutoff) {
		keep++
	}
	if keep > 0 {
		g.log = append(g.log[:0], g.log[keep:]...)
	}
}

// Pending returns the number of timestamps still inside the window.
func (g *RateGate) Pending() int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.prune(g.now(), g.window())
	return len(g.log)
}

// Timestamps returns a copy of the recorded release times.
func (g *RateGate) Timestamps() []time.Time {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]time.Time, len(g.log))
	copy(out, g.log)
	return out
}

func (g *RateGate) limit() int {
	if g.Limit < 1 {
		return 1
	}
	return g.Limit
}

func (g *RateGate) window() time.Duration {
	if g.Window <= 0 {
		return DefaultWindow
	}
	return g.Window
}

func (g *RateGate) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now().UTC()
}

func (g *RateGate) sleep(d time.Duration) {
	if g.Sleep != nil {
		g.Sleep(d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	<-timer.C
}

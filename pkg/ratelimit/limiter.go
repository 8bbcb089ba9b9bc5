package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limit describes one request budget: at most MaxRequests dispatches are
// allowed within any trailing Period.
type Limit struct {
	Period      time.Duration
	MaxRequests int
}

// Validate checks that the limit is well-formed
func (l Limit) Validate() error {
	if l.Period <= 0 {
		return fmt.Errorf("rate limit period must be positive, got %v", l.Period)
	}
	if l.MaxRequests < 1 {
		return fmt.Errorf("rate limit max requests must be at least 1, got %d", l.MaxRequests)
	}
	return nil
}

// PerSecond returns a limit of n requests per second
func PerSecond(n int) Limit {
	return Limit{Period: time.Second, MaxRequests: n}
}

// SlidingWindow records dispatch timestamps and answers how many of them
// fall within a trailing time window. The window is owned by a single
// client instance; the mutex only guards integrators that fan out
// goroutines over one client.
type SlidingWindow struct {
	history []time.Time
	mu      sync.Mutex
}

// NewSlidingWindow creates an empty sliding window
func NewSlidingWindow() *SlidingWindow {
	return &SlidingWindow{
		history: make([]time.Time, 0, 16),
	}
}

// Record appends a dispatch timestamp to the window
func (sw *SlidingWindow) Record(now time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.history = append(sw.history, now)
}

// CountInWindow returns the number of recorded timestamps t such that
// t+period >= now. An empty history yields 0.
func (sw *SlidingWindow) CountInWindow(period time.Duration, now time.Time) int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	count := 0
	for _, t := range sw.history {
		if !t.Add(period).Before(now) {
			count++
		}
	}
	return count
}

// Prune drops timestamps older than retention to bound memory. It must
// run at least as often as the window is queried, otherwise the history
// grows without bound.
func (sw *SlidingWindow) Prune(retention time.Duration, now time.Time) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	cutoff := now.Add(-retention)

	// Records arrive in dispatch order, so find the first one still
	// inside the retention window and drop everything before it.
	i := 0
	for i < len(sw.history) && sw.history[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.history, sw.history[i:])
		sw.history = sw.history[:len(sw.history)-i]
	}
}

// Len returns the number of recorded timestamps
func (sw *SlidingWindow) Len() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return len(sw.history)
}

// Reset clears all recorded timestamps
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.history = sw.history[:0]
}

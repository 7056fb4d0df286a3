package clock

import (
	"sync"
	"time"
)

// NowReader supplies the current UTC time
type NowReader interface {
	ReadUTC() time.Time
}

// System reads the wall clock
type System struct{}

// ReadUTC returns time.Now in UTC
func (System) ReadUTC() time.Time {
	return time.Now().UTC()
}

// Fixed is a settable clock for tests and replays
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFixed creates a clock frozen at now
func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now.UTC()}
}

// ReadUTC returns the frozen time
func (f *Fixed) ReadUTC() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Advance moves the clock forward by d
func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

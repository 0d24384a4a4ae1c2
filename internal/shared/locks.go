package shared

import (
	"fmt"
	"sync"
	"time"
)

// ReplenishLockKey builds redis keys for the per-SKU check-and-create
// critical section of the auto-replenishment scheduler.
func ReplenishLockKey(sku string) string {
	return fmt.Sprintf("replenish:sku:%s:lock", sku)
}

// RunState tracks whether a recurring sync is currently executing. It
// replaces ambient process-wide booleans with an owned object: a run that
// overstays maxHold is considered abandoned and the state auto-releases.
type RunState struct {
	mu        sync.Mutex
	running   bool
	startedAt time.Time
	maxHold   time.Duration
}

// NewRunState constructs a RunState with the given auto-release window.
func NewRunState(maxHold time.Duration) *RunState {
	return &RunState{maxHold: maxHold}
}

// TryStart transitions idle -> running and reports whether it succeeded.
// A stale running state older than maxHold is reclaimed.
func (s *RunState) TryStart(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running && now.Sub(s.startedAt) <= s.maxHold {
		return false
	}
	s.running = true
	s.startedAt = now
	return true
}

// Finish transitions back to idle.
func (s *RunState) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Running reports the current state.
func (s *RunState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

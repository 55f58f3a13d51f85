package engine

import (
	"sync"
	"time"
)

// SystemState is the explicit on/off switch the scheduler consults before
// triggering a cycle. Passed around as a value, never a hidden singleton;
// the core itself stays stateless with respect to this flag.
type SystemState struct {
	mu        sync.RWMutex
	enabled   bool
	reason    string
	updatedAt time.Time
}

// NewSystemState creates the switch in the given position.
func NewSystemState(enabled bool) *SystemState {
	return &SystemState{
		enabled:   enabled,
		updatedAt: time.Now(),
	}
}

// Enabled reports whether scanning is switched on.
func (s *SystemState) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled
}

// SetEnabled flips the switch with an operator-supplied reason.
func (s *SystemState) SetEnabled(enabled bool, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
	s.reason = reason
	s.updatedAt = time.Now()
}

// Snapshot returns the current switch position for status surfaces.
func (s *SystemState) Snapshot() (enabled bool, reason string, updatedAt time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled, s.reason, s.updatedAt
}

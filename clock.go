package currents

import (
	"sync"
	"time"
)

// Clock supplies the current time for the loop's wall-clock deadline.
// Injecting a custom clock lets tests exercise deadline behavior
// without sleeping.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// SystemClock is the standard Clock backed by the system time.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// MockClock is a Clock that returns a controllable time. Useful for
// testing time-dependent functionality.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock starting at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the clock's current time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// SetTime replaces the clock's current time.
func (m *MockClock) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Compile-time checks that both clocks implement Clock.
var (
	_ Clock = SystemClock{}
	_ Clock = (*MockClock)(nil)
)

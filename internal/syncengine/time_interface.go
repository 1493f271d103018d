package syncengine

import "time"

// Ticker is an interface for time.Ticker to allow mocking.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TimeProvider provides time-related functionality for dependency injection.
type TimeProvider interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// RealTicker wraps time.Ticker to implement the Ticker interface.
type RealTicker struct {
	ticker *time.Ticker
}

// C returns the ticker's channel.
func (r *RealTicker) C() <-chan time.Time {
	return r.ticker.C
}

// Stop stops the ticker.
func (r *RealTicker) Stop() {
	r.ticker.Stop()
}

// RealTimeProvider implements TimeProvider using real time functions.
type RealTimeProvider struct{}

// NewTicker creates a new ticker.
func (r *RealTimeProvider) NewTicker(d time.Duration) Ticker {
	return &RealTicker{ticker: time.NewTicker(d)}
}

// Now returns the current time.
func (r *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// MockTicker is a Ticker driven by hand in tests.
type MockTicker struct {
	TickChan chan time.Time
	stopped  chan struct{}
}

// NewMockTicker creates an unbuffered MockTicker.
func NewMockTicker() *MockTicker {
	return &MockTicker{
		TickChan: make(chan time.Time),
		stopped:  make(chan struct{}),
	}
}

// C returns the ticker's channel.
func (m *MockTicker) C() <-chan time.Time {
	return m.TickChan
}

// Stop marks the ticker stopped. The tick channel is left open, like time.Ticker.
func (m *MockTicker) Stop() {
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}

// Stopped is closed once Stop has been called.
func (m *MockTicker) Stopped() <-chan struct{} {
	return m.stopped
}

// Tick delivers one tick and blocks until the consumer has taken it.
func (m *MockTicker) Tick() {
	m.TickChan <- time.Now()
}

// MockTimeProvider hands out a single MockTicker.
type MockTimeProvider struct {
	Ticker  *MockTicker
	Current time.Time
}

// NewMockTimeProvider creates a provider with a fresh MockTicker.
func NewMockTimeProvider() *MockTimeProvider {
	return &MockTimeProvider{Ticker: NewMockTicker(), Current: time.Now()}
}

// NewTicker returns the provider's MockTicker.
func (m *MockTimeProvider) NewTicker(time.Duration) Ticker {
	return m.Ticker
}

// Now returns the provider's fixed time.
func (m *MockTimeProvider) Now() time.Time {
	return m.Current
}

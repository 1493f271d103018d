package syncengine

import "time"

// Exported constants.
const (
	// RateWindow is how far back RateMeter looks when computing the rate.
	RateWindow = 10 * time.Second
	// ProgressPercentageScale converts 0-1 range to 0-100 range.
	ProgressPercentageScale = 100.0
)

// RateSample is a point-in-time reading of the queue's byte progress.
type RateSample struct {
	Timestamp   time.Time
	BytesCopied int64
}

// RateMeter turns periodic progress readings into a transfer rate using a
// rolling window, so the figure follows current disk speed rather than the
// run's average. It is not safe for concurrent use.
type RateMeter struct {
	window  time.Duration
	samples []RateSample
}

// NewRateMeter creates a meter over the given window. A non-positive window
// selects RateWindow.
func NewRateMeter(window time.Duration) *RateMeter {
	if window <= 0 {
		window = RateWindow
	}

	return &RateMeter{window: window}
}

// Add records a reading. Progress that goes backwards (a restarted queue or
// a new plan) discards the history.
func (m *RateMeter) Add(now time.Time, copied int64) {
	if n := len(m.samples); n > 0 && copied < m.samples[n-1].BytesCopied {
		m.samples = m.samples[:0]
	}

	m.samples = append(m.samples, RateSample{Timestamp: now, BytesCopied: copied})

	// Prune samples older than the window
	cutoff := now.Add(-m.window)
	filtered := m.samples[:0]

	for _, sample := range m.samples {
		if !sample.Timestamp.Before(cutoff) {
			filtered = append(filtered, sample)
		}
	}

	m.samples = filtered
}

// Rate returns bytes per second across the window, or 0 with fewer than two
// readings.
func (m *RateMeter) Rate() float64 {
	if len(m.samples) < 2 { //nolint:mnd // two points make a slope
		return 0
	}

	first, last := m.samples[0], m.samples[len(m.samples)-1]

	elapsed := last.Timestamp.Sub(first.Timestamp)
	if elapsed <= 0 {
		return 0
	}

	return float64(last.BytesCopied-first.BytesCopied) / elapsed.Seconds()
}

// ETA estimates the time needed for the remaining bytes. ok is false while
// no rate is known.
func (m *RateMeter) ETA(remaining int64) (eta time.Duration, ok bool) {
	rate := m.Rate()
	if rate <= 0 {
		return 0, false
	}

	if remaining <= 0 {
		return 0, true
	}

	return time.Duration(float64(remaining) / rate * float64(time.Second)), true
}

// Reset drops all readings.
func (m *RateMeter) Reset() {
	m.samples = m.samples[:0]
}

// Package watermark keeps the per-folder "last synced" table and the stores
// that persist it between runs.
package watermark

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Layout is the on-disk timestamp encoding, whole minutes in local time.
const Layout = "200601021504"

const maxYear = 9999

// Exported variables.
var (
	ErrStoreIO             = errors.New("watermark store I/O error")
	ErrTimestampOutOfRange = errors.New("timestamp outside the yyyyMMddHHmm range")
	ErrMalformedTimestamp  = errors.New("malformed timestamp")
)

// Epoch is the watermark of a folder that was never synced.
func Epoch() time.Time {
	return time.Unix(0, 0)
}

// Watermarks maps a folder identifier to the newest modification time
// already copied from it.
type Watermarks map[string]time.Time

// Advance raises the folder's watermark to t if t is newer and reports
// whether the table changed. Watermarks never move backwards.
func (w Watermarks) Advance(folder string, t time.Time) bool {
	current, ok := w[folder]
	if ok && !t.After(current) {
		return false
	}

	w[folder] = t

	return true
}

// Clone returns an independent copy of the table.
func (w Watermarks) Clone() Watermarks {
	if w == nil {
		return Watermarks{}
	}

	return maps.Clone(w)
}

// Folders returns the folder identifiers in sorted order.
func (w Watermarks) Folders() []string {
	return slices.Sorted(maps.Keys(w))
}

// Get returns the folder's watermark, or Epoch if it was never synced.
func (w Watermarks) Get(folder string) time.Time {
	if t, ok := w[folder]; ok {
		return t
	}

	return Epoch()
}

// CheckRepresentable fails with ErrTimestampOutOfRange when t cannot be
// written in the 12-digit encoding.
func CheckRepresentable(t time.Time) error {
	year := t.In(time.Local).Year()
	if year < 0 || year > maxYear {
		return fmt.Errorf("%w: %s", ErrTimestampOutOfRange, t.Format(time.RFC3339))
	}

	return nil
}

// FormatTime encodes t as yyyyMMddHHmm in local time. Seconds are dropped.
func FormatTime(t time.Time) (string, error) {
	if err := CheckRepresentable(t); err != nil {
		return "", err
	}

	return t.In(time.Local).Format(Layout), nil
}

// ParseTime decodes a yyyyMMddHHmm value in local time. Years before 1970
// are clamped to the epoch.
func ParseTime(s string) (time.Time, error) {
	if len(s) != len(Layout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
		}
	}

	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %w", ErrMalformedTimestamp, s, err)
	}

	if t.Before(Epoch()) {
		return Epoch(), nil
	}

	return t, nil
}

package shared

import (
	"strings"
	"time"
)

// ActivityLog keeps the most recent timestamped entries.
type ActivityLog struct {
	limit   int
	entries []string
}

// NewActivityLog creates a log holding at most limit entries.
func NewActivityLog(limit int) *ActivityLog {
	return &ActivityLog{limit: limit}
}

// Add appends an entry stamped with now, dropping the oldest past the limit.
func (l *ActivityLog) Add(now time.Time, text string) {
	l.entries = append(l.entries, now.Format("15:04:05")+" "+text)

	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = append(l.entries[:0], l.entries[len(l.entries)-l.limit:]...)
	}
}

// Entries returns the entries oldest first.
func (l *ActivityLog) Entries() []string {
	return append([]string(nil), l.entries...)
}

// RenderActivityLog renders a chronological activity log with optional title.
// Entries are displayed in chronological order (oldest to newest).
// If maxEntries > 0, limits display to the most recent N entries.
func RenderActivityLog(title string, entries []string, maxEntries int) string {
	var builder strings.Builder

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle != "" {
		builder.WriteString(RenderLabel(trimmedTitle))
		builder.WriteString("\n")

		if len(entries) > 0 {
			builder.WriteString("\n")
		}
	}

	if len(entries) == 0 {
		return builder.String()
	}

	// maxEntries <= 0 means show all entries
	startIdx := 0
	if maxEntries > 0 && maxEntries < len(entries) {
		startIdx = len(entries) - maxEntries
	}

	for i := startIdx; i < len(entries); i++ {
		builder.WriteString("  ")
		builder.WriteString(entries[i])

		if i < len(entries)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

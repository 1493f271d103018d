package widgets

import "github.com/joe/media-sync/internal/tui/shared"

// NewActivityLogWidget creates a widget that displays the most recent
// activity entries, oldest first.
func NewActivityLogWidget(log *shared.ActivityLog, maxEntries int) func() string {
	return func() string {
		return shared.RenderActivityLog("", log.Entries(), maxEntries)
	}
}

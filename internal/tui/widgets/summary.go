package widgets

import (
	"fmt"

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
)

// NewSummaryWidget creates a widget that summarises the finished queue.
func NewSummaryWidget(getSummary func() syncengine.Summary) func() string {
	return func() string {
		summary := getSummary()
		if summary.Planned == 0 {
			return "Nothing was copied"
		}

		filesWord := "files"
		if summary.Completed == 1 {
			filesWord = "file"
		}

		text := fmt.Sprintf("Copied: %d %s (%s)", summary.Completed, filesWord, shared.FormatBytes(summary.Bytes))
		if summary.Failed > 0 {
			text += "\n" + shared.RenderError(fmt.Sprintf("Not copied: %d", summary.Failed))
		}

		return text
	}
}

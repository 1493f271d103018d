package widgets

import (
	"fmt"
	"strings"

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
)

// NewSyncPlanWidget creates a widget that displays the plan summary and the
// first few queued items.
func NewSyncPlanWidget(getPlan func() *syncengine.Plan, maxItems int) func() string {
	return func() string {
		plan := getPlan()
		if plan == nil {
			return "Not planned yet"
		}

		var builder strings.Builder

		builder.WriteString(syncengine.StatusLine(plan))

		shown := plan.Items
		if maxItems > 0 && len(shown) > maxItems {
			shown = shown[:maxItems]
		}

		for _, item := range shown {
			fmt.Fprintf(&builder, "\n  %s  %s", item.RelativePath, shared.RenderDim(shared.FormatBytes(item.Size)))
		}

		if more := plan.Len() - len(shown); more > 0 {
			fmt.Fprintf(&builder, "\n  ... and %d more", more)
		}

		return builder.String()
	}
}

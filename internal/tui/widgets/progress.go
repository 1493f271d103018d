package widgets

import (
	"fmt"
	"strings"

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/internal/tui/shared"
)

// NewProgressWidget creates a widget that displays queue progress.
// Returns a closure that formats the current status and transfer rate.
func NewProgressWidget(getStatus func() syncengine.Status, meter *syncengine.RateMeter) func() string {
	return func() string {
		status := getStatus()
		if status.Phase == syncengine.PhaseUnplanned {
			return "Files: 0 / 0 (0.0%)\nBytes: 0 B / 0 B"
		}

		var builder strings.Builder

		fmt.Fprintf(&builder, "Files: %d / %d (%.1f%%)\nBytes: %s / %s",
			min(status.Index, status.Total),
			status.Total,
			status.Percent()*shared.ProgressPercentageScale,
			shared.FormatBytes(status.BytesCopied),
			shared.FormatBytes(status.BytesTotal))

		if meter == nil || status.Phase != syncengine.PhaseCopying {
			return builder.String()
		}

		if rate := meter.Rate(); rate > 0 {
			fmt.Fprintf(&builder, "\nRate: %s", shared.FormatRate(rate))

			if eta, ok := meter.ETA(status.BytesTotal - status.BytesCopied); ok {
				fmt.Fprintf(&builder, "  ETA: %s", shared.FormatDuration(eta))
			}
		}

		return builder.String()
	}
}

package shared

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/joe/media-sync/internal/syncengine"
)

// NewProgressModel creates the byte progress bar. The percentage is printed
// next to it by RenderQueueProgress, so the bar hides its own.
func NewProgressModel(width int) progress.Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = width
	bar.ShowPercentage = false

	if !colorsDisabled {
		bar.EmptyColor = dimColorCode
		bar.FullColor = accentColorCode
	}

	return bar
}

// RenderASCIIProgress draws "[=====>    ] 55%" for terminals without colour.
// percent is clamped to [0, 1].
func RenderASCIIProgress(percent float64, width int) string {
	percent = min(max(percent, 0), 1)
	filled := int(percent * float64(width))

	var cells string

	switch {
	case filled >= width:
		cells = strings.Repeat("=", width)
	case percent == 0:
		cells = strings.Repeat(" ", width)
	default:
		head := max(filled, 1)
		cells = strings.Repeat("=", head-1) + ">" + strings.Repeat(" ", width-head)
	}

	return fmt.Sprintf("[%s] %d%%", cells, int(percent*ProgressPercentageScale))
}

// RenderProgress draws the bar with bubbles, or in ASCII when colours are
// disabled (NO_COLOR or TERM=dumb).
func RenderProgress(model progress.Model, percent float64) string {
	if colorsDisabled {
		return RenderASCIIProgress(percent, model.Width)
	}

	return model.ViewAs(min(max(percent, 0), 1))
}

// RenderQueueProgress draws the byte bar followed by the file position, e.g.
// "███░░ 2/5".
func RenderQueueProgress(model progress.Model, status syncengine.Status) string {
	position := fmt.Sprintf("%d/%d", min(status.Index+1, status.Total), status.Total)

	return RenderProgress(model, status.Percent()) + "  " + RenderDim(position)
}

package shared

import (
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Layout and cadence.
const (
	DefaultPadding      = 2
	ProgressBarWidth    = 40
	MaxProgressBarWidth = 100
	ActivityLogEntries  = 8
	// ErrorListEntries is how many failed items are listed at once
	ErrorListEntries = 3

	// TickInterval matches the engine's poll interval
	TickInterval = 100 * time.Millisecond

	ProgressEllipsisLength  = 3
	ProgressPercentageScale = 100
)

// 256-colour palette.
const (
	accentColorCode  = "62"  // blue
	dimColorCode     = "240" // dark gray
	errorColorCode   = "196" // red
	labelColorCode   = "86"  // cyan
	primaryColorCode = "205" // pink
	successColorCode = "42"  // green
	warningColorCode = "226" // yellow
)

// colorsDisabled is set when NO_COLOR is present or the terminal is dumb.
//
//nolint:gochecknoglobals // terminal capability detected once at startup
var colorsDisabled = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"

// ColorsDisabled reports whether styled output is turned off.
func ColorsDisabled() bool {
	return colorsDisabled
}

// SetColorsDisabledForTesting overrides terminal detection. Not safe for
// parallel tests.
func SetColorsDisabledForTesting(disabled bool) {
	colorsDisabled = disabled
}

// PrimaryColor is used for titles.
func PrimaryColor() lipgloss.Color { return lipgloss.Color(primaryColorCode) }

func fg(code string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(code))
}

// BoxStyle frames the activity and plan widgets.
func BoxStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(accentColorCode)).
		Padding(0, 1)
}

// FileItemCopyingStyle marks the item being copied.
func FileItemCopyingStyle() lipgloss.Style { return fg(warningColorCode) }

// FileItemErrorStyle marks an item that was not copied.
func FileItemErrorStyle() lipgloss.Style { return fg(errorColorCode) }

// ErrorSymbol prefixes a failed item.
func ErrorSymbol() string { return RenderError("✗") }

// SuccessSymbol prefixes a copied item.
func SuccessSymbol() string { return fg(successColorCode).Bold(true).Render("✓") }

func RenderDim(text string) string     { return fg(dimColorCode).Render(text) }
func RenderError(text string) string   { return fg(errorColorCode).Bold(true).Render(text) }
func RenderLabel(text string) string   { return fg(labelColorCode).Bold(true).Render(text) }
func RenderTitle(text string) string   { return fg(primaryColorCode).Bold(true).Render(text) }
func RenderWarning(text string) string { return fg(warningColorCode).Bold(true).Render(text) }

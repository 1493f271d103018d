package shared

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joe/media-sync/internal/syncengine"
	"github.com/joe/media-sync/pkg/errors"
)

// ErrorListConfig holds configuration for rendering error lists
type ErrorListConfig struct {
	// Failures are the queue items that did not copy
	Failures []*syncengine.CopyError

	// Limit caps the number of items shown; <= 0 shows all
	Limit int

	// DestRoot is joined with an item's relative path for suggestions
	DestRoot string

	// MaxWidth is the maximum width for path and error message display
	MaxWidth int

	// ShowSuggestions adds the enricher's advice below each item
	ShowSuggestions bool
}

// RenderErrorList renders failed items, newest last, with an overflow line
// when there are more than Limit.
func RenderErrorList(config ErrorListConfig) string {
	if len(config.Failures) == 0 {
		return ""
	}

	var builder strings.Builder

	enricher := errors.NewEnricher()

	shown := config.Failures
	if config.Limit > 0 && len(shown) > config.Limit {
		shown = shown[len(shown)-config.Limit:]
		fmt.Fprintf(&builder, "  ... and %d earlier\n", len(config.Failures)-config.Limit)
	}

	for _, failure := range shown {
		displayPath := TruncatePath(failure.Item.RelativePath, config.MaxWidth)

		fmt.Fprintf(&builder, "  %s %s\n", ErrorSymbol(), FileItemErrorStyle().Render(displayPath))

		errMsg := failure.Error()
		if failure.Err != nil {
			errMsg = failure.Err.Error()
		}

		if config.MaxWidth > ProgressEllipsisLength && len(errMsg) > config.MaxWidth {
			errMsg = errMsg[:config.MaxWidth-ProgressEllipsisLength] + "..."
		}

		fmt.Fprintf(&builder, "    %s\n", errMsg)

		if !config.ShowSuggestions {
			continue
		}

		affected := ""
		if config.DestRoot != "" {
			affected = filepath.Join(config.DestRoot, filepath.FromSlash(failure.Item.RelativePath))
		}

		suggestions := errors.FormatSuggestions(enricher.Enrich(failure.Err, affected))
		if suggestions != "" {
			fmt.Fprintf(&builder, "    %s\n", strings.ReplaceAll(suggestions, "\n", "\n    "))
		}
	}

	return builder.String()
}

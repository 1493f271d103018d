package errors

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

// Enricher enriches standard errors with actionable suggestions.
type Enricher interface {
	Enrich(err error, affectedPath string) error
}

// NewEnricher creates a new Enricher with default pattern matcher and suggestion generator.
func NewEnricher() Enricher {
	return &enricher{
		matcher:   NewPatternMatcher(),
		generator: NewSuggestionGenerator(),
	}
}

// unexported variables.
var (
	//nolint:gochecknoglobals // Compiled regexes shared across all enricher instances for performance
	pathExtractionPatterns = []*regexp.Regexp{
		// Unix/Linux paths (absolute and relative)
		regexp.MustCompile(`\b\w+\s+([./][^\s:]+):`),
		// Windows paths with backslashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:\\[^\s:]+):`),
		// Windows paths with forward slashes
		regexp.MustCompile(`\b\w+\s+([A-Za-z]:/[^\s:]+):`),
	}
)

// enricher is the concrete implementation of Enricher.
type enricher struct {
	matcher   PatternMatcher
	generator SuggestionGenerator
}

// Enrich categorises err and attaches suggestions for affectedPath. An error
// that already carries an ActionableError is returned unchanged.
func (e *enricher) Enrich(err error, affectedPath string) error {
	if err == nil {
		return nil
	}

	var actionableErr ActionableError
	if errors.As(err, &actionableErr) {
		return actionableErr
	}

	if affectedPath == "" {
		affectedPath = pathFromError(err)
	}

	category := e.categorize(err)

	return NewActionableError(err, category, e.generator.Generate(category, affectedPath), affectedPath)
}

// categorize matches the message first, so media-sync's own wording wins
// over the OS error it wraps, then falls back to the OS error class.
func (e *enricher) categorize(err error) ErrorCategory {
	if category := e.matcher.Match(err.Error()); category != CategoryUnknown {
		return category
	}

	switch {
	case errors.Is(err, fs.ErrExist):
		return CategoryExists
	case errors.Is(err, fs.ErrPermission):
		return CategoryPermission
	case errors.Is(err, fs.ErrNotExist):
		return CategoryPath
	default:
		return CategoryUnknown
	}
}

// pathFromError returns the path of a wrapped *fs.PathError, or one parsed
// from the message.
func pathFromError(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) && pathErr.Path != "" {
		return pathErr.Path
	}

	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return linkErr.New
	}

	return extractPath(err.Error())
}

// extractPath attempts to extract a file path from common Go error message formats.
// Returns empty string if no path is found.
//
// This function recognizes standard Go error formats like:
//   - "open /media/trip/day1.mp4: permission denied"
//   - "stat /mnt/backup/trip: no such file or directory"
//   - "remove C:\Videos\trip\day1.mp4: access denied"
func extractPath(errorMsg string) string {
	for _, pattern := range pathExtractionPatterns {
		if matches := pattern.FindStringSubmatch(errorMsg); len(matches) > 1 {
			path := strings.TrimSpace(matches[1])
			if path != "" {
				return path
			}
		}
	}

	return ""
}

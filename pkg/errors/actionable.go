// Package errors attaches a category and suggestions for the user to copy,
// planning and control-file errors, so a failed queue item can be shown with
// something more useful than the raw OS message.
//
//	enricher := errors.NewEnricher()
//	if err := copier.Err(); err != nil {
//	    enriched := enricher.Enrich(err, "/archive/trip/day1.mp4")
//	    fmt.Println(enriched)
//	    fmt.Println(errors.FormatSuggestions(enriched))
//	}
//
// Without an explicit path the enricher takes it from a wrapped
// *fs.PathError, or failing that from the message ("open /x/y: ...").
// Enriched errors wrap their cause, so errors.Is still sees sentinels such
// as fileops.ErrDestinationExists.
package errors

import (
	"errors"
	"strings"
)

// Exported constants.
const (
	CategoryCleanup     ErrorCategory = "cleanup"
	CategoryControlFile ErrorCategory = "control_file"
	CategoryCopy        ErrorCategory = "copy"
	CategoryDiskSpace   ErrorCategory = "disk_space"
	CategoryExists      ErrorCategory = "exists"
	CategoryMissingRoot ErrorCategory = "missing_root"
	CategoryPath        ErrorCategory = "path"
	CategoryPermission  ErrorCategory = "permission"
	CategoryTimestamp   ErrorCategory = "timestamp"
	CategoryUnknown     ErrorCategory = "unknown"
)

// ActionableError is an error with a category and suggestions attached.
type ActionableError interface {
	error
	Unwrap() error
	OriginalError() string
	Category() ErrorCategory
	Suggestions() []string
	AffectedPath() string
}

// NewActionableError wraps cause.
func NewActionableError(
	cause error,
	category ErrorCategory,
	suggestions []string,
	affectedPath string,
) ActionableError {
	return &actionableError{
		cause:        cause,
		category:     category,
		suggestions:  suggestions,
		affectedPath: affectedPath,
	}
}

// ErrorCategory represents the type of error that occurred.
type ErrorCategory string

// FormatSuggestions renders the suggestions of an ActionableError anywhere in
// err's chain as an indented bullet list. It returns "" when there are none.
func FormatSuggestions(err error) string {
	var actionable ActionableError
	if !errors.As(err, &actionable) {
		return ""
	}

	suggestions := actionable.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}

	lines := make([]string, 0, len(suggestions))
	for _, suggestion := range suggestions {
		lines = append(lines, "  • "+suggestion)
	}

	return strings.Join(lines, "\n")
}

type actionableError struct {
	cause        error
	category     ErrorCategory
	suggestions  []string
	affectedPath string
}

func (e *actionableError) AffectedPath() string {
	return e.affectedPath
}

func (e *actionableError) Category() ErrorCategory {
	return e.category
}

func (e *actionableError) Error() string {
	return e.OriginalError()
}

// OriginalError returns the cause's message.
func (e *actionableError) OriginalError() string {
	if e.cause == nil {
		return string(e.category)
	}

	return e.cause.Error()
}

func (e *actionableError) Suggestions() []string {
	return e.suggestions
}

func (e *actionableError) Unwrap() error {
	return e.cause
}

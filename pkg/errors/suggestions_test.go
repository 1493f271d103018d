package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/joe/media-sync/pkg/errors"
)

func TestSuggestionGenerator_EveryCategoryHasSuggestions(t *testing.T) {
	t.Parallel()

	categories := []errors.ErrorCategory{
		errors.CategoryCleanup,
		errors.CategoryControlFile,
		errors.CategoryCopy,
		errors.CategoryDiskSpace,
		errors.CategoryExists,
		errors.CategoryMissingRoot,
		errors.CategoryPath,
		errors.CategoryPermission,
		errors.CategoryTimestamp,
		errors.CategoryUnknown,
		errors.ErrorCategory("made-up"),
	}

	generator := errors.NewSuggestionGenerator()

	for _, category := range categories {
		t.Run(string(category), func(t *testing.T) {
			t.Parallel()

			if got := generator.Generate(category, ""); len(got) == 0 {
				t.Errorf("expected suggestions for %q", category)
			}
		})
	}
}

func TestSuggestionGenerator_MentionsPath(t *testing.T) {
	t.Parallel()

	generator := errors.NewSuggestionGenerator()

	for _, category := range []errors.ErrorCategory{
		errors.CategoryCleanup,
		errors.CategoryControlFile,
		errors.CategoryExists,
		errors.CategoryMissingRoot,
		errors.CategoryTimestamp,
		errors.CategoryPermission,
	} {
		suggestions := generator.Generate(category, "/dst/trip/day1.mp4")
		if !strings.Contains(strings.Join(suggestions, "\n"), "/dst/trip/day1.mp4") {
			t.Errorf("expected %q suggestions to mention the path, got %v", category, suggestions)
		}
	}
}

func TestFormatSuggestions(t *testing.T) {
	t.Parallel()

	actionable := errors.NewActionableError(stderrors.New("boom"), errors.CategoryCopy, []string{"one", "two"}, "")

	want := "  • one\n  • two"
	if got := errors.FormatSuggestions(actionable); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := errors.FormatSuggestions(nil); got != "" {
		t.Errorf("expected empty string for nil, got %q", got)
	}

	empty := errors.NewActionableError(stderrors.New("boom"), errors.CategoryCopy, nil, "")
	if got := errors.FormatSuggestions(empty); got != "" {
		t.Errorf("expected empty string without suggestions, got %q", got)
	}
}

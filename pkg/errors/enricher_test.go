package errors_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	pkgerrors "github.com/joe/media-sync/pkg/errors"
)

func TestEnricher_EnrichAlreadyActionableError(t *testing.T) {
	t.Parallel()

	enricher := pkgerrors.NewEnricher()
	originalActionable := pkgerrors.NewActionableError(
		errors.New("permission denied"), //nolint:err113 // test input
		pkgerrors.CategoryPermission,
		[]string{"existing suggestion"},
		"/original/path",
	)

	enriched := enricher.Enrich(originalActionable, "/new/path")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr != originalActionable {
		t.Error("expected same ActionableError instance when enriching ActionableError")
	}
}

func TestEnricher_EnrichNil(t *testing.T) {
	t.Parallel()

	if err := pkgerrors.NewEnricher().Enrich(nil, "/x"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestEnricher_EnrichDestinationExists(t *testing.T) {
	t.Parallel()

	cause := errors.New("Destination file exists.") //nolint:err113,staticcheck // mirrors the copier's message
	err := fmt.Errorf("copy a/1.mp4: %w", cause)

	enriched := pkgerrors.NewEnricher().Enrich(err, "/dst/a/1.mp4")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.Category() != pkgerrors.CategoryExists {
		t.Errorf("expected category %q, got %q", pkgerrors.CategoryExists, actionableErr.Category())
	}

	if actionableErr.AffectedPath() != "/dst/a/1.mp4" {
		t.Errorf("expected affected path to be kept, got %q", actionableErr.AffectedPath())
	}

	if actionableErr.Error() != err.Error() {
		t.Errorf("expected message %q, got %q", err.Error(), actionableErr.Error())
	}
}

func TestEnricher_ExtractsPathFromMessage(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		errorMsg string
		wantPath string
	}{
		{"open", "open /media/trip/day1.mp4: permission denied", "/media/trip/day1.mp4"},
		{"stat", "stat ./trip: no such file or directory", "./trip"},
		{"windows", `remove C:\Videos\day1.mp4: access denied`, `C:\Videos\day1.mp4`},
		{"no path", "disk full", ""},
	}

	enricher := pkgerrors.NewEnricher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			enriched := enricher.Enrich(errors.New(testCase.errorMsg), "") //nolint:err113 // test input

			var actionableErr pkgerrors.ActionableError
			if !errors.As(enriched, &actionableErr) {
				t.Fatalf("expected ActionableError, got %T", enriched)
			}

			if actionableErr.AffectedPath() != testCase.wantPath {
				t.Errorf("expected path %q, got %q", testCase.wantPath, actionableErr.AffectedPath())
			}
		})
	}
}

func TestEnricher_UsesPathErrorAndKeepsCause(t *testing.T) {
	t.Parallel()

	cause := &fs.PathError{Op: "open", Path: "/media/trip/day1.mp4", Err: fs.ErrPermission}
	err := fmt.Errorf("failed to open source file: %w", cause)

	enriched := pkgerrors.NewEnricher().Enrich(err, "")

	var actionableErr pkgerrors.ActionableError
	if !errors.As(enriched, &actionableErr) {
		t.Fatalf("expected ActionableError, got %T", enriched)
	}

	if actionableErr.AffectedPath() != "/media/trip/day1.mp4" {
		t.Errorf("expected path from the PathError, got %q", actionableErr.AffectedPath())
	}

	if actionableErr.Category() != pkgerrors.CategoryPermission {
		t.Errorf("expected category %q, got %q", pkgerrors.CategoryPermission, actionableErr.Category())
	}

	if !errors.Is(enriched, fs.ErrPermission) {
		t.Error("expected the enriched error to wrap its cause")
	}

	if pkgerrors.FormatSuggestions(fmt.Errorf("item: %w", enriched)) == "" {
		t.Error("expected suggestions to be found through wrapping")
	}
}

func TestEnricher_CategoryPrecedence(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		err  error
		want pkgerrors.ErrorCategory
	}{
		{
			"control file wording wins over the wrapped OS error",
			fmt.Errorf("Can't save control file: %w", &fs.PathError{Op: "open", Path: "/m/videos.xml", Err: fs.ErrPermission}),
			pkgerrors.CategoryControlFile,
		},
		{
			"falls back to the OS error class",
			fmt.Errorf("lookup: %w", fs.ErrNotExist),
			pkgerrors.CategoryPath,
		},
		{
			"unrecognised",
			errors.New("something odd"), //nolint:err113 // test input
			pkgerrors.CategoryUnknown,
		},
	}

	enricher := pkgerrors.NewEnricher()

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var actionableErr pkgerrors.ActionableError
			if !errors.As(enricher.Enrich(testCase.err, ""), &actionableErr) {
				t.Fatal("expected ActionableError")
			}

			if actionableErr.Category() != testCase.want {
				t.Errorf("expected category %q, got %q", testCase.want, actionableErr.Category())
			}
		})
	}
}

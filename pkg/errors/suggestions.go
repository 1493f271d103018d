package errors

import "fmt"

// SuggestionGenerator generates actionable suggestions based on error category.
type SuggestionGenerator interface {
	Generate(category ErrorCategory, affectedPath string) []string
}

// NewSuggestionGenerator creates a new SuggestionGenerator.
func NewSuggestionGenerator() SuggestionGenerator {
	return &suggestionGenerator{}
}

type suggestionGenerator struct{}

// advice holds the suggestions for one category. The path-specific line is
// used when a path is known, the generic one otherwise; either may be empty.
type advice struct {
	lead     []string
	withPath func(path string) string
	noPath   string
	tail     []string
}

//nolint:gochecknoglobals // read-only lookup table
var adviceByCategory = map[ErrorCategory]advice{
	CategoryCleanup: {
		lead:     []string{"A partial copy could not be removed and may be truncated"},
		withPath: func(p string) string { return "Delete " + p + " by hand before planning again" },
		noPath:   "Delete the leftover file by hand before planning again",
	},
	CategoryControlFile: {
		lead:     []string{"Progress since the last save is kept in memory and saved again when the queue is idle"},
		withPath: func(p string) string { return fmt.Sprintf("Check that %s exists and is writable", p) },
		noPath:   "Check that the control file exists and is writable",
		tail:     []string{"Make sure no other media-sync run is using the same control file"},
	},
	CategoryCopy: {
		lead: []string{
			"The file was not copied and its folder's watermark was held back, so it is planned again",
			"Check the source card or drive and the destination for I/O errors (dmesg, Console)",
		},
		withPath: func(p string) string { return "Re-plan and copy again; if " + p + " keeps failing, copy it by hand" },
		noPath:   "Re-plan and copy again; a transient read error often clears",
	},
	CategoryDiskSpace: {
		lead:     []string{"Free up space on the destination drive, media files are preallocated at full size"},
		withPath: func(p string) string { return "Check free space on the drive holding " + p + " with 'df -h'" },
		noPath:   "Check free space with 'df -h'",
	},
	CategoryExists: {
		lead:     []string{"The destination file was left untouched"},
		withPath: func(p string) string { return fmt.Sprintf("Compare %s with the source and remove it if it is incomplete", p) },
		tail:     []string{"Plan again; files already present are not queued"},
	},
	CategoryMissingRoot: {
		lead:     []string{"Check that the drive holding the folder is mounted"},
		withPath: func(p string) string { return "Verify the path is spelled correctly: " + p },
		tail:     []string{"Plan again once the folder is available"},
	},
	CategoryPath: {
		lead:     []string{"A folder or file disappeared between planning and copying"},
		withPath: func(p string) string { return "Check that the parent folders of " + p + " exist" },
		noPath:   "Check that the parent folders exist",
		tail:     []string{"Plan again to pick up the current state of the source"},
	},
	CategoryPermission: {
		lead:     []string{"media-sync needs read access to the source and write access to the destination"},
		withPath: func(p string) string { return fmt.Sprintf("Check permissions with 'ls -la %s'", p) },
		noPath:   "Check permissions with 'ls -la' on the affected path",
		tail:     []string{"Read-only mounts (a locked SD card, an NTFS drive on macOS) also report this"},
	},
	CategoryTimestamp: {
		lead:     []string{"The file's modification time cannot be stored as a watermark"},
		withPath: func(p string) string { return fmt.Sprintf("Fix the date with 'touch %s' and plan again", p) },
		noPath:   "Fix the file's date with 'touch' and plan again",
	},
	CategoryUnknown: {
		lead:     []string{"Check the error message and the log file for details"},
		withPath: func(p string) string { return "Verify the path is accessible: " + p },
		tail:     []string{"Plan again; items that were not copied are always planned again"},
	},
}

// Generate returns the suggestions for category. Unknown categories get the
// generic advice.
func (g *suggestionGenerator) Generate(category ErrorCategory, affectedPath string) []string {
	adv, ok := adviceByCategory[category]
	if !ok {
		adv = adviceByCategory[CategoryUnknown]
	}

	suggestions := append([]string(nil), adv.lead...)

	switch {
	case affectedPath != "" && adv.withPath != nil:
		suggestions = append(suggestions, adv.withPath(affectedPath))
	case adv.noPath != "":
		suggestions = append(suggestions, adv.noPath)
	}

	return append(suggestions, adv.tail...)
}

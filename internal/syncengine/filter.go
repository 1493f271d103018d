package syncengine

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MediaExtensions are the file extensions planned for copying.
//
//nolint:gochecknoglobals // fixed set, read-only
var MediaExtensions = []string{"avi", "mkv", "mov", "mp4", "mpg"}

// MediaPattern matches a base name carrying one of MediaExtensions.
var MediaPattern = "*.{" + strings.Join(MediaExtensions, ",") + "}" //nolint:gochecknoglobals // derived from MediaExtensions

// FileFilter decides which file names are planned and copied.
type FileFilter interface {
	ShouldInclude(name string) bool
}

// GlobFilter matches base names against a doublestar pattern, ignoring case.
// An empty pattern matches everything; an invalid one matches nothing.
type GlobFilter struct {
	pattern string
	valid   bool
}

// NewGlobFilter compiles pattern.
func NewGlobFilter(pattern string) *GlobFilter {
	pattern = strings.ToLower(pattern)

	return &GlobFilter{
		pattern: pattern,
		valid:   doublestar.ValidatePattern(pattern),
	}
}

// NewMediaFilter returns the filter for MediaExtensions.
func NewMediaFilter() *GlobFilter {
	return NewGlobFilter(MediaPattern)
}

// ShouldInclude reports whether name (a base name or a slash path, of which
// only the last element counts) passes the filter.
func (f *GlobFilter) ShouldInclude(name string) bool {
	if f.pattern == "" {
		return true
	}

	if !f.valid {
		return false
	}

	matched, err := doublestar.Match(f.pattern, strings.ToLower(path.Base(name)))

	return err == nil && matched
}

package errors

import "strings"

// PatternMatcher matches error messages to categories using string patterns.
type PatternMatcher interface {
	Match(errorMsg string) ErrorCategory
}

// NewPatternMatcher creates a new PatternMatcher with predefined patterns.
// Rules are tried in order, so the more specific media-sync messages come
// before the generic OS ones they may embed.
func NewPatternMatcher() PatternMatcher {
	return &patternMatcher{
		rules: []matchRule{
			{CategoryExists, []string{
				"destination file exists",
				"file exists",
			}},
			{CategoryControlFile, []string{
				"can't save control file",
				"control file not found",
				"watermark store",
			}},
			{CategoryMissingRoot, []string{
				"source folder not found",
				"destination folder not found",
			}},
			{CategoryTimestamp, []string{
				"timestamp outside",
				"malformed timestamp",
			}},
			{CategoryPermission, []string{
				"permission denied",
				"access denied",
				"operation not permitted",
				"read-only file system",
			}},
			{CategoryDiskSpace, []string{
				"no space left on device",
				"disk full",
				"quota exceeded",
			}},
			{CategoryCleanup, []string{
				"directory not empty",
				"failed to remove",
				"cannot remove",
			}},
			{CategoryPath, []string{
				"no such file or directory",
				"file not found",
				"path does not exist",
			}},
			{CategoryCopy, []string{
				"short write",
				"input/output error",
				"i/o error",
				"changed during copy",
			}},
		},
	}
}

type matchRule struct {
	category ErrorCategory
	patterns []string
}

// patternMatcher is the concrete implementation of PatternMatcher.
type patternMatcher struct {
	rules []matchRule
}

// Match returns the category of the first rule with a matching pattern.
func (m *patternMatcher) Match(errorMsg string) ErrorCategory {
	lowerMsg := strings.ToLower(errorMsg)

	for _, rule := range m.rules {
		for _, pattern := range rule.patterns {
			if strings.Contains(lowerMsg, pattern) {
				return rule.category
			}
		}
	}

	return CategoryUnknown
}

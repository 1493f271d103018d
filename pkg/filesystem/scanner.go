package filesystem

import (
	"path"
	"strings"
	"time"
)

// FileScanner walks a directory tree. Call Err once Next reports false to
// tell the end of the walk from a failure.
type FileScanner interface {
	Next() (FileInfo, bool)
	Err() error
}

// FileInfo describes one entry found by Scan or ReadDir.
type FileInfo struct {
	// RelativePath is slash-separated and relative to the scan root. ReadDir
	// sets it to the base name.
	RelativePath string
	Size         int64
	ModTime      time.Time
	IsDir        bool
}

// Folder returns the slash-separated directory part of RelativePath, or ""
// for an entry directly under the root.
func (f FileInfo) Folder() string {
	i := strings.LastIndex(f.RelativePath, "/")
	if i < 0 {
		return ""
	}

	return f.RelativePath[:i]
}

// Name returns the last element of RelativePath.
func (f FileInfo) Name() string {
	return path.Base(f.RelativePath)
}

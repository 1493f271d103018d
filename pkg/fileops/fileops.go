// Package fileops provides the single-file copy engine used to move media
// from the source tree to the destination tree.
package fileops

import (
	"errors"
	"path/filepath"

	"github.com/joe/media-sync/pkg/filesystem"
)

// Exported constants.
const (
	// ChunkSize is the size of each read/write step of a copy (16KB).
	// Pause and abort are honoured at chunk boundaries.
	ChunkSize = 16 * 1024
	// DefaultDirPermissions is the default permission mode for created directories
	DefaultDirPermissions = 0o750
)

// Exported variables.
var (
	//nolint:staticcheck // ST1005: shown to the user verbatim
	ErrDestinationExists = errors.New("Destination file exists.")
	ErrCopyAborted       = errors.New("aborted")
	ErrAlreadyStarted    = errors.New("copy already started")
	ErrSourceChanged     = errors.New("source size changed during copy")
)

// FileOps creates copiers between a source and a destination filesystem.
// The two may be the same instance.
type FileOps struct {
	SourceFS filesystem.FileSystem
	DestFS   filesystem.FileSystem
}

// NewDualFileOps creates a new FileOps instance with separate source and destination filesystems.
func NewDualFileOps(sourceFS, destFS filesystem.FileSystem) *FileOps {
	return &FileOps{
		SourceFS: sourceFS,
		DestFS:   destFS,
	}
}

// NewFileOps creates a new FileOps instance that reads and writes through fs.
func NewFileOps(fs filesystem.FileSystem) *FileOps {
	return NewDualFileOps(fs, fs)
}

// NewRealFileOps creates a new FileOps instance using the real filesystem.
func NewRealFileOps() *FileOps {
	return NewFileOps(filesystem.NewRealFileSystem())
}

// NewCopier prepares a copy of src to dst. Nothing is touched until Start.
func (fo *FileOps) NewCopier(src, dst string) *Copier {
	return newCopier(fo.SourceFS, fo.DestFS, filepath.Clean(src), filepath.Clean(dst))
}

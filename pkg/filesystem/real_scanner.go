package filesystem

import (
	"path/filepath"

	krfs "github.com/kr/fs"
)

// realFileScanner implements FileScanner on top of a kr/fs walker.
// Entries are produced lazily, one walker step per Next call.
type realFileScanner struct {
	root   string
	walker *krfs.Walker
	err    error
	done   bool
}

// newRealFileScanner creates a new scanner for the given directory.
func newRealFileScanner(root string) *realFileScanner {
	return &realFileScanner{
		root:   root,
		walker: krfs.Walk(root),
	}
}

// Err returns any error that occurred during scanning.
func (s *realFileScanner) Err() error {
	return s.err
}

// Next advances to the next file and returns its info.
func (s *realFileScanner) Next() (FileInfo, bool) {
	if s.done {
		return FileInfo{}, false
	}

	for s.walker.Step() {
		if err := s.walker.Err(); err != nil {
			s.err = err
			s.done = true

			return FileInfo{}, false
		}

		relPath, err := filepath.Rel(s.root, s.walker.Path())
		if err != nil {
			s.err = err
			s.done = true

			return FileInfo{}, false
		}

		// Skip the root directory itself
		if relPath == "." {
			continue
		}

		info := s.walker.Stat()

		return FileInfo{
			RelativePath: filepath.ToSlash(relPath),
			Size:         info.Size(),
			ModTime:      info.ModTime(),
			IsDir:        info.IsDir(),
		}, true
	}

	s.done = true

	return FileInfo{}, false
}

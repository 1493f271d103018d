package filesystem

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// mockFileScanner walks a snapshot of a MockFileSystem taken on the first
// call to Next.
type mockFileScanner struct {
	fs      *MockFileSystem
	root    string
	files   []FileInfo
	index   int
	scanned bool
	err     error
}

func newMockFileScanner(fs *MockFileSystem, root string) *mockFileScanner {
	return &mockFileScanner{
		fs:    fs,
		root:  root,
		files: make([]FileInfo, 0),
		index: -1,
	}
}

func (s *mockFileScanner) Next() (FileInfo, bool) {
	if !s.scanned {
		s.scan()
		s.scanned = true
	}

	s.index++
	if s.index >= len(s.files) {
		return FileInfo{}, false
	}

	return s.files[s.index], true
}

func (s *mockFileScanner) Err() error {
	return s.err
}

// scan snapshots every entry under the root. A directory made unreadable
// with FailReadDir fails the whole walk, like an unreadable directory does
// for the real walker.
func (s *mockFileScanner) scan() {
	s.fs.mu.RLock()
	defer s.fs.mu.RUnlock()

	if _, exists := s.fs.files[s.root]; !exists {
		s.err = fmt.Errorf("failed to walk %s: %w", s.root, os.ErrNotExist)
		return
	}

	prefix := s.root + "/"

	if dir, err := s.failedDir(prefix); err != nil {
		s.err = fmt.Errorf("failed to walk %s: %w", dir, err)
		return
	}

	for p, file := range s.fs.files {
		if !strings.HasPrefix(p, prefix) {
			continue
		}

		s.files = append(s.files, FileInfo{
			RelativePath: strings.TrimPrefix(p, prefix),
			Size:         int64(len(file.data)),
			ModTime:      file.modTime,
			IsDir:        file.isDir,
		})
	}

	sort.Slice(s.files, func(i, j int) bool {
		return s.files[i].RelativePath < s.files[j].RelativePath
	})
}

// failedDir returns the first injected listing failure at or below the root.
func (s *mockFileScanner) failedDir(prefix string) (string, error) {
	dirs := make([]string, 0, len(s.fs.readDirErrs))

	for dir := range s.fs.readDirErrs {
		if dir == s.root || strings.HasPrefix(dir, prefix) {
			dirs = append(dirs, dir)
		}
	}

	if len(dirs) == 0 {
		return "", nil
	}

	sort.Strings(dirs)

	return dirs[0], s.fs.readDirErrs[dirs[0]]
}

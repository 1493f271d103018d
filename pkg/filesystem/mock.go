package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// Exported variables.
var (
	ErrIsDirectory = errors.New("is a directory")
	ErrNotEmpty    = errors.New("directory not empty")
)

// MockFileSystem is an in-memory filesystem implementation for testing.
// Besides plain storage it supports fault injection (write, remove, readdir)
// and a per-path write hook that lets tests act between chunks of a copy.
type MockFileSystem struct {
	mu           sync.RWMutex
	files        map[string]*mockFile
	writeHooks   map[string]func(written int64)
	writeErrors  map[string]error
	removeErrors map[string]error
	readDirErrs  map[string]error
}

// mockFile represents a file in the mock filesystem.
type mockFile struct {
	data    []byte
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

// mockFileInfo implements os.FileInfo for mock files.
type mockFileInfo struct {
	name    string
	size    int64
	modTime time.Time
	isDir   bool
	perm    os.FileMode
}

func (fi *mockFileInfo) IsDir() bool        { return fi.isDir }
func (fi *mockFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *mockFileInfo) Mode() os.FileMode  { return fi.perm }
func (fi *mockFileInfo) Name() string       { return fi.name }
func (fi *mockFileInfo) Size() int64        { return fi.size }
func (fi *mockFileInfo) Sys() interface{}   { return nil }

// mockFileHandle implements WritableFile directly on the stored bytes,
// so size changes are visible through Stat while the handle is open.
type mockFileHandle struct {
	fs     *MockFileSystem
	path   string
	offset int64
	closed bool
}

func (f *mockFileHandle) Close() error {
	if f.closed {
		return os.ErrClosed
	}

	f.closed = true

	return nil
}

func (f *mockFileHandle) Read(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	f.fs.mu.RLock()
	defer f.fs.mu.RUnlock()

	file, exists := f.fs.files[f.path]
	if !exists {
		return 0, os.ErrNotExist
	}

	if f.offset >= int64(len(file.data)) {
		return 0, io.EOF
	}

	n := copy(p, file.data[f.offset:])
	f.offset += int64(n)

	return n, nil
}

func (f *mockFileHandle) Stat() (os.FileInfo, error) {
	if f.closed {
		return nil, os.ErrClosed
	}

	return f.fs.Stat(f.path)
}

func (f *mockFileHandle) Truncate(size int64) error {
	if f.closed {
		return os.ErrClosed
	}

	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	file, exists := f.fs.files[f.path]
	if !exists {
		return os.ErrNotExist
	}

	file.data = resize(file.data, size)
	file.modTime = time.Now()

	return nil
}

func (f *mockFileHandle) Write(p []byte) (int, error) {
	if f.closed {
		return 0, os.ErrClosed
	}

	f.fs.mu.Lock()

	if err, failing := f.fs.writeErrors[f.path]; failing {
		f.fs.mu.Unlock()
		return 0, err
	}

	file, exists := f.fs.files[f.path]
	if !exists {
		f.fs.mu.Unlock()
		return 0, os.ErrNotExist
	}

	end := f.offset + int64(len(p))
	if end > int64(len(file.data)) {
		file.data = resize(file.data, end)
	}

	n := copy(file.data[f.offset:], p)
	f.offset += int64(n)
	file.modTime = time.Now()
	written := f.offset
	hook := f.fs.writeHooks[f.path]

	f.fs.mu.Unlock()

	// Hooks run unlocked so they may call back into the filesystem
	if hook != nil {
		hook(written)
	}

	return n, nil
}

// NewMockFileSystem creates a new in-memory filesystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		files:        make(map[string]*mockFile),
		writeHooks:   make(map[string]func(int64)),
		writeErrors:  make(map[string]error),
		removeErrors: make(map[string]error),
		readDirErrs:  make(map[string]error),
	}
}

// Chtimes changes the access and modification times of a file.
func (fs *MockFileSystem) Chtimes(path string, _, mtime time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	file, exists := fs.files[path]
	if !exists {
		return os.ErrNotExist
	}

	file.modTime = mtime

	return nil
}

// CreateExclusive creates a file for writing, failing if it already exists.
func (fs *MockFileSystem) CreateExclusive(path string) (WritableFile, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, exists := fs.files[path]; exists {
		return nil, fmt.Errorf("failed to create %s: %w", path, os.ErrExist)
	}

	parent := parentOf(path)
	if dir, exists := fs.files[parent]; parent != "" && (!exists || !dir.isDir) {
		return nil, fmt.Errorf("failed to create %s: %w", path, os.ErrNotExist)
	}

	fs.files[path] = &mockFile{
		data:    []byte{},
		modTime: time.Now(),
		perm:    0o644, //nolint:mnd // regular file permissions
	}

	return &mockFileHandle{fs: fs, path: path}, nil
}

// MkdirAll creates a directory and all necessary parents.
func (fs *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return fs.mkdirAllLocked(path, perm)
}

// Open opens a file for reading.
func (fs *MockFileSystem) Open(path string) (File, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, fmt.Errorf("failed to open %s: %w", path, os.ErrNotExist)
	}

	if file.isDir {
		return nil, fmt.Errorf("failed to open %s: %w", path, ErrIsDirectory)
	}

	return &mockFileHandle{fs: fs, path: path}, nil
}

// ReadDir lists the entries directly under dir.
func (fs *MockFileSystem) ReadDir(dir string) ([]FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if err, failing := fs.readDirErrs[dir]; failing {
		return nil, err
	}

	root, exists := fs.files[dir]
	if !exists {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, os.ErrNotExist)
	}

	if !root.isDir {
		return nil, fmt.Errorf("failed to read directory %s: not a directory", dir) //nolint:err113 // mirrors the OS message
	}

	infos := make([]FileInfo, 0)

	for p, file := range fs.files {
		if parentOf(p) != dir || p == dir {
			continue
		}

		infos = append(infos, FileInfo{
			RelativePath: path.Base(p),
			Size:         int64(len(file.data)),
			ModTime:      file.modTime,
			IsDir:        file.isDir,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].RelativePath < infos[j].RelativePath
	})

	return infos, nil
}

// Remove removes a file or empty directory.
func (fs *MockFileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err, failing := fs.removeErrors[path]; failing {
		return err
	}

	file, exists := fs.files[path]
	if !exists {
		return fmt.Errorf("failed to remove %s: %w", path, os.ErrNotExist)
	}

	if file.isDir {
		for p := range fs.files {
			if strings.HasPrefix(p, path+"/") {
				return fmt.Errorf("failed to remove %s: %w", path, ErrNotEmpty)
			}
		}
	}

	delete(fs.files, path)

	return nil
}

// Scan returns an iterator over all files in a directory tree.
func (fs *MockFileSystem) Scan(path string) FileScanner {
	return newMockFileScanner(fs, path)
}

// Stat returns file information.
func (fs *MockFileSystem) Stat(path string) (os.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, fmt.Errorf("failed to stat %s: %w", path, os.ErrNotExist)
	}

	return &mockFileInfo{
		name:    pathBase(path),
		size:    int64(len(file.data)),
		modTime: file.modTime,
		isDir:   file.isDir,
		perm:    file.perm,
	}, nil
}

// Helper methods for testing

// AddDir adds a directory (and its parents) to the mock filesystem.
func (fs *MockFileSystem) AddDir(path string, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	_ = fs.mkdirAllLocked(path, 0o755) //nolint:mnd // directory permissions
	fs.files[path].modTime = modTime
}

// AddFile adds a file to the mock filesystem with the given content and modtime.
func (fs *MockFileSystem) AddFile(path string, content []byte, modTime time.Time) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if parent := parentOf(path); parent != "" {
		_ = fs.mkdirAllLocked(parent, 0o755) //nolint:mnd // directory permissions
	}

	fs.files[path] = &mockFile{
		data:    append([]byte(nil), content...),
		modTime: modTime,
		perm:    0o644, //nolint:mnd // regular file permissions
	}
}

// Exists checks if a path exists in the mock filesystem.
func (fs *MockFileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	_, exists := fs.files[path]

	return exists
}

// FailReadDir makes ReadDir of dir return err.
func (fs *MockFileSystem) FailReadDir(dir string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.readDirErrs[dir] = err
}

// FailRemove makes Remove of path return err.
func (fs *MockFileSystem) FailRemove(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.removeErrors[path] = err
}

// FailWrites makes every Write to path return err.
func (fs *MockFileSystem) FailWrites(path string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.writeErrors[path] = err
}

// GetFile retrieves a file's content from the mock filesystem.
func (fs *MockFileSystem) GetFile(path string) ([]byte, time.Time, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	file, exists := fs.files[path]
	if !exists {
		return nil, time.Time{}, os.ErrNotExist
	}

	if file.isDir {
		return nil, time.Time{}, ErrIsDirectory
	}

	return append([]byte(nil), file.data...), file.modTime, nil
}

// ListFiles returns all paths in the mock filesystem.
func (fs *MockFileSystem) ListFiles() []string {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// OnWrite registers a hook called after every successful Write to path
// with the handle's total bytes written so far.
func (fs *MockFileSystem) OnWrite(path string, hook func(written int64)) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.writeHooks[path] = hook
}

// mkdirAllLocked is the internal implementation that assumes the lock is held.
func (fs *MockFileSystem) mkdirAllLocked(dir string, perm os.FileMode) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}

	if parent := parentOf(dir); parent != "" {
		if err := fs.mkdirAllLocked(parent, perm); err != nil {
			return err
		}
	}

	existing, exists := fs.files[dir]
	if !exists {
		fs.files[dir] = &mockFile{
			modTime: time.Now(),
			isDir:   true,
			perm:    perm | os.ModeDir,
		}

		return nil
	}

	if !existing.isDir {
		return fmt.Errorf("failed to create directory %s: %w", dir, os.ErrExist)
	}

	return nil
}

// parentOf returns the parent directory of p, or "" for top-level entries.
func parentOf(p string) string {
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return ""
	}

	return dir
}

func pathBase(p string) string {
	return path.Base(p)
}

// resize grows (zero-filled) or shrinks data to size.
func resize(data []byte, size int64) []byte {
	if size <= int64(len(data)) {
		return data[:size]
	}

	grown := make([]byte, size)
	copy(grown, data)

	return grown
}

package fileops

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joe/media-sync/pkg/filesystem"
)

// State is the control state of a running copy.
type State int

// State values.
const (
	Copying State = iota
	Paused
	Aborted
)

func (s State) String() string {
	switch s {
	case Copying:
		return "copying"
	case Paused:
		return "paused"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a copy.
type Outcome int

// Outcome values.
const (
	Pending Outcome = iota
	Completed
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Copier copies one file on its own goroutine. The copy can be paused,
// resumed and aborted from any goroutine; the worker honours those requests
// before every read and every write.
//
// A Copier never overwrites an existing destination. A destination it
// created is removed again if the copy fails or is aborted.
type Copier struct {
	srcFS filesystem.FileSystem
	dstFS filesystem.FileSystem
	src   string
	dst   string

	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	outcome Outcome
	err     error
	started bool

	length      int64
	modTime     time.Time
	bytesCopied atomic.Int64
	done        chan struct{}
}

func newCopier(srcFS, dstFS filesystem.FileSystem, src, dst string) *Copier {
	c := &Copier{
		srcFS: srcFS,
		dstFS: dstFS,
		src:   src,
		dst:   dst,
		done:  make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	return c
}

// Abort requests the copy to stop. It is idempotent and has no effect once
// the copy has reached a terminal outcome.
func (c *Copier) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outcome != Pending {
		return
	}

	c.state = Aborted
	c.cond.Broadcast()
}

// BytesCopied returns the number of bytes written to the destination so far.
func (c *Copier) BytesCopied() int64 {
	return c.bytesCopied.Load()
}

// Destination returns the destination path.
func (c *Copier) Destination() string {
	return c.dst
}

// Done is closed once the copy has reached a terminal outcome.
func (c *Copier) Done() <-chan struct{} {
	return c.done
}

// Err returns the error that failed the copy, or nil.
func (c *Copier) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

// IsComplete reports whether every byte of the source has been written.
// A failed or refused copy is never complete, even for an empty source.
func (c *Copier) IsComplete() bool {
	c.mu.Lock()
	started, length, outcome := c.started, c.length, c.outcome
	c.mu.Unlock()

	return started && outcome != Failed && c.BytesCopied() == length
}

// Length returns the source size recorded at Start.
func (c *Copier) Length() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.length
}

// Outcome returns the terminal outcome, or Pending while the copy runs.
func (c *Copier) Outcome() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.outcome
}

// Pause asks the worker to stop at its next check point. It has no effect
// after Abort or once the copy has finished.
func (c *Copier) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outcome != Pending || c.state == Aborted {
		return
	}

	c.state = Paused
}

// Resume continues a paused copy. It is a no-op in any other state.
func (c *Copier) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Paused {
		return
	}

	c.state = Copying
	c.cond.Broadcast()
}

// Source returns the source path.
func (c *Copier) Source() string {
	return c.src
}

// Start checks the destination, prepares it and launches the worker.
// Failures detected here are returned synchronously and also mark the
// copier Failed, so Done is closed either way.
func (c *Copier) Start() error {
	c.mu.Lock()

	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}

	c.started = true
	aborted := c.state == Aborted
	c.mu.Unlock()

	if aborted {
		c.fail(ErrCopyAborted)
		return ErrCopyAborted
	}

	sourceFile, destFile, err := c.open()
	if err != nil {
		c.fail(err)
		return err
	}

	go c.run(sourceFile, destFile)

	return nil
}

// State returns the current control state.
func (c *Copier) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Trouble returns a short human-readable reason for a failed copy.
func (c *Copier) Trouble() string {
	err := c.Err()

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDestinationExists):
		return ErrDestinationExists.Error()
	case errors.Is(err, ErrCopyAborted):
		return ErrCopyAborted.Error()
	default:
		return err.Error()
	}
}

func (c *Copier) complete() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcome = Completed
	close(c.done)
}

// copyLoop streams the source into the destination chunk by chunk.
func (c *Copier) copyLoop(sourceFile filesystem.File, destFile filesystem.WritableFile) error {
	var written int64

	buf := make([]byte, ChunkSize)

	for {
		if !c.waitUnpaused() {
			return ErrCopyAborted
		}

		nr, err := sourceFile.Read(buf) //nolint:varnamelen // nr is idiomatic for bytes read
		if nr > 0 {
			if !c.waitUnpaused() {
				return ErrCopyAborted
			}

			nw, werr := destFile.Write(buf[:nr]) //nolint:varnamelen // nw is idiomatic for bytes written
			if werr != nil {
				return fmt.Errorf("failed to write to destination: %w", werr)
			}

			if nr != nw {
				return fmt.Errorf("short write: %w", io.ErrShortWrite)
			}

			written += int64(nw)
			c.bytesCopied.Store(written)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("failed to read from source: %w", err)
		}
	}

	if written != c.length {
		return fmt.Errorf("%w: expected %d bytes, copied %d", ErrSourceChanged, c.length, written)
	}

	return nil
}

func (c *Copier) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.outcome = Failed
	c.err = err
	c.cond.Broadcast()
	close(c.done)
}

// finish closes both files and settles the outcome. On success the
// destination takes the source's modification time; otherwise it is
// truncated and removed.
func (c *Copier) finish(sourceFile filesystem.File, destFile filesystem.WritableFile, err error) {
	_ = sourceFile.Close()

	if err == nil && c.State() == Aborted {
		err = ErrCopyAborted
	}

	if err == nil {
		// Close before setting the modification time, a later write would bump it
		err = destFile.Close()
		if err != nil {
			err = fmt.Errorf("failed to close destination file %s: %w", c.dst, err)
		} else {
			err = c.dstFS.Chtimes(c.dst, c.modTime, c.modTime)
			if err != nil {
				err = fmt.Errorf("failed to preserve modification time for %s: %w", c.dst, err)
			}
		}

		if err == nil {
			c.complete()
			return
		}
	} else {
		_ = destFile.Truncate(0)
		_ = destFile.Close()
	}

	// Best effort, a leftover partial file is not escalated
	_ = c.dstFS.Remove(c.dst)

	c.fail(err)
}

// open validates the destination and opens both ends of the copy.
func (c *Copier) open() (filesystem.File, filesystem.WritableFile, error) {
	sourceInfo, err := c.srcFS.Stat(c.src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat source file %s: %w", c.src, err)
	}

	c.mu.Lock()
	c.length = sourceInfo.Size()
	c.modTime = sourceInfo.ModTime()
	c.mu.Unlock()

	exists, err := filesystem.Exists(c.dstFS, c.dst)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check destination %s: %w", c.dst, err)
	}

	if exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrDestinationExists, c.dst)
	}

	dstDir := filepath.Dir(c.dst)

	err = c.dstFS.MkdirAll(dstDir, DefaultDirPermissions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create destination directory %s: %w", dstDir, err)
	}

	sourceFile, err := c.srcFS.Open(c.src)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source file %s: %w", c.src, err)
	}

	destFile, err := c.dstFS.CreateExclusive(c.dst)
	if err != nil {
		_ = sourceFile.Close()

		if errors.Is(err, os.ErrExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrDestinationExists, c.dst)
		}

		return nil, nil, fmt.Errorf("failed to create destination file %s: %w", c.dst, err)
	}

	err = destFile.Truncate(c.length)
	if err != nil {
		_ = destFile.Close()
		_ = c.dstFS.Remove(c.dst)
		_ = sourceFile.Close()

		return nil, nil, fmt.Errorf("failed to preallocate %s: %w", c.dst, err)
	}

	return sourceFile, destFile, nil
}

func (c *Copier) run(sourceFile filesystem.File, destFile filesystem.WritableFile) {
	err := c.copyLoop(sourceFile, destFile)
	c.finish(sourceFile, destFile, err)
}

// waitUnpaused blocks while the copy is paused and reports whether it may
// continue.
func (c *Copier) waitUnpaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.state == Paused {
		c.cond.Wait()
	}

	return c.state != Aborted
}

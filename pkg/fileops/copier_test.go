//nolint:varnamelen // Test files use idiomatic short variable names (t, g, etc.)
package fileops_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/media-sync/pkg/fileops"
	"github.com/joe/media-sync/pkg/filesystem"
)

const (
	srcPath = "/src/S1/a.mp4"
	dstPath = "/dst/S1/a.mp4"
)

var sourceModTime = time.Date(2015, 1, 31, 12, 0, 0, 0, time.Local)

// payload returns n bytes of recognisable content.
func payload(n int) []byte {
	return bytes.Repeat([]byte("0123456789abcdef"), n/16+1)[:n]
}

func newFixture(size int) (*filesystem.MockFileSystem, *fileops.FileOps) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile(srcPath, payload(size), sourceModTime)
	fs.AddDir("/dst", time.Now())

	return fs, fileops.NewFileOps(fs)
}

func waitDone(g *WithT, c *fileops.Copier) {
	g.Eventually(c.Done()).WithTimeout(5 * time.Second).Should(BeClosed())
}

func TestCopier_CopiesContentAndModTime(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	size := 3*fileops.ChunkSize + 100
	fs, ops := newFixture(size)

	c := ops.NewCopier(srcPath, dstPath)
	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Completed))
	g.Expect(c.Err()).ToNot(HaveOccurred())
	g.Expect(c.Trouble()).To(BeEmpty())
	g.Expect(c.IsComplete()).To(BeTrue())
	g.Expect(c.BytesCopied()).To(Equal(int64(size)))

	data, modTime, err := fs.GetFile(dstPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(data).To(Equal(payload(size)))
	g.Expect(modTime.Equal(sourceModTime)).To(BeTrue())
}

func TestCopier_EmptySourceCompletes(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(0)

	c := ops.NewCopier(srcPath, dstPath)
	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Completed))
	g.Expect(c.IsComplete()).To(BeTrue())
	g.Expect(fs.Exists(dstPath)).To(BeTrue())
}

func TestCopier_RefusesExistingDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(100)
	fs.AddFile(dstPath, []byte("keep me"), sourceModTime)

	c := ops.NewCopier(srcPath, dstPath)
	err := c.Start()

	g.Expect(err).To(MatchError(fileops.ErrDestinationExists))
	g.Expect(c.Outcome()).To(Equal(fileops.Failed))
	g.Expect(c.Trouble()).To(Equal("Destination file exists."))
	g.Expect(c.Done()).To(BeClosed())
	g.Expect(c.BytesCopied()).To(BeZero())
	g.Expect(c.Length()).To(Equal(int64(100)))
	g.Expect(c.IsComplete()).To(BeFalse())

	data, _, err := fs.GetFile(dstPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(string(data)).To(Equal("keep me"))
}

func TestCopier_RefusedEmptySourceIsNotComplete(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(0)
	fs.AddFile(dstPath, []byte("keep me"), sourceModTime)

	c := ops.NewCopier(srcPath, dstPath)
	g.Expect(c.Start()).To(MatchError(fileops.ErrDestinationExists))
	g.Expect(c.IsComplete()).To(BeFalse())
}

func TestCopier_StartTwiceFails(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, ops := newFixture(10)

	c := ops.NewCopier(srcPath, dstPath)
	g.Expect(c.Start()).To(Succeed())
	g.Expect(c.Start()).To(MatchError(fileops.ErrAlreadyStarted))
	waitDone(g, c)
}

func TestCopier_PauseHoldsProgressUntilResume(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	size := 4 * fileops.ChunkSize
	fs, ops := newFixture(size)
	c := ops.NewCopier(srcPath, dstPath)

	fs.OnWrite(dstPath, func(written int64) {
		if written == fileops.ChunkSize {
			c.Pause()
		}
	})

	g.Expect(c.Start()).To(Succeed())
	g.Eventually(c.BytesCopied).Should(Equal(int64(fileops.ChunkSize)))
	g.Consistently(c.BytesCopied, 100*time.Millisecond).Should(Equal(int64(fileops.ChunkSize)))
	g.Expect(c.State()).To(Equal(fileops.Paused))
	g.Expect(c.Outcome()).To(Equal(fileops.Pending))
	g.Expect(c.IsComplete()).To(BeFalse())

	c.Resume()
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Completed))
	g.Expect(c.BytesCopied()).To(Equal(int64(size)))
}

func TestCopier_PauseBeforeStartHoldsAtFirstCheck(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, ops := newFixture(fileops.ChunkSize)
	c := ops.NewCopier(srcPath, dstPath)

	c.Pause()
	g.Expect(c.Start()).To(Succeed())
	g.Consistently(c.BytesCopied, 50*time.Millisecond).Should(BeZero())

	c.Resume()
	waitDone(g, c)
	g.Expect(c.Outcome()).To(Equal(fileops.Completed))
}

func TestCopier_AbortWhilePausedDiscardsDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(4 * fileops.ChunkSize)
	c := ops.NewCopier(srcPath, dstPath)

	fs.OnWrite(dstPath, func(written int64) {
		if written == 2*fileops.ChunkSize {
			c.Pause()
		}
	})

	g.Expect(c.Start()).To(Succeed())
	g.Eventually(c.State).Should(Equal(fileops.Paused))
	g.Eventually(c.BytesCopied).Should(Equal(int64(2 * fileops.ChunkSize)))

	c.Abort()
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Failed))
	g.Expect(c.Err()).To(MatchError(fileops.ErrCopyAborted))
	g.Expect(c.Trouble()).To(Equal("aborted"))
	g.Expect(c.State()).To(Equal(fileops.Aborted))
	g.Expect(fs.Exists(dstPath)).To(BeFalse())
}

func TestCopier_AbortIsIdempotentAndPauseIgnoredAfterAbort(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(4 * fileops.ChunkSize)
	c := ops.NewCopier(srcPath, dstPath)

	fs.OnWrite(dstPath, func(written int64) {
		if written == fileops.ChunkSize {
			c.Abort()
			c.Abort()
			c.Pause()
		}
	})

	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	g.Expect(c.State()).To(Equal(fileops.Aborted))
	g.Expect(c.Err()).To(MatchError(fileops.ErrCopyAborted))
	g.Expect(c.BytesCopied()).To(Equal(int64(fileops.ChunkSize)))
	g.Expect(fs.Exists(dstPath)).To(BeFalse())

	c.Abort()
	c.Resume()
	g.Expect(c.Outcome()).To(Equal(fileops.Failed))
}

func TestCopier_AbortBeforeStartTouchesNothing(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(100)
	c := ops.NewCopier(srcPath, dstPath)

	c.Abort()
	g.Expect(c.Start()).To(MatchError(fileops.ErrCopyAborted))
	g.Expect(c.Done()).To(BeClosed())
	g.Expect(fs.Exists(dstPath)).To(BeFalse())
	g.Expect(fs.Exists("/dst/S1")).To(BeFalse())
}

func TestCopier_AbortAfterCompletionHasNoEffect(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(100)
	c := ops.NewCopier(srcPath, dstPath)

	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	c.Abort()
	c.Pause()

	g.Expect(c.Outcome()).To(Equal(fileops.Completed))
	g.Expect(c.State()).To(Equal(fileops.Copying))
	g.Expect(fs.Exists(dstPath)).To(BeTrue())
}

func TestCopier_WriteErrorDiscardsDestination(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	errDisk := errors.New("no space left on device")
	fs, ops := newFixture(2 * fileops.ChunkSize)
	fs.FailWrites(dstPath, errDisk)

	c := ops.NewCopier(srcPath, dstPath)
	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Failed))
	g.Expect(c.Err()).To(MatchError(errDisk))
	g.Expect(c.Trouble()).To(ContainSubstring("no space left on device"))
	g.Expect(fs.Exists(dstPath)).To(BeFalse())
}

func TestCopier_FailedRemoveLeavesTruncatedFile(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(3 * fileops.ChunkSize)
	fs.FailRemove(dstPath, errors.New("busy"))
	c := ops.NewCopier(srcPath, dstPath)

	fs.OnWrite(dstPath, func(written int64) {
		if written == fileops.ChunkSize {
			c.Abort()
		}
	})

	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	// Cleanup failures are not escalated
	g.Expect(c.Err()).To(MatchError(fileops.ErrCopyAborted))

	data, _, err := fs.GetFile(dstPath)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(data).To(BeEmpty())
}

func TestCopier_MissingSourceFailsSynchronously(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	fs, ops := newFixture(10)
	c := ops.NewCopier("/src/S1/missing.mp4", dstPath)

	g.Expect(c.Start()).To(MatchError(os.ErrNotExist))
	g.Expect(c.Outcome()).To(Equal(fileops.Failed))
	g.Expect(fs.Exists(dstPath)).To(BeFalse())
}

func TestCopier_RealFileSystem(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	root := t.TempDir()
	src := filepath.Join(root, "src", "S1", "clip.mkv")
	dst := filepath.Join(root, "dst", "S1", "clip.mkv")

	g.Expect(os.MkdirAll(filepath.Dir(src), 0o750)).To(Succeed())
	g.Expect(os.WriteFile(src, payload(fileops.ChunkSize+7), 0o600)).To(Succeed())
	g.Expect(os.Chtimes(src, sourceModTime, sourceModTime)).To(Succeed())

	c := fileops.NewRealFileOps().NewCopier(src, dst)
	g.Expect(c.Start()).To(Succeed())
	waitDone(g, c)

	g.Expect(c.Outcome()).To(Equal(fileops.Completed))

	data, err := os.ReadFile(dst) //nolint:gosec // test fixture path
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(data).To(Equal(payload(fileops.ChunkSize + 7)))

	info, err := os.Stat(dst)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(info.ModTime().Equal(sourceModTime)).To(BeTrue())

	again := fileops.NewRealFileOps().NewCopier(src, dst)
	g.Expect(again.Start()).To(MatchError(fileops.ErrDestinationExists))
}

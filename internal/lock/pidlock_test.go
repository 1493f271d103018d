package lock

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquirePIDLockWritesPID(t *testing.T) {
	t.Parallel()

	lockPath := PathFor(filepath.Join(t.TempDir(), "videos.xml"))
	l, err := AcquirePIDLock(lockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	b, err := os.ReadFile(lockPath) //nolint:gosec // test fixture path
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), strings.TrimSpace(string(b)))
	assert.Equal(t, lockPath, l.Path())
}

func TestAcquirePIDLockRefusesSecondHolder(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "state", "marks.db.lock")
	first, err := AcquirePIDLock(lockPath)
	require.NoError(t, err)

	_, err = AcquirePIDLock(lockPath)
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())

	again, err := AcquirePIDLock(lockPath)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestReleaseNilLock(t *testing.T) {
	t.Parallel()

	var l *PIDLock
	assert.NoError(t, l.Release())
}

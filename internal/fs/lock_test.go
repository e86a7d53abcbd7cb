package fs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamsxin/bplus/internal/fs"
)

func Test_Locker_TryLock_Succeeds_On_Unlocked_Path(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.lock")
	locker := fs.NewLocker(fs.NewReal())

	lock, err := locker.TryLock(path)
	require.NoError(t, err)

	require.NoError(t, lock.Close())
}

func Test_Locker_TryLock_Fails_While_Another_Holder_Holds_The_Lock(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "b.lock")
	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.TryLock(path)
	require.NoError(t, err)

	t.Cleanup(func() { _ = first.Close() })

	_, err = locker.TryLock(path)
	require.ErrorIs(t, err, fs.ErrLocked)
}

func Test_Locker_TryLock_Succeeds_Again_After_Release(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.lock")
	locker := fs.NewLocker(fs.NewReal())

	first, err := locker.TryLock(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := locker.TryLock(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func Test_Locker_Close_Is_Idempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "d.lock")
	locker := fs.NewLocker(fs.NewReal())

	lock, err := locker.TryLock(path)
	require.NoError(t, err)
	require.NoError(t, lock.Close())
	require.NoError(t, lock.Close())
}

package fs

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrLocked is returned by TryLock when the file is already locked by
// another process.
var ErrLocked = errors.New("file is locked by another process")

// Locker acquires exclusive, whole-file advisory locks using flock(2).
//
// flock locks an inode, not a pathname, so Locker re-verifies after
// acquiring the lock that the path still refers to the inode it locked —
// otherwise a concurrent rename/recreate at path could let two callers
// each believe they hold "the lock on path" while actually holding locks
// on two different inodes.
type Locker struct {
	fs FS
}

// NewLocker returns a Locker backed by fsys.
func NewLocker(fsys FS) *Locker {
	return &Locker{fs: fsys}
}

// Lock represents a held exclusive lock. Close releases it.
type Lock struct {
	file File
}

// TryLock attempts to acquire an exclusive, non-blocking lock on the file at
// path (created if absent). Returns ErrLocked if another process holds it.
func (l *Locker) TryLock(path string) (*Lock, error) {
	for {
		file, err := l.fs.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening lock file: %w", err)
		}

		err = flockRetryEINTR(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err != nil {
			_ = file.Close()

			if isWouldBlock(err) {
				return nil, ErrLocked
			}

			return nil, fmt.Errorf("flock: %w", err)
		}

		match, err := l.inodeMatchesPath(path, file)
		if err != nil {
			_ = flockRetryEINTR(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()

			return nil, fmt.Errorf("verifying lock file identity: %w", err)
		}

		if !match {
			// The file at path was replaced between open and flock; retry
			// against whatever is there now.
			_ = flockRetryEINTR(int(file.Fd()), unix.LOCK_UN)
			_ = file.Close()

			continue
		}

		return &Lock{file: file}, nil
	}
}

// Close releases the lock and closes the underlying file descriptor. Close
// is idempotent.
func (lk *Lock) Close() error {
	if lk.file == nil {
		return nil
	}

	fd := int(lk.file.Fd())
	unlockErr := flockRetryEINTR(fd, unix.LOCK_UN)
	closeErr := lk.file.Close()
	lk.file = nil

	if unlockErr != nil {
		return fmt.Errorf("unlocking: %w", unlockErr)
	}

	if closeErr != nil {
		return fmt.Errorf("closing lock file: %w", closeErr)
	}

	return nil
}

func (l *Locker) inodeMatchesPath(path string, f File) (bool, error) {
	openInfo, err := f.Stat()
	if err != nil {
		return false, err
	}

	pathInfo, err := l.fs.Stat(path)
	if err != nil {
		return false, err
	}

	return os.SameFile(openInfo, pathInfo), nil
}

func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EAGAIN)
}

// flockRetryEINTR wraps flock, retrying on EINTR: a blocking syscall
// interrupted by a signal before completion, not a failure.
func flockRetryEINTR(fd int, how int) error {
	const maxEINTRRetries = 10000

	var err error

	for range maxEINTRRetries {
		err = unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}

	return err
}

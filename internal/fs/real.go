package fs

import (
	"os"

	"github.com/natefinch/atomic"
)

// Real implements [FS] using the real filesystem. Methods pass through to
// the [os] package, except that Remove treats an already-absent file as
// success and Rename uses atomic.ReplaceFile.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

func (r *Real) OpenFile(path string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(path, flag, perm)
}

func (r *Real) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (r *Real) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}

	return err
}

// Rename replaces newpath with the contents of oldpath. Compaction relies
// on this being atomic from an observer's point of view: a reader opening
// newpath concurrently never sees a partially-written file.
func (r *Real) Rename(oldpath, newpath string) error {
	return atomic.ReplaceFile(oldpath, newpath)
}

// Compile-time interface check.
var _ FS = (*Real)(nil)

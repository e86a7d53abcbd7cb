package engine

import "errors"

// Error taxonomy. Split and EmptyPage are internal recursion signals,
// not errors — see result.go.
var (
	// ErrFile reports an open/close/rename/seek failure.
	ErrFile = errors.New("file error")

	// ErrIO reports a read or write that returned fewer bytes than
	// requested, or an underlying system read/write error.
	ErrIO = errors.New("i/o error")

	// ErrOutOfBounds reports an attempted read past the end of the file —
	// a signal of possible corruption.
	ErrOutOfBounds = errors.New("read out of bounds")

	// ErrCodec reports a compression or decompression failure.
	ErrCodec = errors.New("codec error")

	// ErrNotFound reports a key absent during get/remove.
	ErrNotFound = errors.New("key not found")

	// ErrCompactionConflict reports that the compaction scratch file
	// already exists.
	ErrCompactionConflict = errors.New("compaction scratch file already exists")

	// ErrKeyTooLarge reports a key longer than the maximum key size
	// (64 KiB); Set rejects such a key before it reaches a page.
	ErrKeyTooLarge = errors.New("key too large for page size")

	// ErrCorrupt reports a page image that failed to decode — truncated,
	// truncated mid-slot, or otherwise inconsistent with its declared size.
	ErrCorrupt = errors.New("corrupt page image")

	// ErrNoHead reports that no valid head record could be located in the
	// compacted file when it is reopened at the end of Compact. Open does
	// not return it: a file with no valid head starts a fresh empty tree.
	ErrNoHead = errors.New("no valid head record found")

	// ErrInvalidFanout reports a fanout argument to Open too small to
	// hold a leftmost sentinel plus at least one real slot.
	ErrInvalidFanout = errors.New("invalid fanout")
)

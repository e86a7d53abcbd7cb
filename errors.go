package bplus

import "github.com/dreamsxin/bplus/internal/engine"

// Sentinel errors returned by Store methods. Callers should compare
// against these with errors.Is rather than the underlying engine's
// error values, which may be wrapped with additional context.
var (
	// ErrNotFound is returned by Get and Remove when the key is absent.
	ErrNotFound = engine.ErrNotFound

	// ErrKeyTooLarge is returned by Set when key is longer than the
	// maximum key size (64 KiB).
	ErrKeyTooLarge = engine.ErrKeyTooLarge

	// ErrCorrupt is returned when a page or head record fails to decode.
	ErrCorrupt = engine.ErrCorrupt

	// ErrCompactionConflict is returned by Compact when the scratch path
	// it would write to already exists.
	ErrCompactionConflict = engine.ErrCompactionConflict

	// ErrNoHead is returned by Compact when the compacted file has no
	// recoverable head record on reopen. Open does not return it: a file
	// with no valid head record starts a fresh empty tree.
	ErrNoHead = engine.ErrNoHead

	// ErrInvalidFanout is returned by Open when Options.PageSize is too
	// small to hold a leftmost sentinel plus one real slot.
	ErrInvalidFanout = engine.ErrInvalidFanout

	// ErrFile, ErrIO, ErrOutOfBounds and ErrCodec report failures in the
	// underlying file or codec rather than engine logic.
	ErrFile        = engine.ErrFile
	ErrIO          = engine.ErrIO
	ErrOutOfBounds = engine.ErrOutOfBounds
	ErrCodec       = engine.ErrCodec
)

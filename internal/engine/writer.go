package engine

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/dreamsxin/bplus/internal/fs"
)

// paddingUnit is the alignment every record is padded to. Keeping records
// 8-byte aligned lets the uint64 length/offset fields in a record's header
// be read without an unaligned-access penalty on any platform the engine
// targets, and keeps Writer.Find's backward probe stepping simple.
const paddingUnit = 8

// recordHeaderSize is the fixed prefix written before every record's
// payload: a big-endian uint64 holding the payload's on-disk length
// (after compression, if any) followed by a single mode byte padded out
// to the alignment unit.
const recordHeaderSize = 8 + paddingUnit

// Mode selects whether a record's payload is run through the Writer's
// Codec before being stored.
type Mode uint8

const (
	// ModeUncompressed stores the payload verbatim. Used for the head
	// record, which must be tiny and trivially parseable during recovery
	// without invoking the codec.
	ModeUncompressed Mode = iota

	// ModeCompressed runs the payload through the Writer's Codec before
	// storing it, and reverses that on Read.
	ModeCompressed
)

// Writer is the append-only file I/O layer. It never rewrites or
// truncates existing bytes: Write only ever extends the file,
// and every offset it hands back remains valid for the life of the file.
//
// Writer does not itself interpret page or head-record contents; it knows
// only record framing (length, mode, padding) and delegates
// compression/decompression to a Codec.
type Writer struct {
	fsys  fs.FS
	file  fs.File
	lock  *fs.Lock
	codec Codec
	size  int64
}

// OpenWriter opens (creating if absent) the file at path for append-only
// access, taking an exclusive advisory lock for the lifetime of the
// returned Writer. codec is used to compress/decompress records written
// with ModeCompressed.
func OpenWriter(fsys fs.FS, path string, codec Codec) (*Writer, error) {
	locker := fs.NewLocker(fsys)

	lock, err := locker.TryLock(path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFile, err)
	}

	file, err := fsys.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		_ = lock.Close()

		return nil, fmt.Errorf("%w: opening %s: %w", ErrFile, path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		_ = lock.Close()

		return nil, fmt.Errorf("%w: stat %s: %w", ErrFile, path, err)
	}

	return &Writer{
		fsys:  fsys,
		file:  file,
		lock:  lock,
		codec: codec,
		size:  info.Size(),
	}, nil
}

// Size returns the current length of the file, i.e. the offset the next
// Write will be placed at (modulo padding).
func (w *Writer) Size() int64 {
	return w.size
}

// Close releases the writer's file handle and lock. It does not fsync —
// callers that need a durability barrier call Sync first.
func (w *Writer) Close() error {
	closeErr := w.file.Close()
	lockErr := w.lock.Close()

	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrFile, closeErr)
	}

	if lockErr != nil {
		return lockErr
	}

	return nil
}

// Sync commits the file's contents to stable storage.
func (w *Writer) Sync() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("%w: fsync: %w", ErrFile, err)
	}

	return nil
}

// Write appends payload as a new record at end-of-file, returning the
// offset it was written at. The record is length-prefixed and padded to
// paddingUnit; when mode is ModeCompressed, payload is run through the
// Writer's Codec first.
func (w *Writer) Write(payload []byte, mode Mode) (offset uint64, err error) {
	stored := payload

	if mode == ModeCompressed {
		buf := make([]byte, w.codec.MaxCompressedSize(len(payload)))

		n, err := w.codec.Compress(buf, payload)
		if err != nil {
			return 0, fmt.Errorf("%w: compressing record: %w", ErrCodec, err)
		}

		stored = buf[:n]
	}

	header := make([]byte, recordHeaderSize)
	binary.BigEndian.PutUint64(header[0:8], uint64(len(stored)))
	header[8] = byte(mode)

	offset = uint64(w.size)

	if err := w.writeAt(header, int64(offset)); err != nil {
		return 0, err
	}

	if err := w.writeAt(stored, int64(offset)+recordHeaderSize); err != nil {
		return 0, err
	}

	recordLen := recordHeaderSize + int64(len(stored))
	padded := padTo(recordLen, paddingUnit)

	w.size = int64(offset) + padded

	return offset, nil
}

func (w *Writer) writeAt(p []byte, at int64) error {
	n, err := w.file.WriteAt(p, at)
	if err != nil {
		return fmt.Errorf("%w: write at %d: %w", ErrIO, at, err)
	}

	if n != len(p) {
		return fmt.Errorf("%w: short write at %d: wrote %d of %d bytes", ErrIO, at, n, len(p))
	}

	if at+int64(n) > w.size {
		w.size = at + int64(n)
	}

	return nil
}

// Read reads the record at offset, decompressing it first if it was
// written with ModeCompressed. It returns ErrOutOfBounds if offset (or
// the record's declared length) falls outside the file, and ErrCorrupt if
// the record's framing is otherwise inconsistent.
func (w *Writer) Read(offset uint64) ([]byte, error) {
	if int64(offset)+recordHeaderSize > w.size {
		return nil, fmt.Errorf("%w: record header at %d", ErrOutOfBounds, offset)
	}

	header := make([]byte, recordHeaderSize)
	if err := w.readAt(header, int64(offset)); err != nil {
		return nil, err
	}

	storedLen := binary.BigEndian.Uint64(header[0:8])
	mode := Mode(header[8])
	if mode != ModeUncompressed && mode != ModeCompressed {
		return nil, fmt.Errorf("%w: record at %d has unknown mode %d", ErrCorrupt, offset, mode)
	}

	payloadOffset := int64(offset) + recordHeaderSize
	if payloadOffset+int64(storedLen) > w.size {
		return nil, fmt.Errorf("%w: record payload at %d, length %d", ErrOutOfBounds, offset, storedLen)
	}

	stored := make([]byte, storedLen)
	if err := w.readAt(stored, payloadOffset); err != nil {
		return nil, err
	}

	if mode == ModeUncompressed {
		return stored, nil
	}

	n, err := w.codec.UncompressedLength(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	out := make([]byte, n)

	n, err = w.codec.Decompress(out, stored)
	if err != nil {
		return nil, fmt.Errorf("%w: decompressing record at %d: %w", ErrCodec, offset, err)
	}

	return out[:n], nil
}

func (w *Writer) readAt(p []byte, at int64) error {
	n, err := w.file.ReadAt(p, at)
	if err != nil && n != len(p) {
		return fmt.Errorf("%w: read at %d: %w", ErrIO, at, err)
	}

	return nil
}

// Find walks the file backward from end-of-file in paddingUnit-sized
// steps, probing each candidate record offset with accept, until accept
// reports a match or the walk reaches the start of the file. It is used
// at Open to locate the most recent valid head record without requiring
// any index of record offsets.
//
// accept receives the raw record bytes at a candidate offset (already
// decompressed per the record's own mode) and reports whether they
// represent a valid record of the kind being searched for. A candidate
// whose framing is corrupt is treated as a non-match and the walk
// continues.
func (w *Writer) Find(accept func(record []byte) bool) (offset uint64, found bool, err error) {
	for candidate := w.size - recordHeaderSize; candidate >= 0; candidate -= paddingUnit {
		record, readErr := w.Read(uint64(candidate))
		if readErr != nil {
			continue
		}

		if accept(record) {
			return uint64(candidate), true, nil
		}
	}

	return 0, false, nil
}

func padTo(n int64, unit int64) int64 {
	rem := n % unit
	if rem == 0 {
		return n
	}

	return n + (unit - rem)
}

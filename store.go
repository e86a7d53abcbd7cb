// Package bplus is the thin public surface over an embedded, single-file,
// append-only B+ tree key-value store. The engine doing the real work —
// page layout, copy-on-write mutation, head-record recovery, compaction —
// lives in internal/engine; this package is Open plus a handful of method
// wrappers around it.
package bplus

import (
	"fmt"

	"github.com/dreamsxin/bplus/internal/engine"
	"github.com/dreamsxin/bplus/internal/fs"
)

// Store is one open handle on a B+ tree file. A Store is not safe for
// concurrent use by multiple goroutines, and the backing file may not be
// opened by more than one Store at a time.
type Store struct {
	engine *engine.Store
}

// Open opens (creating if absent) the B+ tree file at path, taking an
// exclusive advisory lock for the lifetime of the returned Store. opts
// configures the fanout, comparator, and codec used when creating a new
// file; pass Options{} to use DefaultOptions().
func Open(path string, opts Options) (*Store, error) {
	opts = opts.withDefaults()

	eng, err := engine.Open(fs.NewReal(), path, opts.Comparator, opts.Codec, opts.PageSize)
	if err != nil {
		return nil, err
	}

	return &Store{engine: eng}, nil
}

// Close releases the store's file handle and advisory lock.
func (s *Store) Close() error {
	return s.engine.Close()
}

// Get returns the value stored for key. It returns ErrNotFound if key is
// absent.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(key)
}

// Set inserts key, or overwrites its value if already present. The
// mutation is durable once Set returns without error.
func (s *Store) Set(key, value []byte) error {
	return s.engine.Set(key, value)
}

// Remove deletes key. It returns ErrNotFound if key is absent.
func (s *Store) Remove(key []byte) error {
	return s.engine.Remove(key)
}

// Range calls visit once for every live key k with start <= k <= end (per
// the store's comparator), in ascending order. A nil end means unbounded.
// Range stops and returns visit's error, if any, without visiting further
// keys.
func (s *Store) Range(start, end []byte, visit func(key, value []byte) error) error {
	cursor, err := s.engine.Range(start, end)
	if err != nil {
		return err
	}

	for cursor.Next() {
		if err := visit(cursor.Key(), cursor.Value()); err != nil {
			return err
		}
	}

	return cursor.Err()
}

// Compact rewrites the store's backing file into a fresh, tightly packed
// file containing only reachable pages and values, then atomically
// replaces the source with it. The store remains usable and pointed at
// the same logical path after Compact returns.
func (s *Store) Compact() error {
	if err := s.engine.Compact(); err != nil {
		return fmt.Errorf("compacting: %w", err)
	}

	return nil
}

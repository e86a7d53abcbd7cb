package engine

import (
	"fmt"
	"strings"

	"github.com/dreamsxin/bplus/internal/fs"
)

// Store is the engine's top-level handle on one open B+ tree file. It
// owns the Writer, the current root, and the fanout and comparator the
// tree was opened with.
//
// Store is single-threaded: callers must not invoke its methods
// concurrently from multiple goroutines.
type Store struct {
	fsys   fs.FS
	path   string
	writer *Writer
	tree   *Tree
	fanout uint64
	root   nodeRef
}

// Open opens (creating if absent) the B+ tree file at path. fanout is
// only used when creating a new file; an existing file's fanout is read
// back from its head record, and a mismatch is not an error — the stored
// fanout always wins, since it describes the shape of pages already on
// disk.
func Open(fsys fs.FS, path string, cmp Comparator, codec Codec, fanout int) (*Store, error) {
	if fanout < 2 {
		return nil, fmt.Errorf("%w: fanout must be at least 2, got %d", ErrInvalidFanout, fanout)
	}

	writer, err := OpenWriter(fsys, path, codec)
	if err != nil {
		return nil, err
	}

	h, found, err := findHead(writer)
	if err != nil {
		_ = writer.Close()

		return nil, err
	}

	s := &Store{fsys: fsys, path: path, writer: writer}

	if found {
		s.fanout = h.fanout
		s.root = h.root
		s.tree = NewTree(writer, cmp, int(h.fanout))

		return s, nil
	}

	s.fanout = uint64(fanout)
	s.tree = NewTree(writer, cmp, fanout)

	root, err := s.tree.NewEmptyRoot()
	if err != nil {
		_ = writer.Close()

		return nil, err
	}

	if err := commitHead(writer, s.fanout, root); err != nil {
		_ = writer.Close()

		return nil, err
	}

	s.root = root

	return s, nil
}

// Close releases the store's file handle and lock.
func (s *Store) Close() error {
	return s.writer.Close()
}

// Get returns the value stored for key, or ErrNotFound.
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.tree.Get(s.root, key)
}

// Set inserts or overwrites key -> value and commits a new head record.
// The mutation is durable once Set returns without error.
func (s *Store) Set(key, value []byte) error {
	newRoot, err := s.tree.Set(s.root, key, value)
	if err != nil {
		return err
	}

	if err := commitHead(s.writer, s.fanout, newRoot); err != nil {
		return err
	}

	s.root = newRoot

	return nil
}

// Remove deletes key, returning ErrNotFound if it is absent. On success a
// new head record is committed.
func (s *Store) Remove(key []byte) error {
	newRoot, err := s.tree.Remove(s.root, key)
	if err != nil {
		return err
	}

	if err := commitHead(s.writer, s.fanout, newRoot); err != nil {
		return err
	}

	s.root = newRoot

	return nil
}

// Range returns a cursor over keys in [start, end] (end == nil means
// unbounded).
func (s *Store) Range(start, end []byte) (*Cursor, error) {
	return s.tree.Range(s.root, start, end)
}

// scratchPath derives the compaction scratch file's path from the
// source's: the source filename with ".compact" appended.
func scratchPath(path string) string {
	return path + ".compact"
}

// Compact rewrites the store's backing file into a fresh, tightly packed
// file containing only reachable pages and values, then atomically
// replaces the source with it. The source is left untouched if Compact
// fails at any point; a leftover scratch file is safe to remove.
func (s *Store) Compact() error {
	scratch := scratchPath(s.path)

	if _, err := s.fsys.Stat(scratch); err == nil {
		return fmt.Errorf("%w: %s", ErrCompactionConflict, scratch)
	}

	target, err := OpenWriter(s.fsys, scratch, s.writer.codec)
	if err != nil {
		return err
	}

	ok := false

	defer func() {
		if !ok {
			_ = target.Close()
			_ = s.fsys.Remove(scratch)
			_ = s.fsys.Remove(scratch + ".lock")
		}
	}()

	// Start the scratch file with an empty pad record. The head record
	// pointing at the copied tree is appended at the end, after the copy.
	if _, err := target.Write(make([]byte, 0), ModeUncompressed); err != nil {
		return err
	}

	targetTree := NewTree(target, s.tree.cmp, int(s.fanout))

	newRoot, err := copyPage(s.tree, targetTree, s.root)
	if err != nil {
		return err
	}

	if err := commitHead(target, s.fanout, newRoot); err != nil {
		return err
	}

	if err := target.Sync(); err != nil {
		return err
	}

	if err := target.Close(); err != nil {
		return err
	}

	// target's lock is released but the lock file itself still exists at
	// scratch+".lock"; the rename below only moves the scratch data file
	// over s.path, so the lock file must be cleaned up explicitly or it
	// is orphaned on disk.
	_ = s.fsys.Remove(scratch + ".lock")

	if err := s.writer.Close(); err != nil {
		return err
	}

	if err := s.fsys.Rename(scratch, s.path); err != nil {
		return fmt.Errorf("%w: replacing %s with compacted file: %w", ErrFile, s.path, err)
	}

	reopened, err := OpenWriter(s.fsys, s.path, s.writer.codec)
	if err != nil {
		return err
	}

	h, found, err := findHead(reopened)
	if err != nil || !found {
		_ = reopened.Close()

		if err == nil {
			err = ErrNoHead
		}

		return fmt.Errorf("reopening after compaction: %w", err)
	}

	s.writer = reopened
	s.fanout = h.fanout
	s.root = h.root
	s.tree = NewTree(reopened, s.tree.cmp, int(h.fanout))
	ok = true

	return nil
}

// copyPage recursively copies the subtree rooted at ref from src's
// writer into dst's, rewriting every slot's offset/config to the new
// coordinates, and returns the new ref.
func copyPage(src, dst *Tree, ref nodeRef) (nodeRef, error) {
	p, err := src.loadPage(ref)
	if err != nil {
		return nodeRef{}, err
	}

	if p.isLeaf {
		for i, sl := range p.slots {
			value, err := src.writer.Read(sl.location)
			if err != nil {
				return nodeRef{}, err
			}

			newOffset, err := dst.writer.Write(value, ModeCompressed)
			if err != nil {
				return nodeRef{}, err
			}

			p.slots[i] = newLeafSlot(sl.key, newOffset, sl.valueLen())
		}

		return dst.savePage(p)
	}

	for i, sl := range p.slots {
		newChildRef, err := copyPage(src, dst, childRef(sl))
		if err != nil {
			return nodeRef{}, err
		}

		p.slots[i] = newInternalSlot(sl.key, newChildRef.offset, newChildRef.size, newChildRef.isLeaf)
	}

	return dst.savePage(p)
}

// Destroy removes path and its associated lock file and, unless path is
// itself a scratch path, the compaction scratch file and its lock file.
// The store must already be closed.
func Destroy(fsys fs.FS, path string) error {
	if err := destroyFile(fsys, path); err != nil {
		return err
	}

	if strings.HasSuffix(path, ".compact") {
		return nil
	}

	return destroyFile(fsys, scratchPath(path))
}

func destroyFile(fsys fs.FS, path string) error {
	if err := fsys.Remove(path); err != nil {
		return fmt.Errorf("%w: %w", ErrFile, err)
	}

	if err := fsys.Remove(path + ".lock"); err != nil {
		return fmt.Errorf("%w: %w", ErrFile, err)
	}

	return nil
}

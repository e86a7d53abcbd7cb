package engine

import "fmt"

// maxKeySize bounds a single key so it can never, by itself, occupy an
// entire page: a key is rejected at insertion time rather than allowed
// to grow into one that could never share a page with at least two
// siblings (the leftmost sentinel and one real neighbor).
const maxKeySize = 1 << 16

// nodeRef identifies a saved page: the offset its serialized image was
// written at, the length of that serialized image (used to pack the
// config word of the slot pointing at it), and whether it is a leaf.
type nodeRef struct {
	offset uint64
	size   uint64
	isLeaf bool
}

// Tree is a copy-on-write B+ tree over a Writer. Tree itself holds no
// root: callers (Store) thread the current root nodeRef through
// Get/Set/Remove/Range and persist the result via a head record. This
// keeps Tree a pure function of (root, operation) -> new root, matching
// the engine's append-only, never-mutate-in-place design.
type Tree struct {
	writer *Writer
	cmp    Comparator
	fanout int
}

// NewTree returns a Tree backed by writer. fanout is the maximum number
// of slots a page may hold before it splits.
func NewTree(writer *Writer, cmp Comparator, fanout int) *Tree {
	return &Tree{writer: writer, cmp: cmp, fanout: fanout}
}

// NewEmptyRoot saves and returns a ref to a fresh, empty leaf page — the
// root of a brand new tree.
func (t *Tree) NewEmptyRoot() (nodeRef, error) {
	return t.savePage(&page{isLeaf: true})
}

func childRef(s slot) nodeRef {
	return nodeRef{offset: s.location, size: s.childSize(), isLeaf: s.childIsLeaf()}
}

func (t *Tree) loadPage(ref nodeRef) (*page, error) {
	buf, err := t.writer.Read(ref.offset)
	if err != nil {
		return nil, err
	}

	p, err := decodePage(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: page at offset %d: %w", ErrCorrupt, ref.offset, err)
	}

	return p, nil
}

func (t *Tree) savePage(p *page) (nodeRef, error) {
	buf := p.encode()

	offset, err := t.writer.Write(buf, ModeCompressed)
	if err != nil {
		return nodeRef{}, err
	}

	return nodeRef{offset: offset, size: uint64(len(buf)), isLeaf: p.isLeaf}, nil
}

// Get descends from root to the leaf that would hold key and, if present,
// returns its value. It returns ErrNotFound if key is absent.
func (t *Tree) Get(root nodeRef, key []byte) ([]byte, error) {
	ref := root

	for {
		p, err := t.loadPage(ref)
		if err != nil {
			return nil, err
		}

		idx, found := p.search(key, t.cmp)

		if p.isLeaf {
			if !found {
				return nil, ErrNotFound
			}

			return t.writer.Read(p.slots[idx].location)
		}

		ref = childRef(p.slots[idx])
	}
}

// insertResult is the outcome of one recursive step of Set: either the
// subtree's new ref (resultOK), or the unsaved, over-capacity page image
// that the caller must split (resultSplit). Modeling the overflowing page
// as data the caller receives — rather than splitting it in place before
// returning — keeps the split operation itself (which needs to know the
// parent slot being replaced) in one place regardless of recursion depth.
type insertResult struct {
	kind     resultKind
	ref      nodeRef
	overflow *page
}

// Set inserts or overwrites key -> value under root, returning the new
// root ref. The previous root image is left untouched on disk — the
// caller is responsible for committing the new root via a head record.
func (t *Tree) Set(root nodeRef, key, value []byte) (nodeRef, error) {
	if len(key) > maxKeySize {
		return nodeRef{}, fmt.Errorf("%w: key is %d bytes, max is %d", ErrKeyTooLarge, len(key), maxKeySize)
	}

	valueOffset, err := t.writer.Write(value, ModeCompressed)
	if err != nil {
		return nodeRef{}, err
	}

	rootPage, err := t.loadPage(root)
	if err != nil {
		return nodeRef{}, err
	}

	res, err := t.insert(rootPage, key, valueOffset, uint64(len(value)))
	if err != nil {
		return nodeRef{}, err
	}

	if res.kind != resultSplit {
		return res.ref, nil
	}

	leftRef, rightRef, midKey, err := t.splitOverflow(res.overflow)
	if err != nil {
		return nodeRef{}, err
	}

	newRoot := &page{
		isLeaf: false,
		slots: []slot{
			newInternalSlot(nil, leftRef.offset, leftRef.size, leftRef.isLeaf),
			newInternalSlot(midKey, rightRef.offset, rightRef.size, rightRef.isLeaf),
		},
	}

	return t.savePage(newRoot)
}

func (t *Tree) insert(p *page, key []byte, valueOffset, valueLen uint64) (insertResult, error) {
	idx, found := p.search(key, t.cmp)

	if p.isLeaf {
		s := newLeafSlot(append([]byte(nil), key...), valueOffset, valueLen)

		if found {
			p.slots[idx] = s
		} else {
			p.insertAt(idx, s)
		}
	} else {
		child, err := t.loadPage(childRef(p.slots[idx]))
		if err != nil {
			return insertResult{}, err
		}

		childRes, err := t.insert(child, key, valueOffset, valueLen)
		if err != nil {
			return insertResult{}, err
		}

		if childRes.kind == resultSplit {
			leftRef, rightRef, midKey, err := t.splitOverflow(childRes.overflow)
			if err != nil {
				return insertResult{}, err
			}

			p.slots[idx] = newInternalSlot(p.slots[idx].key, leftRef.offset, leftRef.size, leftRef.isLeaf)
			p.insertAt(idx+1, newInternalSlot(midKey, rightRef.offset, rightRef.size, rightRef.isLeaf))
		} else {
			p.slots[idx] = newInternalSlot(p.slots[idx].key, childRes.ref.offset, childRes.ref.size, childRes.ref.isLeaf)
		}
	}

	if len(p.slots) == t.fanout {
		return insertResult{kind: resultSplit, overflow: p}, nil
	}

	ref, err := t.savePage(p)
	if err != nil {
		return insertResult{}, err
	}

	return insertResult{kind: resultOK, ref: ref}, nil
}

// splitOverflow splits an over-capacity page (exactly t.fanout slots)
// into two fresh pages at the midpoint, saving both, and returns their
// refs along with the separator key to install in the parent.
func (t *Tree) splitOverflow(p *page) (left, right nodeRef, midKey []byte, err error) {
	mid := t.fanout / 2
	midKey = append([]byte(nil), p.slots[mid].key...)

	leftPage := &page{isLeaf: p.isLeaf, slots: append([]slot(nil), p.slots[:mid]...)}
	rightSlots := append([]slot(nil), p.slots[mid:]...)

	if !p.isLeaf {
		// The right half's first slot becomes the new leftmost sentinel:
		// its key moves up to the parent as the separator, but its child
		// pointer is still the subtree for "everything not covered by a
		// later sibling".
		rightSlots[0] = slot{key: nil, location: rightSlots[0].location, config: rightSlots[0].config}
	}

	rightPage := &page{isLeaf: p.isLeaf, slots: rightSlots}

	left, err = t.savePage(leftPage)
	if err != nil {
		return nodeRef{}, nodeRef{}, nil, err
	}

	right, err = t.savePage(rightPage)
	if err != nil {
		return nodeRef{}, nodeRef{}, nil, err
	}

	return left, right, midKey, nil
}

// removeResult is the outcome of one recursive step of Remove.
type removeResult struct {
	kind resultKind
	ref  nodeRef
}

// Remove deletes key from under root, returning the new root ref. It
// returns ErrNotFound if key is absent. A root emptied by the removal
// collapses to a fresh empty leaf rather than propagating as a special
// case the caller has to handle.
func (t *Tree) Remove(root nodeRef, key []byte) (nodeRef, error) {
	rootPage, err := t.loadPage(root)
	if err != nil {
		return nodeRef{}, err
	}

	res, err := t.remove(rootPage, key, true)
	if err != nil {
		return nodeRef{}, err
	}

	if res.kind == resultEmptyPage {
		return t.savePage(&page{isLeaf: true})
	}

	return res.ref, nil
}

func (t *Tree) remove(p *page, key []byte, isRoot bool) (removeResult, error) {
	idx, found := p.search(key, t.cmp)

	if p.isLeaf {
		if !found {
			return removeResult{}, ErrNotFound
		}

		p.removeAt(idx)

		if len(p.slots) == 0 && !isRoot {
			return removeResult{kind: resultEmptyPage}, nil
		}

		ref, err := t.savePage(p)
		if err != nil {
			return removeResult{}, err
		}

		return removeResult{kind: resultOK, ref: ref}, nil
	}

	child, err := t.loadPage(childRef(p.slots[idx]))
	if err != nil {
		return removeResult{}, err
	}

	childRes, err := t.remove(child, key, false)
	if err != nil {
		return removeResult{}, err
	}

	if childRes.kind == resultEmptyPage {
		p.removeAt(idx)

		if idx == 0 && len(p.slots) > 0 {
			// The slot that just became index 0 was a real separator key;
			// slot 0 of an internal page must always carry the empty
			// leftmost-sentinel key, so re-sentinelize it.
			p.slots[0].key = nil
		}

		if len(p.slots) == 1 && !isRoot {
			// Lift: this page now does nothing but forward to a single
			// child, so replace it with that child directly.
			return removeResult{kind: resultOK, ref: childRef(p.slots[0])}, nil
		}
	} else {
		p.slots[idx] = newInternalSlot(p.slots[idx].key, childRes.ref.offset, childRes.ref.size, childRes.ref.isLeaf)
	}

	if len(p.slots) == 0 {
		return removeResult{kind: resultEmptyPage}, nil
	}

	ref, err := t.savePage(p)
	if err != nil {
		return removeResult{}, err
	}

	return removeResult{kind: resultOK, ref: ref}, nil
}

// Range returns a cursor over [start, end] (inclusive of both bounds, per
// the comparator). A nil end means unbounded.
func (t *Tree) Range(root nodeRef, start, end []byte) (*Cursor, error) {
	stack, err := t.descend(root, start)
	if err != nil {
		return nil, err
	}

	return &Cursor{tree: t, stack: stack, end: end}, nil
}

// descend builds the root-to-leaf path used to seed a Cursor: one entry
// per level, each recording the page and the index within it that the
// search for start landed on.
func (t *Tree) descend(root nodeRef, start []byte) ([]cursorFrame, error) {
	var stack []cursorFrame

	ref := root

	for {
		p, err := t.loadPage(ref)
		if err != nil {
			return nil, err
		}

		idx, _ := p.search(start, t.cmp)
		stack = append(stack, cursorFrame{page: p, index: idx})

		if p.isLeaf {
			return stack, nil
		}

		ref = childRef(p.slots[idx])
	}
}

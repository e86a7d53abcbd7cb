package engine

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// pageHeaderSize is the fixed prefix of every serialized page: a leaf
// flag followed by a big-endian uint64 slot count.
const pageHeaderSize = 1 + 8

// page is the in-memory decoded form of one B+ tree node. Leaf pages
// hold slots whose location is a value offset; internal pages
// hold slots whose location is a child page offset. An internal page's
// slot 0 is a leftmost sentinel with an empty key that compares less
// than any real key.
type page struct {
	isLeaf bool
	slots  []slot
}

// encodedLen returns the number of bytes page occupies when serialized.
func (p *page) encodedLen() int {
	n := pageHeaderSize
	for _, s := range p.slots {
		n += s.encodedLen()
	}

	return n
}

// encode serializes p into a freshly allocated buffer.
func (p *page) encode() []byte {
	buf := make([]byte, 0, p.encodedLen())

	if p.isLeaf {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(p.slots)))
	buf = append(buf, countBuf[:]...)

	for _, s := range p.slots {
		buf = s.appendTo(buf)
	}

	return buf
}

// decodePage parses a page from its serialized form. Untrusted or
// truncated input (a corrupt file read past a crash, or a mismatched
// codec) must never panic the caller: decodePage runs under recover and
// converts any panic into ErrCorrupt, mirroring how the teacher's binary
// cache guards its own untrusted-buffer parsing.
func decodePage(buf []byte) (p *page, err error) {
	defer func() {
		if r := recover(); r != nil {
			p = nil
			err = fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()

	if len(buf) < pageHeaderSize {
		return nil, ErrCorrupt
	}

	isLeaf := buf[0] != 0
	count := binary.BigEndian.Uint64(buf[1:9])

	rest := buf[pageHeaderSize:]
	slots := make([]slot, 0, count)

	for i := uint64(0); i < count; i++ {
		s, n, err := decodeSlot(rest)
		if err != nil {
			return nil, err
		}

		slots = append(slots, s)
		rest = rest[n:]
	}

	return &page{isLeaf: isLeaf, slots: slots}, nil
}

// search locates key among p's slots using cmp. For a leaf page, found
// reports whether key is present and index is its slot; if absent, index
// is the position key would be inserted at. For an internal page, index
// is always the slot whose subtree key points to — the last slot whose
// key is <= key (slot 0's empty key always satisfies this), and found is
// always true.
func (p *page) search(key []byte, cmp Comparator) (index int, found bool) {
	if p.isLeaf {
		i := sort.Search(len(p.slots), func(i int) bool {
			return cmp(p.slots[i].key, key) >= 0
		})

		if i < len(p.slots) && cmp(p.slots[i].key, key) == 0 {
			return i, true
		}

		return i, false
	}

	// Largest i such that slots[i].key <= key. Slot 0's key is empty and
	// compares least, so i is always >= 0 for a non-empty internal page.
	i := sort.Search(len(p.slots), func(i int) bool {
		return cmp(p.slots[i].key, key) > 0
	})

	return i - 1, true
}

// insertAt inserts s at index, shifting subsequent slots right.
func (p *page) insertAt(index int, s slot) {
	p.slots = append(p.slots, slot{})
	copy(p.slots[index+1:], p.slots[index:])
	p.slots[index] = s
}

// removeAt removes the slot at index, shifting subsequent slots left.
func (p *page) removeAt(index int) {
	copy(p.slots[index:], p.slots[index+1:])
	p.slots = p.slots[:len(p.slots)-1]
}

// split divides p in two: p retains slots[:at], and a new right sibling
// holds slots[at:]. For an internal split, the caller is responsible for
// installing a fresh leftmost sentinel on the right sibling.
func (p *page) split(at int) *page {
	right := &page{isLeaf: p.isLeaf, slots: append([]slot(nil), p.slots[at:]...)}
	p.slots = p.slots[:at]

	return right
}

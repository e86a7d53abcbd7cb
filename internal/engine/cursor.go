package engine

// cursorFrame is one level of a Cursor's root-to-leaf path: the page at
// that level, and the index of the slot currently being visited (for a
// leaf frame) or descended into (for an internal frame).
type cursorFrame struct {
	page  *page
	index int
}

// Cursor is a stateful iterator over an ordered key range, returned by
// Tree.Range. There are no on-disk sibling pointers, so a naive Range
// would re-descend from the root for every element; Cursor instead keeps
// the root-to-leaf path it already walked and advances along it,
// releasing each page as it moves past.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	tree *Tree
	end  []byte

	stack []cursorFrame
	done  bool
	err   error

	key   []byte
	value []byte
}

// Next advances the cursor to the next key in range, reporting whether
// one was found. Callers must check Err after Next returns false.
func (c *Cursor) Next() bool {
	if c.done || c.err != nil {
		return false
	}

	for {
		if len(c.stack) == 0 {
			c.done = true

			return false
		}

		top := &c.stack[len(c.stack)-1]

		if !top.page.isLeaf {
			ref := childRef(top.page.slots[top.index])

			child, err := c.tree.loadPage(ref)
			if err != nil {
				c.err = err

				return false
			}

			c.stack = append(c.stack, cursorFrame{page: child, index: 0})

			continue
		}

		if top.index >= len(top.page.slots) {
			c.popExhausted()

			continue
		}

		s := top.page.slots[top.index]

		if c.end != nil && c.tree.cmp(s.key, c.end) > 0 {
			c.done = true

			return false
		}

		value, err := c.tree.writer.Read(s.location)
		if err != nil {
			c.err = err

			return false
		}

		c.key = s.key
		c.value = value
		top.index++

		return true
	}
}

// popExhausted discards the (fully visited) top leaf frame and advances
// the nearest ancestor frame with an unvisited sibling, dropping any
// ancestor frames that have none left — the "advance to the next leaf"
// step of the traversal.
func (c *Cursor) popExhausted() {
	c.stack = c.stack[:len(c.stack)-1]

	for len(c.stack) > 0 {
		parent := &c.stack[len(c.stack)-1]
		parent.index++

		if parent.index < len(parent.page.slots) {
			return
		}

		c.stack = c.stack[:len(c.stack)-1]
	}
}

// Key returns the key at the cursor's current position. Valid only after
// a call to Next that returned true.
func (c *Cursor) Key() []byte {
	return c.key
}

// Value returns the value at the cursor's current position. Valid only
// after a call to Next that returned true.
func (c *Cursor) Value() []byte {
	return c.value
}

// Err returns the first error encountered during iteration, if any.
func (c *Cursor) Err() error {
	return c.err
}

package engine

import "encoding/binary"

// slotHeaderSize is the fixed-width prefix of every slot: three
// big-endian uint64 fields followed by the raw key bytes.
//
//	field 0: key length, in bytes
//	field 1: location — a leaf slot's value offset, or an internal slot's
//	         child page offset
//	field 2: config — packs per-slot metadata distinguishing leaf slots
//	         from internal slots (see below)
const slotHeaderSize = 3 * 8

// slot is one entry of a page: a key plus either a value location (leaf)
// or a child pointer (internal). Slot 0 of an internal page is the
// leftmost sentinel and carries a zero-length key.
type slot struct {
	key      []byte
	location uint64
	config   uint64
}

// Leaf slots pack the value length directly into config. Internal slots
// pack the serialized size of the child page in config's upper 63 bits
// and a literal 1 in bit 0 to distinguish "child is a leaf" from "child
// is internal" without a separate page-type lookup.
const internalChildIsLeafBit = 1

func newLeafSlot(key []byte, valueOffset uint64, valueLen uint64) slot {
	return slot{key: key, location: valueOffset, config: valueLen}
}

func newInternalSlot(key []byte, childOffset uint64, childSize uint64, childIsLeaf bool) slot {
	cfg := childSize << 1
	if childIsLeaf {
		cfg |= internalChildIsLeafBit
	}

	return slot{key: key, location: childOffset, config: cfg}
}

func (s slot) valueLen() uint64 {
	return s.config
}

func (s slot) childSize() uint64 {
	return s.config >> 1
}

func (s slot) childIsLeaf() bool {
	return s.config&internalChildIsLeafBit != 0
}

// encodedLen returns the number of bytes slot occupies when serialized.
func (s slot) encodedLen() int {
	return slotHeaderSize + len(s.key)
}

// appendTo appends the serialized form of s to buf, returning the
// extended slice.
func (s slot) appendTo(buf []byte) []byte {
	var header [slotHeaderSize]byte

	binary.BigEndian.PutUint64(header[0:8], uint64(len(s.key)))
	binary.BigEndian.PutUint64(header[8:16], s.location)
	binary.BigEndian.PutUint64(header[16:24], s.config)

	buf = append(buf, header[:]...)
	buf = append(buf, s.key...)

	return buf
}

// decodeSlot parses a single slot from the front of buf, returning the
// slot and the number of bytes consumed. It returns ErrCorrupt if buf is
// too short to hold a full slot header, or the header declares a key
// length that would run past the end of buf.
func decodeSlot(buf []byte) (slot, int, error) {
	if len(buf) < slotHeaderSize {
		return slot{}, 0, ErrCorrupt
	}

	keyLen := binary.BigEndian.Uint64(buf[0:8])
	location := binary.BigEndian.Uint64(buf[8:16])
	config := binary.BigEndian.Uint64(buf[16:24])

	end := slotHeaderSize + keyLen
	if end > uint64(len(buf)) {
		return slot{}, 0, ErrCorrupt
	}

	key := make([]byte, keyLen)
	copy(key, buf[slotHeaderSize:end])

	return slot{key: key, location: location, config: config}, int(end), nil
}

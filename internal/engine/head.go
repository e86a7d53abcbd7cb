package engine

import (
	"encoding/binary"
	"fmt"
)

// headMagic identifies a valid head record. headVersion is bumped
// whenever the on-disk head layout changes incompatibly.
const (
	headMagic   uint64 = 0xB9714EE0C0DEC0DE
	headVersion uint64 = 1
)

// headFieldCount * 8 is the head record's uncompressed payload size:
// magic, version, fanout (page_size), root offset, root config.
const headFieldCount = 5
const headRecordSize = headFieldCount * 8

// head is the decoded form of a head record: a pointer at the tree's
// root, persisted as the durability boundary for every mutation that
// touches it.
type head struct {
	fanout uint64
	root   nodeRef
}

func encodeHead(h head) []byte {
	buf := make([]byte, headRecordSize)

	binary.BigEndian.PutUint64(buf[0:8], headMagic)
	binary.BigEndian.PutUint64(buf[8:16], headVersion)
	binary.BigEndian.PutUint64(buf[16:24], h.fanout)
	binary.BigEndian.PutUint64(buf[24:32], h.root.offset)
	binary.BigEndian.PutUint64(buf[32:40], packRootConfig(h.root))

	return buf
}

func decodeHead(buf []byte) (head, bool) {
	if len(buf) != headRecordSize {
		return head{}, false
	}

	if binary.BigEndian.Uint64(buf[0:8]) != headMagic {
		return head{}, false
	}

	if binary.BigEndian.Uint64(buf[8:16]) != headVersion {
		return head{}, false
	}

	fanout := binary.BigEndian.Uint64(buf[16:24])
	offset := binary.BigEndian.Uint64(buf[24:32])
	config := binary.BigEndian.Uint64(buf[32:40])

	return head{
		fanout: fanout,
		root:   unpackRootConfig(offset, config),
	}, true
}

func packRootConfig(ref nodeRef) uint64 {
	cfg := ref.size << 1
	if ref.isLeaf {
		cfg |= internalChildIsLeafBit
	}

	return cfg
}

func unpackRootConfig(offset, config uint64) nodeRef {
	return nodeRef{
		offset: offset,
		size:   config >> 1,
		isLeaf: config&internalChildIsLeafBit != 0,
	}
}

// commitHead appends a new head record pointing at root. It is always
// written uncompressed, so the most recent valid record can be recovered
// by Writer.Find without first guessing a codec.
func commitHead(w *Writer, fanout uint64, root nodeRef) error {
	_, err := w.Write(encodeHead(head{fanout: fanout, root: root}), ModeUncompressed)
	if err != nil {
		return fmt.Errorf("committing head record: %w", err)
	}

	return nil
}

// findHead locates the most recently committed valid head record by
// stepping backward through the file. found is false if the file holds
// no valid head record, e.g. because it is empty.
func findHead(w *Writer) (h head, found bool, err error) {
	offset, found, err := w.Find(func(record []byte) bool {
		_, ok := decodeHead(record)

		return ok
	})
	if err != nil {
		return head{}, false, err
	}

	if !found {
		return head{}, false, nil
	}

	record, err := w.Read(offset)
	if err != nil {
		return head{}, false, err
	}

	h, ok := decodeHead(record)
	if !ok {
		return head{}, false, fmt.Errorf("%w: record at %d failed to redecode", ErrCorrupt, offset)
	}

	return h, true, nil
}

package engine

import "bytes"

// Comparator is a deterministic, transitive total ordering over byte
// strings. It need not be byte-lexicographic — the engine never assumes
// anything about key layout beyond what Comparator reports.
//
// Comparator(a, b) must return a negative number if a < b, zero if a == b,
// and a positive number if a > b.
type Comparator func(a, b []byte) int

// ByteCompare is the default comparator: byte-lexicographic order.
func ByteCompare(a, b []byte) int {
	return bytes.Compare(a, b)
}

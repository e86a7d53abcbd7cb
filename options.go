package bplus

import "github.com/dreamsxin/bplus/internal/engine"

// Comparator is a deterministic, transitive total ordering over byte
// strings. It need not be byte-lexicographic.
type Comparator = engine.Comparator

// Codec is the compression codec collaborator, supplied by the caller
// at Open time.
type Codec = engine.Codec

// ByteCompare is the default Comparator: byte-lexicographic order.
func ByteCompare(a, b []byte) int { return engine.ByteCompare(a, b) }

// NopCodec stores payloads uncompressed. Useful for tests and for callers
// that want the engine's uniform compressed/uncompressed record framing
// without paying a compression cost.
type NopCodec = engine.NopCodec

// S2Codec adapts klauspost/compress's S2 block format to Codec. It is the
// codec DefaultOptions uses.
type S2Codec = engine.S2Codec

// DefaultPageSize is the fanout used when Options.PageSize is left at
// its zero value.
const DefaultPageSize = 128

// Options configures Open. The zero value is valid and equivalent to
// DefaultOptions().
type Options struct {
	// PageSize is the maximum number of slots a page may hold before it
	// splits. Only consulted when creating a new file; an existing
	// file's fanout is read back from its head record. Must be at least
	// 2 if set explicitly.
	PageSize int

	// Comparator orders keys. Defaults to ByteCompare.
	Comparator Comparator

	// Codec compresses page and value records. Defaults to S2Codec, the
	// engine's klauspost/compress/s2 adapter.
	Codec Codec
}

// DefaultOptions returns the Options Open uses when none are supplied:
// DefaultPageSize, ByteCompare, and the engine's default S2 codec.
func DefaultOptions() Options {
	return Options{
		PageSize:   DefaultPageSize,
		Comparator: ByteCompare,
		Codec:      engine.S2Codec{},
	}
}

func (o Options) withDefaults() Options {
	if o.PageSize == 0 {
		o.PageSize = DefaultPageSize
	}

	if o.Comparator == nil {
		o.Comparator = ByteCompare
	}

	if o.Codec == nil {
		o.Codec = engine.S2Codec{}
	}

	return o
}

package engine

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
)

// Codec is the compression codec collaborator. It is a host capability,
// not something the engine implements for itself: callers supply one at
// Open time.
//
// Compress/Decompress never grow their dst argument — callers must size it
// using MaxCompressedSize / UncompressedLength first. This mirrors the
// fixed-buffer C calling convention the spec describes (compress(src,
// src_len, dst, dst_cap)) rather than returning freshly allocated slices.
type Codec interface {
	// MaxCompressedSize returns an upper bound on the compressed size of n
	// uncompressed bytes.
	MaxCompressedSize(n int) int

	// Compress compresses src into dst, returning the number of bytes
	// written. dst must have length >= MaxCompressedSize(len(src)).
	Compress(dst, src []byte) (int, error)

	// UncompressedLength returns the decoded length of a compressed
	// buffer, without decoding it.
	UncompressedLength(src []byte) (int, error)

	// Decompress decompresses src into dst, returning the number of bytes
	// written. dst must have length >= the value UncompressedLength(src)
	// would report.
	Decompress(dst, src []byte) (int, error)
}

// NopCodec stores payloads uncompressed. Useful for tests and for hosts
// that want the Writer's uniform compressed/uncompressed interface without
// paying a compression cost.
type NopCodec struct{}

func (NopCodec) MaxCompressedSize(n int) int { return n }

func (NopCodec) Compress(dst, src []byte) (int, error) {
	n := copy(dst, src)
	if n < len(src) {
		return 0, io.ErrShortBuffer
	}

	return n, nil
}

func (NopCodec) UncompressedLength(src []byte) (int, error) { return len(src), nil }

func (NopCodec) Decompress(dst, src []byte) (int, error) {
	n := copy(dst, src)
	if n < len(src) {
		return 0, io.ErrShortBuffer
	}

	return n, nil
}

// S2Codec adapts klauspost/compress's S2 block format (a Snappy-compatible,
// faster-decoding codec) to the Codec interface. It is the default codec
// the bplus package's Open uses when no Codec is supplied; engine.Open
// itself applies no default.
type S2Codec struct{}

func (S2Codec) MaxCompressedSize(n int) int { return s2.MaxEncodedLen(n) }

func (S2Codec) Compress(dst, src []byte) (int, error) {
	need := s2.MaxEncodedLen(len(src))
	if len(dst) < need {
		return 0, fmt.Errorf("%w: dst has %d bytes, need %d", ErrCodec, len(dst), need)
	}

	out := s2.Encode(dst, src)

	return len(out), nil
}

func (S2Codec) UncompressedLength(src []byte) (int, error) {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	return n, nil
}

func (S2Codec) Decompress(dst, src []byte) (int, error) {
	out, err := s2.Decode(dst, src)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	return len(out), nil
}

// Compile-time interface checks.
var (
	_ Codec = NopCodec{}
	_ Codec = S2Codec{}
)

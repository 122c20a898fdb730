// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package compress adapts cached signature entries for on-disk
// storage in the signature cache (see lib/sigcache): it compresses
// each blob with both LZ4 and zstd, keeps whichever output is
// smaller, and stores the bytes uncompressed when neither helps.
package compress

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Tag identifies the algorithm a cached signature blob was compressed
// with. Persisted as a single byte in the cache index; changing these
// values invalidates existing caches.
type Tag uint8

const (
	// None indicates the blob is stored uncompressed. Chosen when
	// neither LZ4 nor zstd beats the uncompressed size — small
	// signatures of high-entropy digests routinely fall here.
	None Tag = 0
	// LZ4 indicates LZ4 block compression: fast, modest ratio.
	LZ4 Tag = 1
	// Zstd indicates zstd compression at the default speed level:
	// slower, better ratio. Signature files interleave 32-byte
	// digests (incompressible) with 4-byte lengths (often repetitive
	// for fixed-size chunking profiles), so zstd earns its keep only
	// when a profile produces many equal-length chunks.
	Zstd Tag = 2
)

func (t Tag) String() string {
	switch t {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", t)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode picks the smallest of {uncompressed, LZ4, zstd} for data and
// returns the chosen bytes with their Tag.
func Encode(data []byte) ([]byte, Tag, error) {
	best := data
	tag := None

	if lz4Compressed, err := compressLZ4(data); err == nil && len(lz4Compressed) < len(best) {
		best = lz4Compressed
		tag = LZ4
	}

	zstdCompressed := zstdEncoder.EncodeAll(data, nil)
	if len(zstdCompressed) < len(best) {
		best = zstdCompressed
		tag = Zstd
	}

	return best, tag, nil
}

// Decode reverses Encode given the Tag it selected and the original
// uncompressed length.
func Decode(data []byte, tag Tag, uncompressedSize int) ([]byte, error) {
	switch tag {
	case None:
		if len(data) != uncompressedSize {
			return nil, fmt.Errorf("compress: uncompressed blob size %d does not match expected %d", len(data), uncompressedSize)
		}
		return data, nil
	case LZ4:
		return decompressLZ4(data, uncompressedSize)
	case Zstd:
		out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
		if err != nil {
			return nil, fmt.Errorf("compress: zstd decode: %w", err)
		}
		if len(out) != uncompressedSize {
			return nil, fmt.Errorf("compress: zstd decoded %d bytes, expected %d", len(out), uncompressedSize)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("compress: unknown tag %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	dst := make([]byte, bound)
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 compress: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("compress: lz4 reported incompressible input")
	}
	return dst[:n], nil
}

func decompressLZ4(data []byte, uncompressedSize int) ([]byte, error) {
	dst := make([]byte, uncompressedSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("compress: lz4 decompress: %w", err)
	}
	if n != uncompressedSize {
		return nil, fmt.Errorf("compress: lz4 decompressed %d bytes, expected %d", n, uncompressedSize)
	}
	return dst, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"io"
	"math/bits"
)

// Params fixes the three chunk size parameters the Chunker, Signer,
// and Differ share. The chunking function is a pure function of
// (bytes, Params): identical inputs always produce identical chunk
// boundaries.
type Params struct {
	MinSize int
	AvgSize int
	MaxSize int
}

// DefaultParams matches the documented defaults: 16 KiB minimum,
// 32 KiB average, 64 KiB maximum.
var DefaultParams = Params{MinSize: 16 << 10, AvgSize: 32 << 10, MaxSize: 64 << 10}

const (
	absoluteMinSize = 64
	absoluteMaxSize = 1 << 30

	// normalization fixes the FastCDC 2020 "normalized chunking"
	// level at 2 (of 0-3): most chunks land close to AvgSize without
	// making small or large outliers impossible. The engine does not
	// expose this as a tunable -- a fixed normalization level keeps
	// the gear mask selection, and therefore the boundary sequence,
	// reproducible from Params alone.
	normalization = 2
)

// Validate rejects malformed parameters before any bytes are read, as
// required by the Chunker's failure-mode contract.
func (p Params) Validate() error {
	if p.MinSize <= 0 || p.AvgSize <= 0 || p.MaxSize <= 0 {
		return errBadParameters("minSize, avgSize, and maxSize must all be positive (got %d, %d, %d)", p.MinSize, p.AvgSize, p.MaxSize)
	}
	if p.MinSize > p.AvgSize || p.AvgSize > p.MaxSize {
		return errBadParameters("parameters must satisfy minSize <= avgSize <= maxSize (got %d, %d, %d)", p.MinSize, p.AvgSize, p.MaxSize)
	}
	if p.AvgSize < absoluteMinSize || p.AvgSize > absoluteMaxSize {
		return errBadParameters("avgSize must be in range [%d, %d], got %d", absoluteMinSize, absoluteMaxSize, p.AvgSize)
	}
	if p.AvgSize&(p.AvgSize-1) != 0 {
		return errBadParameters("avgSize must be a power of two to select a FastCDC normalization mask, got %d", p.AvgSize)
	}
	return nil
}

// Chunk is one content-defined slice of a stream: a byte offset, a
// length, and (until the next call to Chunker.Next) the chunk's
// bytes.
type Chunk struct {
	Offset int64
	Length int
	Data   []byte
}

// Chunker splits a stream into variable-length, content-defined
// chunks using dual-mask FastCDC (gear-hash rolling checksum, strict
// mask before the target average, relaxed mask after). It reads from
// a buffered internal window so memory use stays O(maxSize)
// regardless of stream length.
type Chunker struct {
	params Params

	maskSmall        uint64
	maskLarge        uint64
	maskSmallShifted uint64
	maskLargeShifted uint64

	reader io.Reader

	buf       []byte
	bufCursor int
	bufEnd    int
	streamPos int64
	readerEOF bool
}

// NewChunker constructs a Chunker reading from r with the given
// parameters, rejecting them via Params.Validate before any bytes are
// read.
func NewChunker(r io.Reader, params Params) (*Chunker, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	log2Avg := bits.TrailingZeros(uint(params.AvgSize))
	smallBits := log2Avg + normalization
	largeBits := log2Avg - normalization
	if smallBits > len(gearMasks)-1 || largeBits < 0 {
		return nil, errBadParameters("avgSize %d is out of range for FastCDC normalization masks", params.AvgSize)
	}

	maskSmall := gearMasks[smallBits]
	maskLarge := gearMasks[largeBits]

	bufSize := params.MaxSize * 2

	return &Chunker{
		params:           params,
		maskSmall:        maskSmall,
		maskLarge:        maskLarge,
		maskSmallShifted: maskSmall << 1,
		maskLargeShifted: maskLarge << 1,
		reader:           r,
		buf:              make([]byte, bufSize),
		bufCursor:        bufSize,
		bufEnd:           bufSize,
	}, nil
}

func (c *Chunker) fillBuffer() error {
	available := c.bufEnd - c.bufCursor
	if available >= c.params.MaxSize {
		return nil
	}

	copy(c.buf[:available], c.buf[c.bufCursor:c.bufEnd])
	c.bufCursor = 0

	if c.readerEOF {
		c.bufEnd = available
		return nil
	}

	n, err := io.ReadFull(c.reader, c.buf[available:])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		c.bufEnd = available + n
		c.readerEOF = true
		return nil
	}
	if err != nil {
		return errIo(err, "reading chunker input")
	}
	c.bufEnd = available + n
	return nil
}

// Next returns the next chunk, or io.EOF when the stream is
// exhausted. The returned Chunk's Data slice is only valid until the
// next call to Next.
func (c *Chunker) Next() (Chunk, error) {
	if err := c.fillBuffer(); err != nil {
		return Chunk{}, err
	}
	if c.bufEnd == c.bufCursor {
		return Chunk{}, io.EOF
	}

	length := c.cut(c.buf[c.bufCursor:c.bufEnd])

	chunk := Chunk{
		Offset: c.streamPos,
		Length: length,
		Data:   c.buf[c.bufCursor : c.bufCursor+length],
	}

	c.bufCursor += length
	c.streamPos += int64(length)

	return chunk, nil
}

// cut scans data for the first FastCDC boundary, applying the strict
// mask up to the normalized target size and the relaxed mask from
// there to maxSize. It forces a boundary at maxSize (or at the end of
// a final short remainder) if no mask ever matches.
func (c *Chunker) cut(data []byte) int {
	dataLen := len(data)
	if dataLen <= c.params.MinSize {
		return dataLen
	}

	maxBoundary := min(dataLen, c.params.MaxSize)
	normalizeBoundary := min(maxBoundary, c.params.AvgSize)

	// Process two bytes per loop iteration (FastCDC 2020 §3.7): one
	// tap against the pre-shifted gear table folds in the first
	// byte's contribution one hash-round early.
	scanStart := c.params.MinSize &^ 1
	normalizeAt := normalizeBoundary &^ 1
	scanEnd := maxBoundary &^ 1

	var fingerprint uint64

	for i := scanStart; i < normalizeAt; i += 2 {
		fingerprint = (fingerprint << 2) + gearShiftedTable[data[i]]
		if fingerprint&c.maskSmallShifted == 0 {
			return i
		}
		fingerprint = fingerprint + gearTable[data[i+1]]
		if fingerprint&c.maskSmall == 0 {
			return i + 1
		}
	}

	for i := normalizeAt; i < scanEnd; i += 2 {
		fingerprint = (fingerprint << 2) + gearShiftedTable[data[i]]
		if fingerprint&c.maskLargeShifted == 0 {
			return i
		}
		fingerprint = fingerprint + gearTable[data[i+1]]
		if fingerprint&c.maskLarge == 0 {
			return i + 1
		}
	}

	return maxBoundary
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"bufio"
	"context"
	"io"
	"os"
)

// aOccurrence is one place in A where a given chunk digest occurs.
type aOccurrence struct {
	offset int64
	length uint32
}

// aIndex maps a chunk digest to every occurrence of it in A, in
// source order. Multiple A-chunks may share a digest; all occurrences
// are kept, but matching always picks the first (the stability rule
// in the Differ's component design).
type aIndex map[Digest][]aOccurrence

func buildAIndex(sig Signature) aIndex {
	idx := make(aIndex, len(sig.Entries))
	var offset int64
	for _, e := range sig.Entries {
		idx[e.Digest] = append(idx[e.Digest], aOccurrence{offset: offset, length: e.Length})
		offset += int64(e.Length)
	}
	return idx
}

// Diff computes A's signature on the fly, then writes to dest the
// instruction stream transforming A into B.
func Diff(ctx context.Context, a, b io.Reader, dest io.Writer, params Params) error {
	sigA, err := Sign(ctx, a, params)
	if err != nil {
		return err
	}
	return DiffUsingSourceSignature(ctx, sigA, b, dest)
}

// DiffUsingSourceSignature reuses a precomputed signature of A;
// chunking parameters for B are taken from sigA's header so the two
// chunk streams remain comparable.
func DiffUsingSourceSignature(ctx context.Context, sigA Signature, b io.Reader, dest io.Writer) error {
	idx := buildAIndex(sigA)

	chunker, err := NewChunker(bufio.NewReaderSize(b, 1<<20), sigA.Params)
	if err != nil {
		return err
	}

	var c coalescer
	var bLength int64

	for {
		if err := ctx.Err(); err != nil {
			return errIo(err, "diff cancelled")
		}
		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		bLength += int64(chunk.Length)

		digest := HashChunk(chunk.Data)
		if occurrences, ok := idx[digest]; ok && len(occurrences) > 0 {
			first := occurrences[0]
			c.appendCopy(uint64(first.offset), uint32(chunk.Length))
		} else {
			c.appendLiteral(chunk.Data)
		}
	}

	if c.totalLength() != bLength {
		return errDiffIntegrity("instruction total length %d does not equal |B| %d", c.totalLength(), bLength)
	}

	return EncodeDiff(dest, c.out)
}

// DiffFiles computes A's signature from the file at aPath, then
// writes the diff transforming A into B (read from bPath) to destPath
// using an atomic temp-file-then-rename swap.
func DiffFiles(ctx context.Context, aPath, bPath, destPath string, params Params) error {
	a, err := os.Open(aPath)
	if err != nil {
		return errIo(err, "opening diff source %q", aPath)
	}
	defer a.Close()

	b, err := os.Open(bPath)
	if err != nil {
		return errIo(err, "opening diff target %q", bPath)
	}
	defer b.Close()

	return writeAtomic(destPath, func(w *os.File) error {
		return Diff(ctx, a, b, w, params)
	})
}

// DiffUsingSourceSignatureFile reads A's signature from sigPath and
// writes the diff transforming A into B (read from bPath) to destPath.
func DiffUsingSourceSignatureFile(ctx context.Context, sigPath, bPath, destPath string) error {
	sigA, err := DecodeSignatureFile(sigPath)
	if err != nil {
		return err
	}

	b, err := os.Open(bPath)
	if err != nil {
		return errIo(err, "opening diff target %q", bPath)
	}
	defer b.Close()

	return writeAtomic(destPath, func(w *os.File) error {
		return DiffUsingSourceSignature(ctx, sigA, b, w)
	})
}

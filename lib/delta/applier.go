// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"context"
	"io"
	"os"
)

// copyBufferSize bounds the buffer used to stream Copy instructions
// out of A, so Apply's memory use stays flat regardless of how large
// an individual Copy instruction is.
const copyBufferSize = 64 << 10

// Apply reconstructs B by reading the instruction stream from diff
// and resolving Copy instructions against a, writing the result to
// dest in instruction order. aSize is the total byte length of a,
// used to bounds-check every Copy before any bytes are read from it.
func Apply(ctx context.Context, diff io.Reader, a io.ReaderAt, aSize int64, dest io.Writer) error {
	if err := decodeDiffHeader(diff); err != nil {
		return err
	}

	buf := make([]byte, copyBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return errIo(err, "apply cancelled")
		}
		instr, err := decodeInstruction(diff)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		switch instr.Kind {
		case Copy:
			end := int64(instr.SourceOffset) + int64(instr.Length)
			if instr.Length > 0 && (int64(instr.SourceOffset) < 0 || end > aSize) {
				return errCorruptDiff("copy [%d, %d) exceeds source length %d", instr.SourceOffset, end, aSize)
			}
			if err := copyFromSource(a, dest, int64(instr.SourceOffset), int64(instr.Length), buf); err != nil {
				return err
			}
		case Literal:
			if _, err := dest.Write(instr.Bytes); err != nil {
				return errIo(err, "writing literal bytes")
			}
		default:
			return errCorruptDiff("unknown instruction tag %#x", byte(instr.Kind))
		}
	}
}

func copyFromSource(a io.ReaderAt, dest io.Writer, offset, length int64, buf []byte) error {
	for length > 0 {
		n := int64(len(buf))
		if length < n {
			n = length
		}
		read, err := a.ReadAt(buf[:n], offset)
		if err != nil && err != io.EOF {
			return errIo(err, "reading source at offset %d", offset)
		}
		if int64(read) < n {
			return errIo(io.ErrUnexpectedEOF, "source truncated at offset %d", offset)
		}
		if _, err := dest.Write(buf[:n]); err != nil {
			return errIo(err, "writing copied bytes")
		}
		offset += n
		length -= n
	}
	return nil
}

// ApplyFiles reconstructs B from the diff at diffPath and the source
// file at aPath, writing the result to resultPath. The result is
// built via an atomic temp-file-then-rename swap so a failed or
// cancelled apply never leaves a partially written file at resultPath.
func ApplyFiles(ctx context.Context, diffPath, aPath, resultPath string) error {
	diffFile, err := os.Open(diffPath)
	if err != nil {
		return errIo(err, "opening diff %q", diffPath)
	}
	defer diffFile.Close()

	aFile, err := os.Open(aPath)
	if err != nil {
		return errIo(err, "opening apply source %q", aPath)
	}
	defer aFile.Close()

	info, err := aFile.Stat()
	if err != nil {
		return errIo(err, "stat-ing apply source %q", aPath)
	}

	return writeAtomic(resultPath, func(w *os.File) error {
		return Apply(ctx, diffFile, aFile, info.Size(), w)
	})
}

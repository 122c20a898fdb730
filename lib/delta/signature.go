// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"os"

	"golang.org/x/sync/errgroup"
)

const (
	signatureMagic   uint32 = 0x46434453 // "FCDS"
	signatureVersion uint16 = 1

	signatureHeaderSize = 4 + 2 + 2 + 4 + 4 + 4 + 8
	signatureEntrySize  = DigestSize + 4
)

// SignatureEntry is one (digest, length) pair describing a single
// chunk, in stream order.
type SignatureEntry struct {
	Digest Digest
	Length uint32
}

// Signature is the deterministic chunk-structure summary of a byte
// stream: its chunking Params plus an ordered list of entries, one
// per chunk.
type Signature struct {
	Params  Params
	Entries []SignatureEntry
}

// parallelHashThreshold is the minimum chunk count below which
// Sign does not bother spinning up the worker pool; small inputs are
// dominated by goroutine setup cost otherwise.
const parallelHashThreshold = 64

// hashWorkers bounds the signer's optional parallel hashing pool.
// BLAKE3 chunk hashing is cheap relative to I/O, so a handful of
// workers already saturates the benefit; unbounded fan-out would only
// add scheduling overhead.
const hashWorkers = 4

// Sign drives the Chunker over r and returns the resulting Signature.
// Sign first cuts the whole stream, keeping a copy of every chunk's
// bytes in memory, and only then hashes them, so its memory use grows
// with the length of r rather than staying at O(MaxSize). Chunk
// hashing runs through a small bounded worker pool once the chunk
// count reaches parallelHashThreshold; output order always matches
// chunk order regardless of hashing concurrency.
func Sign(ctx context.Context, r io.Reader, params Params) (Signature, error) {
	chunker, err := NewChunker(bufio.NewReaderSize(r, 1<<20), params)
	if err != nil {
		return Signature{}, err
	}

	var offsets []int64
	var lengths []uint32
	var buffers [][]byte

	for {
		if err := ctx.Err(); err != nil {
			return Signature{}, errIo(err, "signing cancelled")
		}
		chunk, err := chunker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Signature{}, err
		}
		buf := make([]byte, chunk.Length)
		copy(buf, chunk.Data)
		offsets = append(offsets, chunk.Offset)
		lengths = append(lengths, uint32(chunk.Length))
		buffers = append(buffers, buf)
	}

	digests := make([]Digest, len(buffers))
	if len(buffers) < parallelHashThreshold {
		ch := newChunkHasher()
		for i, buf := range buffers {
			digests[i] = ch.hash(buf)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(hashWorkers)
		for i, buf := range buffers {
			i, buf := i, buf
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				digests[i] = HashChunk(buf)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Signature{}, errIo(err, "parallel chunk hashing")
		}
	}

	entries := make([]SignatureEntry, len(buffers))
	for i := range buffers {
		entries[i] = SignatureEntry{Digest: digests[i], Length: lengths[i]}
	}

	return Signature{Params: params, Entries: entries}, nil
}

// SignToFile signs the file at sourcePath and writes the resulting
// Signature to destPath using an atomic temp-file-then-rename swap,
// so a reader never observes a partially written signature file.
func SignToFile(ctx context.Context, sourcePath, destPath string, params Params) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return errIo(err, "opening signature source %q", sourcePath)
	}
	defer src.Close()

	sig, err := Sign(ctx, src, params)
	if err != nil {
		return err
	}

	return writeAtomic(destPath, func(w *os.File) error {
		return EncodeSignature(w, sig)
	})
}

// EncodeSignature writes sig to w in the wire format: magic, version,
// reserved, the three size parameters, a chunk count, then one
// 36-byte entry per chunk.
func EncodeSignature(w io.Writer, sig Signature) error {
	if err := sig.Params.Validate(); err != nil {
		return err
	}

	header := make([]byte, signatureHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], signatureMagic)
	binary.LittleEndian.PutUint16(header[4:6], signatureVersion)
	binary.LittleEndian.PutUint16(header[6:8], 0)
	binary.LittleEndian.PutUint32(header[8:12], uint32(sig.Params.MinSize))
	binary.LittleEndian.PutUint32(header[12:16], uint32(sig.Params.AvgSize))
	binary.LittleEndian.PutUint32(header[16:20], uint32(sig.Params.MaxSize))
	binary.LittleEndian.PutUint64(header[20:28], uint64(len(sig.Entries)))

	if _, err := w.Write(header); err != nil {
		return errIo(err, "writing signature header")
	}

	entry := make([]byte, signatureEntrySize)
	for _, e := range sig.Entries {
		copy(entry[:DigestSize], e.Digest[:])
		binary.LittleEndian.PutUint32(entry[DigestSize:], e.Length)
		if _, err := w.Write(entry); err != nil {
			return errIo(err, "writing signature entry")
		}
	}
	return nil
}

// DecodeSignature parses a signature file from r.
func DecodeSignature(r io.Reader) (Signature, error) {
	header := make([]byte, signatureHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Signature{}, errCorruptSignature("reading header: %v", err)
	}

	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != signatureMagic {
		return Signature{}, errCorruptSignature("bad magic %#x, want %#x", magic, signatureMagic)
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != signatureVersion {
		return Signature{}, errCorruptSignature("unsupported version %d", version)
	}

	params := Params{
		MinSize: int(binary.LittleEndian.Uint32(header[8:12])),
		AvgSize: int(binary.LittleEndian.Uint32(header[12:16])),
		MaxSize: int(binary.LittleEndian.Uint32(header[16:20])),
	}
	chunkCount := binary.LittleEndian.Uint64(header[20:28])

	entries := make([]SignatureEntry, 0, chunkCount)
	entry := make([]byte, signatureEntrySize)
	for i := uint64(0); i < chunkCount; i++ {
		if _, err := io.ReadFull(r, entry); err != nil {
			return Signature{}, errCorruptSignature("reading entry %d: %v", i, err)
		}
		var e SignatureEntry
		copy(e.Digest[:], entry[:DigestSize])
		e.Length = binary.LittleEndian.Uint32(entry[DigestSize:])
		entries = append(entries, e)
	}

	return Signature{Params: params, Entries: entries}, nil
}

// DecodeSignatureFile reads and parses a signature file from path.
func DecodeSignatureFile(path string) (Signature, error) {
	f, err := os.Open(path)
	if err != nil {
		return Signature{}, errIo(err, "opening signature %q", path)
	}
	defer f.Close()
	return DecodeSignature(f)
}

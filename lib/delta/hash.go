// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// DigestSize is the length in bytes of a chunk digest.
const DigestSize = 32

// Digest is an unkeyed BLAKE3-256 content digest of a single chunk's
// bytes. Unlike some of the identifiers this engine otherwise borrows
// conventions from, chunk digests are not domain-separated or keyed:
// a signature file must be independently reproducible from chunk
// bytes alone, without access to any engine-internal key material.
type Digest [DigestSize]byte

// HashChunk computes the Digest of a chunk's bytes.
func HashChunk(data []byte) Digest {
	sum := blake3.Sum256(data)
	return Digest(sum)
}

// String renders the digest as lowercase hex.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a lowercase hex string into a Digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != DigestSize*2 {
		return d, errBadParameters("digest string must be %d hex characters, got %d", DigestSize*2, len(s))
	}
	n, err := hex.Decode(d[:], []byte(s))
	if err != nil {
		return Digest{}, errBadParameters("invalid digest hex: %v", err)
	}
	if n != DigestSize {
		return Digest{}, errBadParameters("decoded digest has wrong length %d", n)
	}
	return d, nil
}

// chunkHasher incrementally hashes chunk bytes using a reusable
// BLAKE3 instance, avoiding a fresh allocation per chunk on the
// sequential signing path.
type chunkHasher struct {
	h *blake3.Hasher
}

func newChunkHasher() *chunkHasher {
	return &chunkHasher{h: blake3.New()}
}

func (c *chunkHasher) hash(data []byte) Digest {
	c.h.Reset()
	c.h.Write(data)
	var d Digest
	c.h.Sum(d[:0])
	return d
}

// GoString supports %#v and debugger display, rendering the digest as
// delta.Digest(<64-character hex>) instead of a raw byte array.
func (d Digest) GoString() string {
	return fmt.Sprintf("delta.Digest(%s)", d.String())
}

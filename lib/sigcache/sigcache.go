// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sigcache provides an on-disk cache of computed signatures,
// keyed by the BLAKE3 digest of a whole source file plus its chunking
// parameters. Since signing is a pure function of (bytes, params), a
// cache hit is always safe to substitute for re-chunking: it changes
// nothing about the diff or instruction stream a caller ultimately
// produces, only how quickly A's signature becomes available.
package sigcache

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/cdcforge/deltacdc/lib/codec"
	"github.com/cdcforge/deltacdc/lib/compress"
	"github.com/cdcforge/deltacdc/lib/delta"
)

// indexEntry is one cache record, persisted as part of the CBOR
// index file.
type indexEntry struct {
	Key              string       `cbor:"key"`
	Params           delta.Params `cbor:"params"`
	Tag              compress.Tag `cbor:"tag"`
	UncompressedSize int          `cbor:"uncompressed_size"`
	BlobFile         string       `cbor:"blob_file"`
}

type index struct {
	Entries []indexEntry `cbor:"entries"`
}

// Cache is a directory-backed signature cache. Safe for concurrent
// use by multiple goroutines within one process; concurrent processes
// racing to populate the same key will each write their own blob file
// and the index update is atomic, so the loser's blob is simply
// orphaned (harmless, cleaned up by a future cache-clear).
type Cache struct {
	dir string

	mu  sync.Mutex
	idx index
}

// Open opens (or initializes) a signature cache rooted at dir. dir is
// created if it does not exist.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	c := &Cache{dir: dir}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) indexPath() string {
	return filepath.Join(c.dir, "index.cbor")
}

func (c *Cache) loadIndex() error {
	data, err := os.ReadFile(c.indexPath())
	if os.IsNotExist(err) {
		c.idx = index{}
		return nil
	}
	if err != nil {
		return err
	}
	return codec.Unmarshal(data, &c.idx)
}

func (c *Cache) saveIndexLocked() error {
	data, err := codec.Marshal(c.idx)
	if err != nil {
		return err
	}
	tmp := c.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.indexPath())
}

// Key computes the cache key for a source file's whole-file BLAKE3
// digest and a set of chunking Params. Two files with identical bytes
// but signed with different Params occupy distinct cache entries,
// since the resulting signatures would differ.
func Key(fileDigest [32]byte, params delta.Params) string {
	h := blake3.New()
	h.Write(fileDigest[:])
	var paramBytes [12]byte
	putUint32(paramBytes[0:4], uint32(params.MinSize))
	putUint32(paramBytes[4:8], uint32(params.AvgSize))
	putUint32(paramBytes[8:12], uint32(params.MaxSize))
	h.Write(paramBytes[:])
	var sum [32]byte
	h.Sum(sum[:0])
	return hex.EncodeToString(sum[:])
}

func putUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// DigestFile computes the whole-file BLAKE3 digest used to key the
// cache, streaming the file rather than holding it in memory.
func DigestFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, err
	}
	defer f.Close()

	h := blake3.New()
	buf := make([]byte, 1<<20)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	var sum [32]byte
	h.Sum(sum[:0])
	return sum, nil
}

// Lookup returns the cached Signature for key, if present.
func (c *Cache) Lookup(key string) (delta.Signature, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.idx.Entries {
		if e.Key != key {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(c.dir, e.BlobFile))
		if err != nil {
			return delta.Signature{}, false, err
		}
		raw, err := compress.Decode(blob, e.Tag, e.UncompressedSize)
		if err != nil {
			return delta.Signature{}, false, err
		}
		sig, err := delta.DecodeSignature(bytes.NewReader(raw))
		if err != nil {
			return delta.Signature{}, false, err
		}
		return sig, true, nil
	}
	return delta.Signature{}, false, nil
}

// Store caches sig under key if key is not already cached, compressing
// the encoded signature with lib/compress before writing it to disk.
func (c *Cache) Store(key string, sig delta.Signature) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.idx.Entries {
		if e.Key == key {
			return nil // already cached
		}
	}

	var buf bytes.Buffer
	if err := delta.EncodeSignature(&buf, sig); err != nil {
		return err
	}
	encoded := buf.Bytes()

	compressed, tag, err := compress.Encode(encoded)
	if err != nil {
		return err
	}

	blobFile := key + ".sigblob"
	if err := os.WriteFile(filepath.Join(c.dir, blobFile), compressed, 0o644); err != nil {
		return err
	}

	c.idx.Entries = append(c.idx.Entries, indexEntry{
		Key:              key,
		Params:           sig.Params,
		Tag:              tag,
		UncompressedSize: len(encoded),
		BlobFile:         blobFile,
	})
	return c.saveIndexLocked()
}

// SignWithCache signs sourcePath, using or populating the cache at c
// as appropriate. A cache hit skips re-chunking entirely.
func SignWithCache(ctx context.Context, c *Cache, sourcePath string, params delta.Params) (delta.Signature, error) {
	fileDigest, err := DigestFile(sourcePath)
	if err != nil {
		return delta.Signature{}, err
	}
	key := Key(fileDigest, params)

	if sig, ok, err := c.Lookup(key); err != nil {
		return delta.Signature{}, err
	} else if ok {
		return sig, nil
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return delta.Signature{}, err
	}
	defer f.Close()

	sig, err := delta.Sign(ctx, f, params)
	if err != nil {
		return delta.Signature{}, err
	}

	if err := c.Store(key, sig); err != nil {
		return delta.Signature{}, err
	}
	return sig, nil
}


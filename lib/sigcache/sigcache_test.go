// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sigcache

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/cdcforge/deltacdc/lib/delta"
)

func writeRandomFile(t *testing.T, path string, n int) {
	t.Helper()
	data := make([]byte, n)
	rand.New(rand.NewSource(1)).Read(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %q: %v", path, err)
	}
}

func TestSignWithCache_HitReturnsIdenticalSignature(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.bin")
	writeRandomFile(t, srcPath, 256*1024)

	cacheDir := filepath.Join(dir, "cache")
	c, err := Open(cacheDir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	params := delta.Params{MinSize: 1 << 10, AvgSize: 4 << 10, MaxSize: 16 << 10}

	miss, err := SignWithCache(context.Background(), c, srcPath, params)
	if err != nil {
		t.Fatalf("SignWithCache (miss): %v", err)
	}

	// Reopen the cache to force a fresh index load, simulating a
	// separate process run.
	c2, err := Open(cacheDir)
	if err != nil {
		t.Fatalf("Open (reload): %v", err)
	}
	hit, err := SignWithCache(context.Background(), c2, srcPath, params)
	if err != nil {
		t.Fatalf("SignWithCache (hit): %v", err)
	}

	if len(miss.Entries) != len(hit.Entries) {
		t.Fatalf("entry count differs: %d vs %d", len(miss.Entries), len(hit.Entries))
	}
	for i := range miss.Entries {
		if miss.Entries[i] != hit.Entries[i] {
			t.Fatalf("entry %d differs: %+v vs %+v", i, miss.Entries[i], hit.Entries[i])
		}
	}
}

func TestKey_DiffersOnParams(t *testing.T) {
	digest := [32]byte{1, 2, 3}
	k1 := Key(digest, delta.Params{MinSize: 1, AvgSize: 2, MaxSize: 3})
	k2 := Key(digest, delta.Params{MinSize: 4, AvgSize: 8, MaxSize: 16})
	if k1 == k2 {
		t.Fatal("expected distinct cache keys for distinct params")
	}
}

func TestLookup_MissReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, ok, err := c.Lookup("nonexistent-key")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss for unknown key")
	}
}

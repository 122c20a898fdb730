// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import "testing"

func TestCoalescer_MergesContiguousCopies(t *testing.T) {
	var c coalescer
	c.appendCopy(0, 100)
	c.appendCopy(100, 50)
	if len(c.out) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(c.out))
	}
	if c.out[0].Length != 150 {
		t.Fatalf("expected merged length 150, got %d", c.out[0].Length)
	}
}

func TestCoalescer_DoesNotMergeNonContiguousCopies(t *testing.T) {
	var c coalescer
	c.appendCopy(0, 100)
	c.appendCopy(200, 50)
	if len(c.out) != 2 {
		t.Fatalf("expected 2 instructions, got %d", len(c.out))
	}
}

func TestCoalescer_MergesAdjacentLiterals(t *testing.T) {
	var c coalescer
	c.appendLiteral([]byte("hello "))
	c.appendLiteral([]byte("world"))
	if len(c.out) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(c.out))
	}
	if string(c.out[0].Bytes) != "hello world" {
		t.Fatalf("merged bytes = %q, want %q", c.out[0].Bytes, "hello world")
	}
	if c.out[0].Length != 11 {
		t.Fatalf("merged length = %d, want 11", c.out[0].Length)
	}
}

func TestCoalescer_DoesNotMergeCopyAndLiteral(t *testing.T) {
	var c coalescer
	c.appendCopy(0, 10)
	c.appendLiteral([]byte("x"))
	c.appendCopy(10, 10)
	if len(c.out) != 3 {
		t.Fatalf("expected 3 instructions (no cross-kind merge), got %d", len(c.out))
	}
}

func TestCoalescer_TotalLength(t *testing.T) {
	var c coalescer
	c.appendCopy(0, 10)
	c.appendLiteral([]byte("hello"))
	c.appendCopy(20, 5)
	if got := c.totalLength(); got != 20 {
		t.Fatalf("totalLength() = %d, want 20", got)
	}
}

func TestCoalescer_LiteralCopyIndependentBuffers(t *testing.T) {
	var c coalescer
	data := []byte("abc")
	c.appendLiteral(data)
	data[0] = 'z' // mutate caller's slice after appending
	if c.out[0].Bytes[0] != 'a' {
		t.Fatal("coalescer.appendLiteral must copy, not alias, the caller's slice")
	}
}

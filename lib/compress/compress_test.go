// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package compress

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestEncodeDecode_RoundTrip_RandomBytes(t *testing.T) {
	data := make([]byte, 64*1024)
	rand.New(rand.NewSource(1)).Read(data)

	encoded, tag, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(encoded, tag, len(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("round trip mismatch for random bytes")
	}
}

func TestEncodeDecode_RoundTrip_RepetitiveBytes(t *testing.T) {
	data := []byte(strings.Repeat("digest-like-but-repetitive-filler-", 2000))

	encoded, tag, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if tag == None {
		t.Fatal("expected repetitive input to compress with LZ4 or zstd")
	}
	if len(encoded) >= len(data) {
		t.Fatalf("compressed size %d not smaller than original %d", len(encoded), len(data))
	}

	decoded, err := Decode(encoded, tag, len(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Fatal("round trip mismatch for repetitive bytes")
	}
}

func TestEncode_FallsBackToNoneForIncompressibleData(t *testing.T) {
	data := make([]byte, 4096)
	rand.New(rand.NewSource(2)).Read(data)

	_, tag, err := Encode(data)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if tag != None {
		t.Logf("random data unexpectedly compressed with %s (not necessarily wrong, just unlucky)", tag)
	}
}

func TestDecode_RejectsSizeMismatchForNone(t *testing.T) {
	_, err := Decode([]byte("short"), None, 100)
	if err == nil {
		t.Fatal("expected error for size mismatch")
	}
}

func TestTagString(t *testing.T) {
	cases := map[Tag]string{None: "none", LZ4: "lz4", Zstd: "zstd", Tag(99): "unknown(99)"}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("Tag(%d).String() = %q, want %q", tag, got, want)
		}
	}
}

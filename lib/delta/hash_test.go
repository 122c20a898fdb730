// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import "testing"

func TestHashChunk_Deterministic(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	a := HashChunk(data)
	b := HashChunk(data)
	if a != b {
		t.Fatalf("HashChunk not deterministic: %s != %s", a, b)
	}
}

func TestHashChunk_DiffersOnDifferentInput(t *testing.T) {
	a := HashChunk([]byte("alpha"))
	b := HashChunk([]byte("beta"))
	if a == b {
		t.Fatalf("HashChunk collided for distinct input: %s", a)
	}
}

func TestHashChunk_Empty(t *testing.T) {
	d := HashChunk(nil)
	if d == (Digest{}) {
		t.Fatalf("hash of empty input should not be the zero digest")
	}
}

func TestDigest_StringRoundTrip(t *testing.T) {
	d := HashChunk([]byte("round trip me"))
	s := d.String()
	got, err := ParseDigest(s)
	if err != nil {
		t.Fatalf("ParseDigest: %v", err)
	}
	if got != d {
		t.Fatalf("round trip mismatch: %s != %s", got, d)
	}
}

func TestParseDigest_RejectsWrongLength(t *testing.T) {
	_, err := ParseDigest("deadbeef")
	if err == nil {
		t.Fatal("expected error for short digest string")
	}
	var de *Error
	if !asError(err, &de) || de.Kind != BadParameters {
		t.Fatalf("expected BadParameters error, got %v", err)
	}
}

func TestParseDigest_RejectsInvalidHex(t *testing.T) {
	bad := make([]byte, DigestSize*2)
	for i := range bad {
		bad[i] = 'z'
	}
	_, err := ParseDigest(string(bad))
	if err == nil {
		t.Fatal("expected error for non-hex digest string")
	}
}

func TestChunkHasher_MatchesHashChunk(t *testing.T) {
	ch := newChunkHasher()
	for _, s := range []string{"one", "two", "three"} {
		got := ch.hash([]byte(s))
		want := HashChunk([]byte(s))
		if got != want {
			t.Fatalf("chunkHasher.hash(%q) = %s, want %s", s, got, want)
		}
	}
}

// asError is a small stand-in for errors.As kept local to tests. It is
// a direct type assertion and does not unwrap wrapped errors, which is
// enough for the engine's own unwrapped *Error values.
func asError(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}

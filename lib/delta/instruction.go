// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

// InstructionKind distinguishes the two instruction shapes that make
// up a diff's instruction stream.
type InstructionKind uint8

const (
	// Copy references a contiguous slice of A.
	Copy InstructionKind = 0x01
	// Literal carries bytes from B that were not found in A.
	Literal InstructionKind = 0x02
)

func (k InstructionKind) String() string {
	switch k {
	case Copy:
		return "copy"
	case Literal:
		return "literal"
	default:
		return "unknown"
	}
}

// Instruction is one step of the reconstruction program that rebuilds
// B from A. Exactly one of (SourceOffset) or (Bytes) is meaningful,
// selected by Kind; Length always holds the instruction's byte count.
type Instruction struct {
	Kind         InstructionKind
	SourceOffset uint64 // valid when Kind == Copy
	Bytes        []byte // valid when Kind == Literal
	Length       uint32
}

// coalescer accumulates instructions, merging each newly appended one
// into the previous instruction when the coalescing rules in §4.3
// allow it: adjacent Literals concatenate; adjacent Copys merge when
// they reference a contiguous run of A. A Copy and a Literal never
// merge into each other.
type coalescer struct {
	out []Instruction
}

func (c *coalescer) appendCopy(sourceOffset uint64, length uint32) {
	if n := len(c.out); n > 0 {
		prev := &c.out[n-1]
		if prev.Kind == Copy && prev.SourceOffset+uint64(prev.Length) == sourceOffset {
			prev.Length += length
			return
		}
	}
	c.out = append(c.out, Instruction{Kind: Copy, SourceOffset: sourceOffset, Length: length})
}

func (c *coalescer) appendLiteral(data []byte) {
	if n := len(c.out); n > 0 {
		prev := &c.out[n-1]
		if prev.Kind == Literal {
			prev.Bytes = append(prev.Bytes, data...)
			prev.Length += uint32(len(data))
			return
		}
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.out = append(c.out, Instruction{Kind: Literal, Bytes: buf, Length: uint32(len(data))})
}

// totalLength sums the lengths of every accumulated instruction,
// used for the Differ's cross-check against |B|.
func (c *coalescer) totalLength() int64 {
	var total int64
	for _, instr := range c.out {
		total += int64(instr.Length)
	}
	return total
}

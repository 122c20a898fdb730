// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"encoding/binary"
	"io"
)

const (
	diffMagic   uint32 = 0x46434444 // "FCDD"
	diffVersion uint16 = 1

	diffHeaderSize = 4 + 2 + 2
)

// encodeDiffHeader writes the diff file's fixed 8-byte header: magic,
// version, reserved.
func encodeDiffHeader(w io.Writer) error {
	header := make([]byte, diffHeaderSize)
	binary.LittleEndian.PutUint32(header[0:4], diffMagic)
	binary.LittleEndian.PutUint16(header[4:6], diffVersion)
	binary.LittleEndian.PutUint16(header[6:8], 0)
	if _, err := w.Write(header); err != nil {
		return errIo(err, "writing diff header")
	}
	return nil
}

// decodeDiffHeader reads and validates the diff file's fixed header.
func decodeDiffHeader(r io.Reader) error {
	header := make([]byte, diffHeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return errCorruptDiff("reading header: %v", err)
	}
	magic := binary.LittleEndian.Uint32(header[0:4])
	if magic != diffMagic {
		return errCorruptDiff("bad magic %#x, want %#x", magic, diffMagic)
	}
	version := binary.LittleEndian.Uint16(header[4:6])
	if version != diffVersion {
		return errCorruptDiff("unsupported version %d", version)
	}
	return nil
}

// encodeInstruction writes a single instruction: a 1-byte tag, a
// 4-byte length, then either an 8-byte source offset (Copy) or
// `length` literal bytes (Literal).
func encodeInstruction(w io.Writer, instr Instruction) error {
	prefix := make([]byte, 5)
	prefix[0] = byte(instr.Kind)
	binary.LittleEndian.PutUint32(prefix[1:5], instr.Length)
	if _, err := w.Write(prefix); err != nil {
		return errIo(err, "writing instruction prefix")
	}

	switch instr.Kind {
	case Copy:
		offset := make([]byte, 8)
		binary.LittleEndian.PutUint64(offset, instr.SourceOffset)
		if _, err := w.Write(offset); err != nil {
			return errIo(err, "writing copy source offset")
		}
	case Literal:
		if _, err := w.Write(instr.Bytes); err != nil {
			return errIo(err, "writing literal bytes")
		}
	default:
		return errDiffIntegrity("unknown instruction kind %d", instr.Kind)
	}
	return nil
}

// decodeInstruction reads one instruction from r, or returns io.EOF
// if r is exhausted exactly at an instruction boundary (the expected
// end-of-stream condition; there is no explicit terminator).
func decodeInstruction(r io.Reader) (Instruction, error) {
	prefix := make([]byte, 5)
	if _, err := io.ReadFull(r, prefix); err != nil {
		if err == io.EOF {
			return Instruction{}, io.EOF
		}
		return Instruction{}, errCorruptDiff("reading instruction prefix: %v", err)
	}

	kind := InstructionKind(prefix[0])
	length := binary.LittleEndian.Uint32(prefix[1:5])

	switch kind {
	case Copy:
		offsetBuf := make([]byte, 8)
		if _, err := io.ReadFull(r, offsetBuf); err != nil {
			return Instruction{}, errCorruptDiff("reading copy source offset: %v", err)
		}
		return Instruction{
			Kind:         Copy,
			SourceOffset: binary.LittleEndian.Uint64(offsetBuf),
			Length:       length,
		}, nil
	case Literal:
		data := make([]byte, length)
		if _, err := io.ReadFull(r, data); err != nil {
			return Instruction{}, errCorruptDiff("reading literal bytes (want %d): %v", length, err)
		}
		return Instruction{Kind: Literal, Bytes: data, Length: length}, nil
	default:
		return Instruction{}, errCorruptDiff("unknown instruction tag %#x", prefix[0])
	}
}

// EncodeDiff writes a complete diff file (header plus instruction
// stream) to w.
func EncodeDiff(w io.Writer, instructions []Instruction) error {
	if err := encodeDiffHeader(w); err != nil {
		return err
	}
	for _, instr := range instructions {
		if err := encodeInstruction(w, instr); err != nil {
			return err
		}
	}
	return nil
}

// DecodeDiff reads a complete diff file from r into memory. Callers
// reconstructing large files should prefer streaming via
// decodeDiffHeader/decodeInstruction directly; DecodeDiff is for
// tests and small diffs.
func DecodeDiff(r io.Reader) ([]Instruction, error) {
	if err := decodeDiffHeader(r); err != nil {
		return nil, err
	}
	var instructions []Instruction
	for {
		instr, err := decodeInstruction(r)
		if err == io.EOF {
			return instructions, nil
		}
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
	}
}

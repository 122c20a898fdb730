// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch drives many independent diff operations from a list
// of (A, B) file pairs and produces a single CBOR-encoded report
// summarizing the run. Each per-pair diff is produced exactly as a
// standalone `deltacdc diff` invocation would produce it; the report
// exists for auditability of large migration or sync jobs, not as a
// correctness boundary.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/cdcforge/deltacdc/lib/clock"
	"github.com/cdcforge/deltacdc/lib/codec"
	"github.com/cdcforge/deltacdc/lib/delta"
)

// Pair names one (A, B) input pair and the diff file to write for it.
type Pair struct {
	APath    string `cbor:"a_path"`
	BPath    string `cbor:"b_path"`
	DestPath string `cbor:"dest_path"`
}

// PairResult records the outcome of diffing a single Pair.
type PairResult struct {
	Pair             Pair          `cbor:"pair"`
	ASize            int64         `cbor:"a_size"`
	BSize            int64         `cbor:"b_size"`
	DiffSize         int64         `cbor:"diff_size"`
	ChunkCountA      int           `cbor:"chunk_count_a"`
	ChunkCountB      int           `cbor:"chunk_count_b"`
	InstructionCount int           `cbor:"instruction_count"`
	Elapsed          time.Duration `cbor:"elapsed_nanos"`
	Error            string        `cbor:"error,omitempty"`
}

// Report is the full record of one batch run, CBOR-encoded to disk.
type Report struct {
	BatchID    string        `cbor:"batch_id"`
	StartedAt  time.Time     `cbor:"started_at"`
	Elapsed    time.Duration `cbor:"elapsed_nanos"`
	Params     delta.Params  `cbor:"params"`
	Results    []PairResult  `cbor:"results"`
	FailCount  int           `cbor:"fail_count"`
}

// countingWriter counts the bytes EncodeDiff streams through it, so
// Run can report the diff size without re-reading the output file.
// The instruction count is taken separately by decoding the written
// diff.
type countingWriter struct {
	w    *os.File
	size int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.size += int64(n)
	return n, err
}

// Run diffs every pair in pairs against params, writing each diff to
// its DestPath and returning a Report describing the whole run. A
// per-pair failure is recorded in that pair's PairResult.Error and
// does not stop the batch; Run only returns a non-nil error for
// failures that prevent producing a report at all (e.g. the clock
// argument is required, never nil).
func Run(ctx context.Context, clk clock.Clock, pairs []Pair, params delta.Params) (Report, error) {
	if clk == nil {
		return Report{}, fmt.Errorf("batch: clock must not be nil")
	}

	start := clk.Now()
	report := Report{
		BatchID:   uuid.NewString(),
		StartedAt: start,
		Params:    params,
	}

	for _, pair := range pairs {
		result := runPair(ctx, clk, pair, params)
		if result.Error != "" {
			report.FailCount++
		}
		report.Results = append(report.Results, result)
	}

	report.Elapsed = clk.Now().Sub(start)
	return report, nil
}

func runPair(ctx context.Context, clk clock.Clock, pair Pair, params delta.Params) PairResult {
	result := PairResult{Pair: pair}
	pairStart := clk.Now()
	defer func() { result.Elapsed = clk.Now().Sub(pairStart) }()

	aInfo, err := os.Stat(pair.APath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ASize = aInfo.Size()

	bInfo, err := os.Stat(pair.BPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.BSize = bInfo.Size()

	a, err := os.Open(pair.APath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer a.Close()

	b, err := os.Open(pair.BPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer b.Close()

	sigA, err := delta.Sign(ctx, a, params)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ChunkCountA = len(sigA.Entries)

	sigB, err := delta.Sign(ctx, b, params)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.ChunkCountB = len(sigB.Entries)

	if _, err := b.Seek(0, 0); err != nil {
		result.Error = err.Error()
		return result
	}

	dest, err := os.Create(pair.DestPath)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer dest.Close()

	cw := &countingWriter{w: dest}
	if err := delta.DiffUsingSourceSignature(ctx, sigA, b, cw); err != nil {
		result.Error = err.Error()
		return result
	}
	result.DiffSize = cw.size

	if err := dest.Sync(); err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := dest.Seek(0, 0); err != nil {
		result.Error = err.Error()
		return result
	}
	instructions, err := delta.DecodeDiff(dest)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.InstructionCount = len(instructions)

	return result
}

// Summary renders a one-line, human-readable summary of a completed
// Report using go-humanize for byte-count formatting.
func Summary(r Report) string {
	var totalA, totalB, totalDiff int64
	for _, res := range r.Results {
		totalA += res.ASize
		totalB += res.BSize
		totalDiff += res.DiffSize
	}
	return fmt.Sprintf(
		"batch %s: %d pairs (%d failed), %s -> %s (diffs %s), %s elapsed",
		r.BatchID, len(r.Results), r.FailCount,
		humanize.Bytes(uint64(totalA)), humanize.Bytes(uint64(totalB)),
		humanize.Bytes(uint64(totalDiff)), r.Elapsed,
	)
}

// EncodeReport writes r to w as CBOR.
func EncodeReport(w *os.File, r Report) error {
	return codec.NewEncoder(w).Encode(r)
}

// DecodeReport reads a Report previously written by EncodeReport.
func DecodeReport(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := codec.Unmarshal(data, &r); err != nil {
		return Report{}, err
	}
	return r, nil
}

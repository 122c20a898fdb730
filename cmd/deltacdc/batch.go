// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cdcforge/deltacdc/lib/batch"
	"github.com/cdcforge/deltacdc/lib/clock"
)

func runBatch(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	pairsPath := fs.String("pairs", "", "tab-separated file of A-path, B-path pairs, one per line (required)")
	destDir := fs.String("dest-dir", "", "directory to write each pair's diff file into (required)")
	reportPath := fs.String("report", "", "CBOR report file to write (required)")
	params, profileName := registerProfileFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *pairsPath == "" || *destDir == "" || *reportPath == "" {
		return fmt.Errorf("--pairs, --dest-dir, and --report are required")
	}

	resolved, err := resolveParams(params, *profileName)
	if err != nil {
		return err
	}

	pairs, err := readPairs(*pairsPath, *destDir)
	if err != nil {
		return err
	}

	report, err := batch.Run(ctx, clock.Real(), pairs, resolved)
	if err != nil {
		return fmt.Errorf("running batch: %w", err)
	}

	f, err := os.Create(*reportPath)
	if err != nil {
		return fmt.Errorf("creating report %q: %w", *reportPath, err)
	}
	defer f.Close()
	if err := batch.EncodeReport(f, report); err != nil {
		return fmt.Errorf("writing report %q: %w", *reportPath, err)
	}

	logger.Info("batch complete",
		"batch_id", report.BatchID, "pairs", len(report.Results), "failed", report.FailCount,
	)
	fmt.Println(batch.Summary(report))
	return nil
}

// readPairs parses a tab-separated file of "A-path<TAB>B-path" lines,
// one pair per line. Blank lines and lines starting with # are
// skipped. Each pair's diff is written to destDir, named after the
// B-path's base name with a .diff suffix.
func readPairs(path, destDir string) ([]batch.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pairs file %q: %w", path, err)
	}
	defer f.Close()

	var pairs []batch.Pair
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, fmt.Errorf("%s:%d: expected 2 tab-separated fields, got %d", path, lineNum, len(fields))
		}
		aPath, bPath := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		destPath := filepath.Join(destDir, filepath.Base(bPath)+".diff")
		pairs = append(pairs, batch.Pair{APath: aPath, BPath: bPath, DestPath: destPath})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pairs file %q: %w", path, err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%s: no pairs found", path)
	}
	return pairs, nil
}

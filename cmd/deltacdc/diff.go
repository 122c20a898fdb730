// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cdcforge/deltacdc/lib/delta"
	"github.com/cdcforge/deltacdc/lib/sigcache"
)

func runDiff(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("diff", flag.ContinueOnError)
	aPath := fs.String("a", "", "source file (required)")
	bPath := fs.String("b", "", "target file (required)")
	dest := fs.String("dest", "", "destination diff file (required)")
	sigPath := fs.String("signature", "", "precomputed signature of --a (skips re-signing)")
	cacheDir := fs.String("cache-dir", "", "optional signature cache directory for --a")
	params, profileName := registerProfileFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *aPath == "" || *bPath == "" || *dest == "" {
		return fmt.Errorf("--a, --b, and --dest are required")
	}
	if *sigPath != "" && *cacheDir != "" {
		return fmt.Errorf("--signature and --cache-dir are mutually exclusive")
	}

	resolved, err := resolveParams(params, *profileName)
	if err != nil {
		return err
	}

	var instructionCount int
	switch {
	case *sigPath != "":
		if err := delta.DiffUsingSourceSignatureFile(ctx, *sigPath, *bPath, *dest); err != nil {
			return fmt.Errorf("diffing %q against signature %q: %w", *bPath, *sigPath, err)
		}
		instructionCount, err = countInstructions(*dest)
		if err != nil {
			return err
		}

	case *cacheDir != "":
		cache, err := sigcache.Open(*cacheDir)
		if err != nil {
			return fmt.Errorf("opening signature cache: %w", err)
		}
		sigA, err := sigcache.SignWithCache(ctx, cache, *aPath, resolved)
		if err != nil {
			return fmt.Errorf("signing %q: %w", *aPath, err)
		}
		b, err := os.Open(*bPath)
		if err != nil {
			return fmt.Errorf("opening %q: %w", *bPath, err)
		}
		defer b.Close()
		instructionCount, err = diffUsingSourceSignatureToFile(ctx, sigA, b, *dest)
		if err != nil {
			return err
		}

	default:
		if err := delta.DiffFiles(ctx, *aPath, *bPath, *dest, resolved); err != nil {
			return fmt.Errorf("diffing %q against %q: %w", *aPath, *bPath, err)
		}
		instructionCount, err = countInstructions(*dest)
		if err != nil {
			return err
		}
	}

	logger.Info("wrote diff",
		"a", *aPath, "b", *bPath, "dest", *dest,
		"instructions", instructionCount,
	)
	return nil
}

// diffUsingSourceSignatureToFile diffs b against a precomputed source
// signature, writes the result to destPath, and returns the number of
// instructions written.
func diffUsingSourceSignatureToFile(ctx context.Context, sigA delta.Signature, b *os.File, destPath string) (int, error) {
	dest, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("creating %q: %w", destPath, err)
	}
	defer dest.Close()

	if err := delta.DiffUsingSourceSignature(ctx, sigA, b, dest); err != nil {
		return 0, fmt.Errorf("diffing: %w", err)
	}
	if err := dest.Sync(); err != nil {
		return 0, err
	}
	if _, err := dest.Seek(0, 0); err != nil {
		return 0, err
	}
	instructions, err := delta.DecodeDiff(dest)
	if err != nil {
		return 0, err
	}
	return len(instructions), nil
}

// countInstructions reopens a just-written diff file and counts its
// instructions, for logging purposes only.
func countInstructions(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	instructions, err := delta.DecodeDiff(f)
	if err != nil {
		return 0, err
	}
	return len(instructions), nil
}

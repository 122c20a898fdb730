// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"

	"github.com/cdcforge/deltacdc/lib/delta"
)

func runApply(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	diffPath := fs.String("diff", "", "diff file produced by `deltacdc diff` (required)")
	aPath := fs.String("a", "", "source file the diff was computed against (required)")
	result := fs.String("result", "", "destination file to reconstruct (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *diffPath == "" || *aPath == "" || *result == "" {
		return fmt.Errorf("--diff, --a, and --result are required")
	}

	if err := delta.ApplyFiles(ctx, *diffPath, *aPath, *result); err != nil {
		return fmt.Errorf("applying %q to %q: %w", *diffPath, *aPath, err)
	}

	logger.Info("applied diff", "diff", *diffPath, "a", *aPath, "result", *result)
	return nil
}

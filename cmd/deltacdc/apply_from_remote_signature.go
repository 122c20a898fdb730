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

func runApplyFromRemoteSignature(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("apply-from-remote-signature", flag.ContinueOnError)
	aPath := fs.String("a", "", "local source file (required)")
	sigPath := fs.String("signature", "", "signature of the remote target file (required)")
	sourceURI := fs.String("source-uri", "", "HTTP(S) URL of the remote target file, must support range requests (required)")
	result := fs.String("result", "", "destination file to reconstruct (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *aPath == "" || *sigPath == "" || *sourceURI == "" || *result == "" {
		return fmt.Errorf("--a, --signature, --source-uri, and --result are required")
	}

	if err := delta.ApplyFromRemoteSignatureFile(ctx, *aPath, *sigPath, *sourceURI, *result); err != nil {
		return fmt.Errorf("reconstructing %q from %q: %w", *result, *sourceURI, err)
	}

	logger.Info("reconstructed from remote signature",
		"a", *aPath, "signature", *sigPath, "source_uri", *sourceURI, "result", *result,
	)
	return nil
}

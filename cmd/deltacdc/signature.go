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

func runSignature(ctx context.Context, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("signature", flag.ContinueOnError)
	source := fs.String("source", "", "source file to sign (required)")
	dest := fs.String("dest", "", "destination signature file (required)")
	cacheDir := fs.String("cache-dir", "", "optional signature cache directory")
	params, profileName := registerProfileFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *source == "" || *dest == "" {
		return fmt.Errorf("--source and --dest are required")
	}

	resolved, err := resolveParams(params, *profileName)
	if err != nil {
		return err
	}

	var sig delta.Signature
	if *cacheDir != "" {
		cache, err := sigcache.Open(*cacheDir)
		if err != nil {
			return fmt.Errorf("opening signature cache: %w", err)
		}
		sig, err = sigcache.SignWithCache(ctx, cache, *source, resolved)
		if err != nil {
			return fmt.Errorf("signing %q: %w", *source, err)
		}
		f, err := os.Create(*dest)
		if err != nil {
			return fmt.Errorf("creating %q: %w", *dest, err)
		}
		defer f.Close()
		if err := delta.EncodeSignature(f, sig); err != nil {
			return err
		}
	} else {
		if err := delta.SignToFile(ctx, *source, *dest, resolved); err != nil {
			return fmt.Errorf("signing %q: %w", *source, err)
		}
		sig, err = delta.DecodeSignatureFile(*dest)
		if err != nil {
			return err
		}
	}

	logger.Info("wrote signature",
		"source", *source, "dest", *dest,
		"chunks", len(sig.Entries),
		"cached", *cacheDir != "",
	)
	return nil
}

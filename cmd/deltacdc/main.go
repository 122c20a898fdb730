// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cdcforge/deltacdc/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("no subcommand given")
	}

	if args[0] == "--version" || args[0] == "version" {
		if len(args) > 1 && args[1] == "--full" {
			fmt.Println(version.Full())
			return nil
		}
		fmt.Printf("deltacdc %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "signature":
		return runSignature(ctx, logger, args[1:])
	case "diff":
		return runDiff(ctx, logger, args[1:])
	case "apply":
		return runApply(ctx, logger, args[1:])
	case "apply-from-remote-signature":
		return runApplyFromRemoteSignature(ctx, logger, args[1:])
	case "batch":
		return runBatch(ctx, logger, args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `deltacdc - content-defined delta engine

usage:
  deltacdc signature --source FILE --dest FILE [--profile NAME | --min-size N --avg-size N --max-size N] [--cache-dir DIR]
  deltacdc diff --a FILE --b FILE --dest FILE [--profile NAME | --min-size N --avg-size N --max-size N] [--signature FILE] [--cache-dir DIR]
  deltacdc apply --diff FILE --a FILE --result FILE
  deltacdc apply-from-remote-signature --a FILE --signature FILE --source-uri URI --result FILE
  deltacdc batch --pairs FILE --dest-dir DIR --report FILE [--profile NAME | --min-size N --avg-size N --max-size N]
  deltacdc version [--full]

environment:
  DELTACDC_PROFILES   path to a YAML file of named chunking profiles
`)
}

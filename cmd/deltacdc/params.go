// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"

	"github.com/cdcforge/deltacdc/lib/config"
	"github.com/cdcforge/deltacdc/lib/delta"
)

// flagParams holds the three raw chunking-size flags shared by every
// subcommand that drives the Chunker.
type flagParams struct {
	minSize int
	avgSize int
	maxSize int
}

// registerProfileFlags wires --min-size/--avg-size/--max-size and
// --profile onto fs, returning handles resolveParams uses after
// fs.Parse.
func registerProfileFlags(fs *flag.FlagSet) (*flagParams, *string) {
	p := &flagParams{}
	fs.IntVar(&p.minSize, "min-size", 0, "minimum chunk size in bytes (not combinable with --profile)")
	fs.IntVar(&p.avgSize, "avg-size", 0, "target average chunk size in bytes (not combinable with --profile)")
	fs.IntVar(&p.maxSize, "max-size", 0, "maximum chunk size in bytes (not combinable with --profile)")
	profile := fs.String("profile", "", "named chunking profile from DELTACDC_PROFILES (default: built-in default profile)")
	return p, profile
}

// resolveParams picks chunking Params: explicit
// --min-size/--avg-size/--max-size flags (all three together, and
// never alongside --profile), otherwise --profile looked up in the
// configured profile set, otherwise the engine's documented defaults.
func resolveParams(p *flagParams, profileName string) (delta.Params, error) {
	if p.minSize != 0 || p.avgSize != 0 || p.maxSize != 0 {
		if p.minSize == 0 || p.avgSize == 0 || p.maxSize == 0 {
			return delta.Params{}, fmt.Errorf("--min-size, --avg-size, and --max-size must all be given together")
		}
		if profileName != "" {
			return delta.Params{}, fmt.Errorf("--profile and explicit size flags are mutually exclusive")
		}
		return delta.Params{MinSize: p.minSize, AvgSize: p.avgSize, MaxSize: p.maxSize}, nil
	}

	set, err := config.Load()
	if err != nil {
		return delta.Params{}, fmt.Errorf("loading chunking profiles: %w", err)
	}
	profile, err := set.Resolve(profileName)
	if err != nil {
		return delta.Params{}, err
	}
	return profile.Params(), nil
}

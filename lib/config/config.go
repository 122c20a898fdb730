// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads named chunking profiles for deltacdc.
//
// A profile fixes the three size parameters (minimum, average, maximum)
// that the chunker uses to place content-defined boundaries. Operators
// pick a profile by name on the command line; the profile set itself
// lives in a single YAML file selected by:
//   - the DELTACDC_PROFILES environment variable, or
//   - an explicit path passed to LoadFile
//
// There is no automatic discovery of profile files. When no profile
// name is given, Resolve returns DefaultProfile; a name that is not in
// the loaded set is an error rather than a silent default.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cdcforge/deltacdc/lib/delta"
)

// Profile fixes the chunker's size parameters in bytes.
type Profile struct {
	// MinSize is the smallest chunk the chunker will emit, except for
	// the final chunk of a stream.
	MinSize int `yaml:"min_size"`

	// AvgSize is the target average chunk size. The chunker's
	// normalized boundary mask is derived from this value.
	AvgSize int `yaml:"avg_size"`

	// MaxSize is the largest chunk the chunker will emit; a boundary
	// is forced if no content-defined cut point occurs first.
	MaxSize int `yaml:"max_size"`
}

// Set is a named collection of profiles loaded from a single file.
type Set struct {
	Profiles map[string]Profile `yaml:"profiles"`
}

// DefaultProfile is the profile used when no --profile flag is given
// and no profile file is configured. It mirrors delta.DefaultParams
// so an unconfigured run and an explicit --min-size/--avg-size/
// --max-size invocation agree on what "default" means.
var DefaultProfile = Profile{
	MinSize: delta.DefaultParams.MinSize,
	AvgSize: delta.DefaultParams.AvgSize,
	MaxSize: delta.DefaultParams.MaxSize,
}

// Params converts the profile into the delta package's Params type.
func (p Profile) Params() delta.Params {
	return delta.Params{MinSize: p.MinSize, AvgSize: p.AvgSize, MaxSize: p.MaxSize}
}

// Load loads a profile set from the DELTACDC_PROFILES environment
// variable. Returns an empty Set (no error) if the variable is unset,
// so callers can fall back to DefaultProfile.
func Load() (*Set, error) {
	path := os.Getenv("DELTACDC_PROFILES")
	if path == "" {
		return &Set{Profiles: map[string]Profile{}}, nil
	}
	return LoadFile(path)
}

// LoadFile loads a profile set from a specific YAML file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile file %s: %w", path, err)
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parsing profile file %s: %w", path, err)
	}

	for name, profile := range set.Profiles {
		if err := profile.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
	}

	return &set, nil
}

// Resolve returns the named profile, or DefaultProfile if name is
// empty. Returns an error if name is non-empty but not present in the
// set.
func (s *Set) Resolve(name string) (Profile, error) {
	if name == "" {
		return DefaultProfile, nil
	}
	profile, ok := s.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown chunking profile %q (known: %v)", name, s.names())
	}
	return profile, nil
}

func (s *Set) names() []string {
	names := make([]string, 0, len(s.Profiles))
	for name := range s.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the three size parameters are internally
// consistent and satisfy every constraint the chunker itself enforces
// (see delta.Params.Validate), so a profile that loads successfully
// is guaranteed to also construct a Chunker successfully.
func (p Profile) Validate() error {
	if err := p.Params().Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"os"
	"path/filepath"
)

// writeAtomic writes to a temp file beside destPath, then renames it
// into place, so a reader never observes a partially written
// signature or diff file and a crash mid-write leaves the previous
// file (or nothing) rather than a truncated one.
func writeAtomic(destPath string, write func(w *os.File) error) error {
	dir := filepath.Dir(destPath)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(destPath)+"-*")
	if err != nil {
		return errIo(err, "creating temp file in %q", dir)
	}
	tmpPath := tmp.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return errIo(err, "syncing temp file %q", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errIo(err, "closing temp file %q", tmpPath)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return errIo(err, "renaming %q to %q", tmpPath, destPath)
	}
	succeeded = true
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func writeRandomFile(t *testing.T, path string, n int, seed int64) []byte {
	t.Helper()
	data := make([]byte, n)
	rand.New(rand.NewSource(seed)).Read(data)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %q: %v", path, err)
	}
	return data
}

func TestRun_UnknownSubcommand(t *testing.T) {
	if err := run([]string{"bogus"}); err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
}

func TestRun_NoArgs(t *testing.T) {
	if err := run(nil); err == nil {
		t.Fatal("expected an error when no subcommand is given")
	}
}

func TestRun_Version(t *testing.T) {
	if err := run([]string{"--version"}); err != nil {
		t.Fatalf("--version: %v", err)
	}
	if err := run([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if err := run([]string{"version", "--full"}); err != nil {
		t.Fatalf("version --full: %v", err)
	}
}

func TestRun_SignatureDiffApplyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.bin")
	bPath := filepath.Join(dir, "b.bin")
	sigPath := filepath.Join(dir, "a.sig")
	diffPath := filepath.Join(dir, "b.diff")
	resultPath := filepath.Join(dir, "result.bin")

	writeRandomFile(t, aPath, 256*1024, 1)
	bData := writeRandomFile(t, bPath, 256*1024, 2)

	if err := run([]string{
		"signature", "--source", aPath, "--dest", sigPath,
		"--min-size", "4096", "--avg-size", "16384", "--max-size", "65536",
	}); err != nil {
		t.Fatalf("signature: %v", err)
	}

	if err := run([]string{
		"diff", "--a", aPath, "--b", bPath, "--dest", diffPath, "--signature", sigPath,
	}); err != nil {
		t.Fatalf("diff: %v", err)
	}

	if err := run([]string{
		"apply", "--diff", diffPath, "--a", aPath, "--result", resultPath,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := os.ReadFile(resultPath)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if !bytes.Equal(got, bData) {
		t.Fatal("reconstructed file does not match B")
	}
}

func TestRun_DiffWithCacheDir(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.bin")
	bPath := filepath.Join(dir, "b.bin")
	diffPath := filepath.Join(dir, "b.diff")
	resultPath := filepath.Join(dir, "result.bin")
	cacheDir := filepath.Join(dir, "cache")

	writeRandomFile(t, aPath, 128*1024, 3)
	bData := writeRandomFile(t, bPath, 128*1024, 4)

	if err := run([]string{
		"diff", "--a", aPath, "--b", bPath, "--dest", diffPath, "--cache-dir", cacheDir,
		"--min-size", "2048", "--avg-size", "8192", "--max-size", "32768",
	}); err != nil {
		t.Fatalf("diff: %v", err)
	}

	if err := run([]string{"apply", "--diff", diffPath, "--a", aPath, "--result", resultPath}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	got, err := os.ReadFile(resultPath)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	if !bytes.Equal(got, bData) {
		t.Fatal("reconstructed file does not match B")
	}
}

func TestRun_Batch(t *testing.T) {
	dir := t.TempDir()
	a1 := filepath.Join(dir, "a1.bin")
	b1 := filepath.Join(dir, "b1.bin")
	writeRandomFile(t, a1, 64*1024, 5)
	writeRandomFile(t, b1, 64*1024, 6)

	pairsPath := filepath.Join(dir, "pairs.txt")
	if err := os.WriteFile(pairsPath, []byte(a1+"\t"+b1+"\n"), 0o644); err != nil {
		t.Fatalf("writing pairs file: %v", err)
	}

	destDir := filepath.Join(dir, "diffs")
	if err := os.Mkdir(destDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	reportPath := filepath.Join(dir, "report.cbor")

	if err := run([]string{
		"batch", "--pairs", pairsPath, "--dest-dir", destDir, "--report", reportPath,
	}); err != nil {
		t.Fatalf("batch: %v", err)
	}

	if _, err := os.Stat(reportPath); err != nil {
		t.Fatalf("expected report file to exist: %v", err)
	}
}

func TestRun_SignatureRequiresSourceAndDest(t *testing.T) {
	if err := run([]string{"signature", "--source", "x"}); err == nil {
		t.Fatal("expected an error when --dest is missing")
	}
}

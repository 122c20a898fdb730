// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
)

// ApplyFromRemoteSignature reconstructs B given A and a precomputed
// signature of B, fetching only the chunks B has that A does not over
// HTTP range requests against sourceURI. It writes no diff file: this
// is a direct reconstruction shortcut, not an alternative wire
// format, built on the same digest-index matching as Diff.
//
// a must support random access (its chunks are re-read locally for
// every match) and aSize must be its exact byte length. A's signature
// is computed locally using sigB's chunking parameters so the two
// chunk streams remain comparable, exactly as DiffUsingSourceSignature
// does for the local case.
func ApplyFromRemoteSignature(ctx context.Context, a io.ReaderAt, aSize int64, sigB Signature, sourceURI string, dest io.Writer) error {
	sigA, err := Sign(ctx, io.NewSectionReader(a, 0, aSize), sigB.Params)
	if err != nil {
		return err
	}
	idx := buildAIndex(sigA)

	client := http.DefaultClient
	buf := make([]byte, copyBufferSize)
	var offsetInB int64

	for _, entry := range sigB.Entries {
		if err := ctx.Err(); err != nil {
			return errIo(err, "remote reconstruction cancelled")
		}
		length := int64(entry.Length)
		if occurrences, ok := idx[entry.Digest]; ok && len(occurrences) > 0 {
			occ := occurrences[0]
			if err := copyFromSource(a, dest, occ.offset, int64(occ.length), buf); err != nil {
				return err
			}
		} else if err := fetchRemoteRange(ctx, client, sourceURI, offsetInB, length, dest); err != nil {
			return err
		}
		offsetInB += length
	}
	return nil
}

func fetchRemoteRange(ctx context.Context, client *http.Client, sourceURI string, offset, length int64, dest io.Writer) error {
	if length == 0 {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURI, nil)
	if err != nil {
		return errIo(err, "building range request for %q", sourceURI)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := client.Do(req)
	if err != nil {
		return errIo(err, "fetching range [%d, %d) from %q", offset, offset+length, sourceURI)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return errIo(nil, "unexpected status %d fetching range from %q", resp.StatusCode, sourceURI)
	}
	if resp.StatusCode == http.StatusPartialContent && resp.Header.Get("Content-Range") == "" {
		return errIo(nil, "server returned 206 without Content-Range for %q", sourceURI)
	}
	if resp.StatusCode == http.StatusOK {
		// The server ignored Range and sent the whole file: skip to offset.
		if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
			return errIo(err, "skipping to offset %d in full body from %q", offset, sourceURI)
		}
	}

	if _, err := io.CopyN(dest, resp.Body, length); err != nil {
		return errIo(err, "reading range body from %q", sourceURI)
	}
	return nil
}

// ApplyFromRemoteSignatureFile reads A from aPath, B's signature from
// sigBPath, and writes the reconstructed result to resultPath using
// an atomic temp-file-then-rename swap.
func ApplyFromRemoteSignatureFile(ctx context.Context, aPath, sigBPath, sourceURI, resultPath string) error {
	a, err := os.Open(aPath)
	if err != nil {
		return errIo(err, "opening remote-reconstruction source %q", aPath)
	}
	defer a.Close()

	info, err := a.Stat()
	if err != nil {
		return errIo(err, "stat-ing %q", aPath)
	}

	sigB, err := DecodeSignatureFile(sigBPath)
	if err != nil {
		return err
	}

	return writeAtomic(resultPath, func(w *os.File) error {
		return ApplyFromRemoteSignature(ctx, a, info.Size(), sigB, sourceURI, w)
	})
}

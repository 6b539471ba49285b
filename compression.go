// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// compressOptions controls chunk compression.
type compressOptions struct {
	modTime   time.Time
	blockSize int
}

// compressChunk replaces chunk payload with an lzop stream. The compressed
// size becomes the chunk size for every later step.
func compressChunk(c *Chunk, opts compressOptions) error {
	raw, err := os.ReadFile(c.Path)
	if err != nil {
		return fmt.Errorf("%w: read chunk %d: %w", ErrIO, c.Index, err)
	}

	outPath := strings.TrimSuffix(c.Path, filepath.Ext(c.Path)) + ".lzo"
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("%w: create compressed chunk: %w", ErrIO, err)
	}

	written, compressErr := CompressLZOP(out, raw, opts.blockSize, opts.modTime)
	closeErr := out.Close()
	if compressErr != nil {
		_ = os.Remove(outPath)
		if !errors.Is(compressErr, ErrCompression) {
			compressErr = fmt.Errorf("%w: %w", ErrIO, compressErr)
		}

		return fmt.Errorf("compress chunk %d: %w", c.Index, compressErr)
	}
	if closeErr != nil {
		_ = os.Remove(outPath)
		return fmt.Errorf("%w: close compressed chunk %d: %w", ErrIO, c.Index, closeErr)
	}

	if err := os.Remove(c.Path); err != nil {
		return fmt.Errorf("%w: remove raw chunk %d: %w", ErrIO, c.Index, err)
	}

	c.Path = outPath
	c.Size = written
	c.Compressed = true

	return nil
}

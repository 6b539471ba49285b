// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bytes"
	"fmt"
	"os"
)

// AlignedSize rounds size up to the next multiple of Alignment.
func AlignedSize(size int64) int64 {
	return (size + Alignment - 1) &^ (Alignment - 1)
}

// alignPadding returns fill bytes needed to align size.
func alignPadding(size int64) int {
	return int(AlignedSize(size) - size)
}

// alignChunk pads chunk file with FillByte up to Alignment and updates chunk size.
func alignChunk(c *Chunk) error {
	pad := alignPadding(c.Size)
	if pad == 0 {
		return nil
	}

	f, err := os.OpenFile(c.Path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("%w: open chunk for alignment: %w", ErrIO, err)
	}

	_, writeErr := f.Write(bytes.Repeat([]byte{FillByte}, pad))
	closeErr := f.Close()
	if writeErr != nil {
		return fmt.Errorf("%w: align chunk %d: %w", ErrIO, c.Index, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close chunk %d: %w", ErrIO, c.Index, closeErr)
	}

	c.Size += int64(pad)
	c.Padding += pad

	return nil
}

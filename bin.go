// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// binAssembler appends chunk payloads to the bin region scratch file.
type binAssembler struct {
	f    *os.File
	path string
	buf  []byte
	size int64
}

// newBinAssembler creates an empty bin region file in dir.
func newBinAssembler(dir string) (*binAssembler, error) {
	path := filepath.Join(dir, "~bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: create bin region: %w", ErrIO, err)
	}

	return &binAssembler{
		f:    f,
		path: path,
		buf:  make([]byte, chunkCopyBufferSize),
	}, nil
}

// Append copies the file at path to the end of the bin region and returns
// the bin offset it starts at, which is the region size before the call.
func (b *binAssembler) Append(path string) (int64, error) {
	src, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: open chunk: %w", ErrIO, err)
	}
	defer func() { _ = src.Close() }()

	offset := b.size
	n, err := io.CopyBuffer(b.f, src, b.buf)
	b.size += n
	if err != nil {
		return 0, fmt.Errorf("%w: append to bin region: %w", ErrIO, err)
	}

	return offset, nil
}

// Size returns bytes appended so far.
func (b *binAssembler) Size() int64 {
	return b.size
}

// Path returns the bin region scratch file path.
func (b *binAssembler) Path() string {
	return b.path
}

// Close flushes and closes the bin region file.
func (b *binAssembler) Close() error {
	if b == nil || b.f == nil {
		return nil
	}

	syncErr := b.f.Sync()
	closeErr := b.f.Close()
	b.f = nil
	if syncErr != nil {
		return fmt.Errorf("%w: sync bin region: %w", ErrIO, syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close bin region: %w", ErrIO, closeErr)
	}

	return nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// pendingFile is an output written next to its destination and renamed
// over it on Commit, so readers never observe a partial file.
type pendingFile struct {
	*os.File
	dest string
	done bool
}

// createPending creates a hidden temp file in the destination directory.
func createPending(dest string) (*pendingFile, error) {
	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp output: %w", ErrIO, err)
	}

	return &pendingFile{File: f, dest: dest}, nil
}

// Commit syncs, closes, and renames the temp file over destination.
func (p *pendingFile) Commit() error {
	if p.done {
		return nil
	}

	if err := p.Sync(); err != nil {
		p.Abort()
		return fmt.Errorf("%w: sync output: %w", ErrIO, err)
	}

	if err := p.Close(); err != nil {
		p.Abort()
		return fmt.Errorf("%w: close output: %w", ErrIO, err)
	}

	if err := os.Chmod(p.Name(), 0o644); err != nil {
		p.Abort()
		return fmt.Errorf("%w: chmod output: %w", ErrIO, err)
	}

	if err := os.Rename(p.Name(), p.dest); err != nil {
		p.Abort()
		return fmt.Errorf("%w: move output into place: %w", ErrIO, err)
	}

	p.done = true
	return nil
}

// Abort closes and removes the temp file. It is a no-op after Commit.
func (p *pendingFile) Abort() {
	if p.done {
		return
	}

	p.done = true
	_ = p.Close()
	_ = removeIfExists(p.Name())
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

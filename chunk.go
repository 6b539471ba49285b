// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// chunkCopyBufferSize is the copy buffer used when materializing chunks.
const chunkCopyBufferSize = 64 * 1024

// Chunk is one contiguous piece of a partition payload materialized as a scratch file.
type Chunk struct {
	// Partition is the owning partition name.
	Partition string
	// Path is the scratch file holding current chunk bytes.
	Path string
	// Index is the sequence number within the partition.
	Index int
	// Size is the current chunk length after compression and alignment.
	Size int64
	// OriginalSize is the length of the source range.
	OriginalSize int64
	// Padding is the number of fill bytes appended by alignment.
	Padding int
	// Compressed reports whether Path holds an lzop stream.
	Compressed bool
}

// chunkSplitter lazily cuts a source file into scratch chunk files.
type chunkSplitter struct {
	src       *os.File
	partition string
	dir       string
	buf       []byte
	size      int64
	chunkSize int64
	count     int
	next      int
}

// newChunkSplitter opens source and prepares chunking. chunkSize 0 yields
// a single chunk covering the whole file. Intel HEX sources are decoded to
// binary in dir first.
func newChunkSplitter(partition string, source string, dir string, chunkSize int64) (*chunkSplitter, error) {
	if chunkSize < 0 {
		return nil, fmt.Errorf("%w: chunk size %d is negative", ErrInvalidSize, chunkSize)
	}

	if isIntelHexSource(source) {
		decoded, err := decodeIntelHexSource(source, dir)
		if err != nil {
			return nil, err
		}

		source = decoded
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("%w: open source: %w", ErrIO, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat source: %w", ErrIO, err)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: source %s is not a regular file", ErrIO, source)
	}

	size := fi.Size()
	if chunkSize == 0 || chunkSize > size {
		chunkSize = size
	}

	count := 1
	if chunkSize > 0 {
		count = int((size + chunkSize - 1) / chunkSize)
	}

	return &chunkSplitter{
		src:       f,
		partition: partition,
		dir:       dir,
		buf:       make([]byte, chunkCopyBufferSize),
		size:      size,
		chunkSize: chunkSize,
		count:     count,
	}, nil
}

// Count returns total number of chunks the splitter yields.
func (s *chunkSplitter) Count() int {
	return s.count
}

// Next materializes the next chunk. It returns io.EOF after the last chunk.
func (s *chunkSplitter) Next() (*Chunk, error) {
	if s.next >= s.count {
		return nil, io.EOF
	}

	index := s.next
	off := int64(index) * s.chunkSize
	n := min(s.chunkSize, s.size-off)

	out, err := os.CreateTemp(s.dir, "chunk-*.bin")
	if err != nil {
		return nil, fmt.Errorf("%w: create chunk file: %w", ErrIO, err)
	}

	written, copyErr := io.CopyBuffer(out, io.NewSectionReader(s.src, off, n), s.buf)
	closeErr := out.Close()
	if copyErr != nil {
		return nil, fmt.Errorf("%w: copy chunk %d: %w", ErrIO, index, copyErr)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("%w: close chunk %d: %w", ErrIO, index, closeErr)
	}
	if written != n {
		return nil, fmt.Errorf("%w: chunk %d short read (%d/%d)", ErrIO, index, written, n)
	}

	s.next++

	return &Chunk{
		Partition:    s.partition,
		Path:         out.Name(),
		Index:        index,
		Size:         n,
		OriginalSize: n,
	}, nil
}

// Close releases the source file. Chunk files stay in the scratch directory.
func (s *chunkSplitter) Close() error {
	if s == nil || s.src == nil {
		return nil
	}

	err := s.src.Close()
	s.src = nil
	return err
}

// isIntelHexSource reports whether source should be decoded from Intel HEX.
func isIntelHexSource(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasSuffix(lower, ".hex") || strings.HasSuffix(lower, ".ihex")
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// ChecksumFile calculates CRC32 (IEEE) over full content of the file at path.
func ChecksumFile(path string) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: open for checksum: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	return checksumReader(f)
}

// ChecksumFileRange calculates CRC32 (IEEE) over n bytes of the file at path
// starting at off. The range must lie inside the file.
func ChecksumFileRange(path string, off int64, n int64) (uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: open for checksum: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat for checksum: %w", ErrIO, err)
	}
	if off < 0 || n < 0 || off+n > fi.Size() {
		return 0, fmt.Errorf("%w: checksum range [%d, %d) outside %d-byte file", ErrIO, off, off+n, fi.Size())
	}

	return checksumSection(f, off, n)
}

// ChecksumBytes calculates CRC32 (IEEE) over data.
func ChecksumBytes(data []byte) uint32 {
	return crc32Checksum(data)
}

// checksumReader calculates CRC32 (IEEE) over everything readable from r.
func checksumReader(r io.Reader) (uint32, error) {
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, r); err != nil {
		return 0, fmt.Errorf("%w: checksum: %w", ErrIO, err)
	}

	return h.Sum32(), nil
}

// checksumSection calculates CRC32 (IEEE) over n bytes of ra starting at off.
func checksumSection(ra io.ReaderAt, off int64, n int64) (uint32, error) {
	return checksumReader(io.NewSectionReader(ra, off, n))
}

// crc32Checksum is CRC32 (IEEE) of data.
func crc32Checksum(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// putReversedChecksum stores sum with bytes reversed relative to its
// big-endian display form, as MBOOT expects in the footer.
func putReversedChecksum(dst []byte, sum uint32) {
	binary.LittleEndian.PutUint32(dst, sum)
}

// reversedChecksum reads a footer checksum field back to its natural value.
func reversedChecksum(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

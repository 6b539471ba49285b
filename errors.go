// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"fmt"
)

// Error classes for image builds. Every build failure wraps exactly one of
// them; use errors.Is in callers.
var (
	// ErrConfiguration means the manifest or build options are invalid.
	ErrConfiguration = errors.New("configuration error")
	// ErrIO means a source, scratch, or destination file could not be accessed.
	ErrIO = errors.New("i/o error")
	// ErrCompression means the payload encoder rejected a chunk.
	ErrCompression = errors.New("compression error")
	// ErrUnsupportedLayout means the partition needs a command sequence MBOOT support is not verified for.
	ErrUnsupportedLayout = errors.New("unsupported partition layout")
)

// Configuration errors. Each wraps ErrConfiguration.
var (
	// ErrHeaderOverflow means the header script with end marker exceeds the header size.
	ErrHeaderOverflow = fmt.Errorf("%w: header script exceeds header size", ErrConfiguration)
	// ErrMissingField means a required manifest field is empty.
	ErrMissingField = fmt.Errorf("%w: missing required field", ErrConfiguration)
	// ErrInvalidKind means the partition type is not one of the known kinds.
	ErrInvalidKind = fmt.Errorf("%w: invalid partition type", ErrConfiguration)
	// ErrDuplicatePartition means two partitions share the same name.
	ErrDuplicatePartition = fmt.Errorf("%w: duplicate partition name", ErrConfiguration)
	// ErrInvalidSize means a size or chunk size value is malformed or negative.
	ErrInvalidSize = fmt.Errorf("%w: invalid size", ErrConfiguration)
	// ErrInvalidMagic means the footer magic is empty or not printable ASCII.
	ErrInvalidMagic = fmt.Errorf("%w: invalid footer magic", ErrConfiguration)
	// ErrNonASCII means script text contains bytes outside 7-bit ASCII.
	ErrNonASCII = fmt.Errorf("%w: non-ASCII header script text", ErrConfiguration)
	// ErrInvalidRule means a partition selection or compression rule is invalid.
	ErrInvalidRule = fmt.Errorf("%w: invalid partition rule", ErrConfiguration)
	// ErrNoPartitions means nothing is left to pack after selection.
	ErrNoPartitions = fmt.Errorf("%w: no partitions to pack", ErrConfiguration)
)

// Image verification errors.
var (
	// ErrImageTooShort means the file cannot hold the header and footer.
	ErrImageTooShort = errors.New("image too short for header and footer")
	// ErrFooterMagic means the footer does not start with the expected magic.
	ErrFooterMagic = errors.New("footer magic mismatch")
	// ErrChecksumMismatch means a stored CRC differs from the computed one.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrHeaderCopyMismatch means the footer copy of the first header bytes differs.
	ErrHeaderCopyMismatch = errors.New("footer header copy mismatch")
	// ErrLoadOutOfRange means a load command addresses bytes outside the bin region.
	ErrLoadOutOfRange = errors.New("load command outside bin region")
	// ErrMalformedLZOP means an lzop stream is truncated or has a bad header.
	ErrMalformedLZOP = errors.New("malformed lzop stream")
)

// PartitionError reports a build failure attributed to one partition.
type PartitionError struct {
	Partition string
	Err       error
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("partition %q: %v", e.Partition, e.Err)
}

func (e *PartitionError) Unwrap() error {
	return e.Err
}

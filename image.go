// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ImageOptions describes layout parameters needed to read a built image.
type ImageOptions struct {
	// Magic is the expected footer magic.
	Magic string `json:"magic" yaml:"magic"`
	// HeaderSize is the header capacity; zero means DefaultHeaderSize.
	HeaderSize int64 `json:"header_size,omitempty" yaml:"header_size,omitempty"`
}

// LoadCommand is a parsed "filepartload" line of the header script.
type LoadCommand struct {
	// Line is the zero-based script line index.
	Line int `json:"line" yaml:"line"`
	// Offset is the absolute image offset.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is the number of bytes loaded.
	Size int64 `json:"size" yaml:"size"`
}

// Image provides read-only access to a built upgrade image.
type Image struct {
	ra     io.ReaderAt
	file   *os.File
	header []byte
	footer Footer
	opts   ImageOptions
	size   int64
}

// applyDefaults fills zero-valued image options with defaults.
func (opts *ImageOptions) applyDefaults() {
	if opts.HeaderSize == 0 {
		opts.HeaderSize = DefaultHeaderSize
	}
}

// OpenImage opens the image at path and parses its header and footer.
func OpenImage(path string, opts ImageOptions) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open image: %w", ErrIO, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat image: %w", ErrIO, err)
	}

	img, err := NewImageFromReaderAt(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	img.file = f
	return img, nil
}

// NewImageFromReaderAt parses image from ra of known size.
func NewImageFromReaderAt(ra io.ReaderAt, size int64, opts ImageOptions) (*Image, error) {
	opts.applyDefaults()
	if err := validateFooterMagic(opts.Magic); err != nil {
		return nil, err
	}

	footerSize := int64(FooterSize(opts.Magic))
	if opts.HeaderSize < HeaderHeadSize || size < opts.HeaderSize+footerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooShort, size)
	}

	header := make([]byte, opts.HeaderSize)
	if _, err := ra.ReadAt(header, 0); err != nil {
		return nil, fmt.Errorf("%w: read header: %w", ErrIO, err)
	}

	raw := make([]byte, footerSize)
	if _, err := ra.ReadAt(raw, size-footerSize); err != nil {
		return nil, fmt.Errorf("%w: read footer: %w", ErrIO, err)
	}

	footer, err := ParseFooter(raw, opts.Magic)
	if err != nil {
		return nil, err
	}

	return &Image{
		ra:     ra,
		header: header,
		footer: footer,
		opts:   opts,
		size:   size,
	}, nil
}

// Close releases the file opened by OpenImage.
func (img *Image) Close() error {
	if img == nil || img.file == nil {
		return nil
	}

	err := img.file.Close()
	img.file = nil
	return err
}

// Footer returns parsed footer.
func (img *Image) Footer() Footer {
	return img.footer
}

// Header returns a copy of the header region.
func (img *Image) Header() []byte {
	return bytes.Clone(img.header)
}

// BinSize returns bin region length.
func (img *Image) BinSize() int64 {
	return img.size - img.opts.HeaderSize - int64(img.footer.Size())
}

// Script returns header script lines before the end marker.
func (img *Image) Script() []string {
	text := img.header
	if i := bytes.Index(text, []byte(EndOfScriptMarker)); i >= 0 {
		text = text[:i]
	} else if i := bytes.IndexByte(text, FillByte); i >= 0 {
		text = text[:i]
	}

	lines := strings.Split(strings.TrimRight(string(text), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}

	return lines
}

// LoadCommands parses all "filepartload" script lines.
func (img *Image) LoadCommands() ([]LoadCommand, error) {
	var out []LoadCommand
	for i, line := range img.Script() {
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] != "filepartload" {
			continue
		}
		if len(fields) != 5 {
			return nil, fmt.Errorf("line %d: malformed load command %q", i, line)
		}

		offset, err := strconv.ParseInt(fields[3], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: load offset: %w", i, err)
		}

		size, err := strconv.ParseInt(fields[4], 16, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: load size: %w", i, err)
		}

		out = append(out, LoadCommand{Line: i, Offset: offset, Size: size})
	}

	return out, nil
}

// ReadLoad returns bytes addressed by a load command.
func (img *Image) ReadLoad(lc LoadCommand) ([]byte, error) {
	if err := img.checkLoad(lc); err != nil {
		return nil, err
	}

	buf := make([]byte, lc.Size)
	if _, err := img.ra.ReadAt(buf, lc.Offset); err != nil {
		return nil, fmt.Errorf("%w: read load at %#x: %w", ErrIO, lc.Offset, err)
	}

	return buf, nil
}

// Verify recomputes both checksums, compares the footer header copy, and
// checks that every load command addresses the bin region.
func (img *Image) Verify() error {
	if got := ChecksumBytes(img.header); got != img.footer.HeaderCRC {
		return fmt.Errorf("%w: header crc %08X, footer has %08X", ErrChecksumMismatch, got, img.footer.HeaderCRC)
	}

	got, err := checksumSection(img.ra, img.opts.HeaderSize, img.BinSize())
	if err != nil {
		return err
	}
	if got != img.footer.BinCRC {
		return fmt.Errorf("%w: bin crc %08X, footer has %08X", ErrChecksumMismatch, got, img.footer.BinCRC)
	}

	if !bytes.Equal(img.footer.HeaderHead[:], img.header[:HeaderHeadSize]) {
		return ErrHeaderCopyMismatch
	}

	loads, err := img.LoadCommands()
	if err != nil {
		return err
	}
	for _, lc := range loads {
		if err := img.checkLoad(lc); err != nil {
			return err
		}
	}

	return nil
}

// checkLoad reports whether load command lies inside the bin region.
func (img *Image) checkLoad(lc LoadCommand) error {
	start := img.opts.HeaderSize
	end := start + img.BinSize()
	if lc.Size < 0 || lc.Offset < start || lc.Offset+lc.Size > end {
		return fmt.Errorf("%w: line %d range [%#x, %#x) outside [%#x, %#x)",
			ErrLoadOutOfRange, lc.Line, lc.Offset, lc.Offset+lc.Size, start, end)
	}

	return nil
}

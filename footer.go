// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bytes"
	"fmt"
)

// Footer is the trailing integrity record of an upgrade image:
// magic | header CRC32 | bin CRC32 | first 16 header bytes.
// CRC fields are stored byte-reversed (little-endian).
type Footer struct {
	// Magic is the ASCII token opening the footer.
	Magic string `json:"magic" yaml:"magic"`
	// HeaderCRC is CRC32 of the header region.
	HeaderCRC uint32 `json:"header_crc" yaml:"header_crc"`
	// BinCRC is CRC32 of the bin region.
	BinCRC uint32 `json:"bin_crc" yaml:"bin_crc"`
	// HeaderHead is a verbatim copy of the first header bytes.
	HeaderHead [HeaderHeadSize]byte `json:"-" yaml:"-"`
}

// FooterSize returns footer length for the given magic.
func FooterSize(magic string) int {
	return len(magic) + 2*checksumSize + HeaderHeadSize
}

// BuildFooter constructs footer from finalized region checksums and header.
func BuildFooter(magic string, headerCRC uint32, binCRC uint32, header []byte) (Footer, error) {
	if err := validateFooterMagic(magic); err != nil {
		return Footer{}, err
	}
	if len(header) < HeaderHeadSize {
		return Footer{}, fmt.Errorf("%w: header has %d bytes, need %d", ErrConfiguration, len(header), HeaderHeadSize)
	}

	f := Footer{
		Magic:     magic,
		HeaderCRC: headerCRC,
		BinCRC:    binCRC,
	}
	copy(f.HeaderHead[:], header[:HeaderHeadSize])

	return f, nil
}

// Size returns encoded footer length.
func (f Footer) Size() int {
	return FooterSize(f.Magic)
}

// MarshalBinary encodes footer in image byte layout.
func (f Footer) MarshalBinary() ([]byte, error) {
	if err := validateFooterMagic(f.Magic); err != nil {
		return nil, err
	}

	out := make([]byte, f.Size())
	n := copy(out, f.Magic)
	putReversedChecksum(out[n:], f.HeaderCRC)
	n += checksumSize
	putReversedChecksum(out[n:], f.BinCRC)
	n += checksumSize
	copy(out[n:], f.HeaderHead[:])

	return out, nil
}

// ParseFooter decodes footer bytes; magic selects the expected token.
func ParseFooter(data []byte, magic string) (Footer, error) {
	if len(data) != FooterSize(magic) {
		return Footer{}, fmt.Errorf("%w: footer has %d bytes, want %d", ErrImageTooShort, len(data), FooterSize(magic))
	}
	if !bytes.Equal(data[:len(magic)], []byte(magic)) {
		return Footer{}, fmt.Errorf("%w: got %q, want %q", ErrFooterMagic, data[:len(magic)], magic)
	}

	n := len(magic)
	f := Footer{
		Magic:     magic,
		HeaderCRC: reversedChecksum(data[n : n+checksumSize]),
		BinCRC:    reversedChecksum(data[n+checksumSize : n+2*checksumSize]),
	}
	copy(f.HeaderHead[:], data[n+2*checksumSize:])

	return f, nil
}

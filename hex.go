// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bufio"
	"fmt"
	"os"
	"sort"

	"github.com/marcinbor85/gohex"
)

// intelHexLineLength is the data bytes per record in exported HEX files.
const intelHexLineLength = 16

// decodeIntelHexSource converts an Intel HEX file into a contiguous binary
// in dir. Gaps between records are filled with FillByte.
func decodeIntelHexSource(source string, dir string) (string, error) {
	f, err := os.Open(source)
	if err != nil {
		return "", fmt.Errorf("%w: open source: %w", ErrIO, err)
	}
	defer func() { _ = f.Close() }()

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(bufio.NewReader(f)); err != nil {
		return "", fmt.Errorf("%w: parse Intel HEX %s: %w", ErrIO, source, err)
	}

	segments := mem.GetDataSegments()
	sort.Slice(segments, func(i, j int) bool { return segments[i].Address < segments[j].Address })

	var data []byte
	if len(segments) > 0 {
		start := uint64(segments[0].Address)
		end := start
		for _, seg := range segments {
			end = max(end, uint64(seg.Address)+uint64(len(seg.Data)))
		}

		data = mem.ToBinary(uint32(start), uint32(end-start), FillByte) //nolint:gosec // HEX addresses are 32-bit
	}

	out, err := os.CreateTemp(dir, "hex-*.bin")
	if err != nil {
		return "", fmt.Errorf("%w: create decoded source: %w", ErrIO, err)
	}

	_, writeErr := out.Write(data)
	closeErr := out.Close()
	if writeErr != nil {
		return "", fmt.Errorf("%w: write decoded source: %w", ErrIO, writeErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: close decoded source: %w", ErrIO, closeErr)
	}

	return out.Name(), nil
}

// WriteIntelHex dumps the file at imagePath to hexPath as Intel HEX records
// starting at baseAddr.
func WriteIntelHex(imagePath string, hexPath string, baseAddr uint32) error {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("%w: read image: %w", ErrIO, err)
	}

	if uint64(baseAddr)+uint64(len(data)) > 1<<32 {
		return fmt.Errorf("%w: image of %d bytes at %#x exceeds 32-bit address space",
			ErrConfiguration, len(data), baseAddr)
	}

	mem := gohex.NewMemory()
	if len(data) > 0 {
		if err := mem.AddBinary(baseAddr, data); err != nil {
			return fmt.Errorf("%w: add image to HEX memory: %w", ErrConfiguration, err)
		}
	}

	out, err := createPending(hexPath)
	if err != nil {
		return err
	}
	defer out.Abort()

	w := bufio.NewWriter(out)
	if err := mem.DumpIntelHex(w, intelHexLineLength); err != nil {
		return fmt.Errorf("%w: dump Intel HEX: %w", ErrIO, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write Intel HEX: %w", ErrIO, err)
	}

	return out.Commit()
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bytes"
	"fmt"
	"strings"
)

// headerBuilder accumulates the MBOOT header script.
type headerBuilder struct {
	buf        bytes.Buffer
	capacity   int64
	blocks     int
	finalized  bool
	suffixDone bool
}

// newHeaderBuilder creates builder for a header of fixed capacity bytes.
func newHeaderBuilder(capacity int64) *headerBuilder {
	h := &headerBuilder{capacity: capacity}
	h.buf.Grow(int(min(capacity, DefaultHeaderSize)))
	return h
}

// WritePrefix writes the script prologue.
func (h *headerBuilder) WritePrefix(text string) error {
	return h.writeSection("# Header prefix", text)
}

// WritePartitionBlock writes one commented command group.
func (h *headerBuilder) WritePartitionBlock(name string, lines []string) error {
	if err := h.writable(); err != nil {
		return err
	}
	if h.suffixDone {
		return fmt.Errorf("%w: partition block after header suffix", ErrConfiguration)
	}

	if !isASCII(name) {
		return ErrNonASCII
	}
	for _, line := range lines {
		if !isASCII(line) || strings.ContainsAny(line, "\r\n") {
			return fmt.Errorf("%w: command %q", ErrNonASCII, line)
		}
	}

	if h.blocks == 0 {
		h.buf.WriteString("# Partitions\n")
	}
	h.blocks++

	h.buf.WriteString("\n# ")
	h.buf.WriteString(name)
	h.buf.WriteByte('\n')
	for _, line := range lines {
		h.buf.WriteString(line)
		h.buf.WriteByte('\n')
	}

	return nil
}

// WriteSuffix writes the script epilogue.
func (h *headerBuilder) WriteSuffix(text string) error {
	if err := h.writable(); err != nil {
		return err
	}

	if h.blocks > 0 {
		h.buf.WriteByte('\n')
	}

	h.suffixDone = true
	return h.writeSection("# Header suffix", text)
}

// Len returns accumulated script length.
func (h *headerBuilder) Len() int {
	return h.buf.Len()
}

// Finalize appends the end marker and pads the script with FillByte to
// exactly capacity bytes.
func (h *headerBuilder) Finalize() ([]byte, error) {
	if err := h.writable(); err != nil {
		return nil, err
	}

	h.buf.WriteString(EndOfScriptMarker)
	h.buf.WriteByte('\n')
	h.finalized = true

	used := int64(h.buf.Len())
	if used > h.capacity {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrHeaderOverflow, used, h.capacity)
	}

	out := make([]byte, h.capacity)
	n := copy(out, h.buf.Bytes())
	for i := n; i < len(out); i++ {
		out[i] = FillByte
	}

	return out, nil
}

// writeSection writes a titled free-form text block followed by a blank line.
func (h *headerBuilder) writeSection(title string, text string) error {
	if err := h.writable(); err != nil {
		return err
	}
	if !isASCII(text) {
		return ErrNonASCII
	}

	h.buf.WriteString(title)
	h.buf.WriteByte('\n')
	for _, line := range scriptLines(text) {
		h.buf.WriteString(line)
		h.buf.WriteByte('\n')
	}
	h.buf.WriteByte('\n')

	return nil
}

// writable rejects writes after Finalize.
func (h *headerBuilder) writable() error {
	if h.finalized {
		return fmt.Errorf("%w: header already finalized", ErrConfiguration)
	}

	return nil
}

// scriptLines splits free-form text into lines without surrounding blank lines
// or trailing spaces.
func scriptLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.Trim(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}

	return lines
}

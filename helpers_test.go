// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

const (
	testMagic   = "12345678"
	testDRAM    = "0x20200000"
	testImgName = "MstarUpgrade.bin"
)

// writeSourceForTest writes data to dir/name and returns the path.
func writeSourceForTest(t *testing.T, dir string, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}

	return path
}

// patternForTest returns n bytes of a repeating non-0xFF pattern.
func patternForTest(n int, seed byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = seed + byte(i%251)
	}

	return out
}

// manifestForTest returns a valid manifest writing into dir.
func manifestForTest(dir string, partitions ...Partition) *Manifest {
	return &Manifest{
		Output:             filepath.Join(dir, testImgName),
		ScriptFirmwareName: testImgName,
		DRAMBufAddr:        testDRAM,
		FooterMagic:        testMagic,
		Partitions:         partitions,
	}
}

// scriptForTest returns header script lines of the image at path.
func scriptForTest(t *testing.T, path string) []string {
	t.Helper()

	img, err := OpenImage(path, ImageOptions{Magic: testMagic})
	if err != nil {
		t.Fatalf("OpenImage: %v", err)
	}
	defer func() { _ = img.Close() }()

	return img.Script()
}

// containsLine reports whether lines has an exact match for want.
func containsLine(lines []string, want string) bool {
	for _, line := range lines {
		if line == want {
			return true
		}
	}

	return false
}

// paddedForTest returns data padded with FillByte to Alignment.
func paddedForTest(data []byte) []byte {
	return append(bytes.Clone(data), bytes.Repeat([]byte{FillByte}, alignPadding(int64(len(data))))...)
}

// writeBenchFile writes data to path for benchmarks.
func writeBenchFile(path string, data []byte) error {
	return os.WriteFile(path, data, 0o600)
}

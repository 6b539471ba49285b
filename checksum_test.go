// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"hash/crc32"
	"testing"
)

func TestChecksumFileRange(t *testing.T) {
	t.Parallel()

	data := patternForTest(300, 8)
	path := writeSourceForTest(t, t.TempDir(), "data.bin", data)

	whole, err := ChecksumFile(path)
	if err != nil {
		t.Fatalf("ChecksumFile: %v", err)
	}
	if whole != crc32.ChecksumIEEE(data) {
		t.Fatalf("ChecksumFile=%08X, want %08X", whole, crc32.ChecksumIEEE(data))
	}

	part, err := ChecksumFileRange(path, 100, 50)
	if err != nil {
		t.Fatalf("ChecksumFileRange: %v", err)
	}
	if want := ChecksumBytes(data[100:150]); part != want {
		t.Fatalf("ChecksumFileRange=%08X, want %08X", part, want)
	}

	if _, err := ChecksumFileRange(path, 290, 20); !errors.Is(err, ErrIO) {
		t.Fatalf("out of range err=%v, want ErrIO", err)
	}
}

func TestReversedChecksum(t *testing.T) {
	t.Parallel()

	var buf [4]byte
	putReversedChecksum(buf[:], 0xDEADBEEF)
	if buf != [4]byte{0xEF, 0xBE, 0xAD, 0xDE} {
		t.Fatalf("reversed=% X", buf)
	}
	if got := reversedChecksum(buf[:]); got != 0xDEADBEEF {
		t.Fatalf("reversedChecksum=%08X, want DEADBEEF", got)
	}
}

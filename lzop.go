// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"
	"time"

	lzo "github.com/rasky/go-lzo"
)

// lzop container constants as read by MBOOT "mmc unlzo".
const (
	lzopVersion       = 0x1030
	lzopLibVersion    = 0x2080
	lzopVersionNeeded = 0x0940
	lzopMethodLZO1X1  = 1
	lzopLevel         = 5
	lzopFileMode      = 0o100644

	lzopFlagAdler32D = 0x00000001
	lzopFlagAdler32C = 0x00000002
	lzopFlagFilter   = 0x00000800
	lzopFlagCRC32H   = 0x00001000
	lzopFlagOSUnix   = 0x03000000
)

// lzopMagic opens every lzop stream.
var lzopMagic = [9]byte{0x89, 'L', 'Z', 'O', 0x00, 0x0D, 0x0A, 0x1A, 0x0A}

// CompressLZOP writes data to w as an lzop stream of LZO1X-1 blocks.
// Blocks that do not shrink are stored raw. It returns bytes written.
func CompressLZOP(w io.Writer, data []byte, blockSize int, modTime time.Time) (written int64, err error) {
	if blockSize <= 0 || blockSize > maxLZOPBlockSize {
		return 0, fmt.Errorf("%w: lzop block size %d", ErrCompression, blockSize)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: lzo encoder: %v", ErrCompression, r)
		}
	}()

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)

	if _, err := bw.Write(lzopHeader(modTime)); err != nil {
		return cw.n, err
	}

	var field [4]byte
	putField := func(v uint32) error {
		binary.BigEndian.PutUint32(field[:], v)
		_, err := bw.Write(field[:])
		return err
	}

	for start := 0; start < len(data); start += blockSize {
		end := min(start+blockSize, len(data))
		block := data[start:end]

		packed := lzo.Compress1X(block)
		if len(packed) == 0 {
			return cw.n, fmt.Errorf("%w: empty lzo output for %d-byte block", ErrCompression, len(block))
		}

		stored := packed
		if len(packed) >= len(block) {
			stored = block
		}

		if err := putField(uint32(len(block))); err != nil { //nolint:gosec // bounded by maxLZOPBlockSize
			return cw.n, err
		}
		if err := putField(uint32(len(stored))); err != nil { //nolint:gosec // bounded by maxLZOPBlockSize
			return cw.n, err
		}
		if err := putField(adler32.Checksum(block)); err != nil {
			return cw.n, err
		}
		if _, err := bw.Write(stored); err != nil {
			return cw.n, err
		}
	}

	if err := putField(0); err != nil {
		return cw.n, err
	}

	if err := bw.Flush(); err != nil {
		return cw.n, err
	}

	return cw.n, nil
}

// lzopHeader builds magic and file header for a nameless stream.
func lzopHeader(modTime time.Time) []byte {
	var mtime uint64
	if !modTime.IsZero() && modTime.Unix() > 0 {
		mtime = uint64(modTime.Unix())
	}

	hdr := make([]byte, 0, 64)
	hdr = append(hdr, lzopMagic[:]...)
	body := len(hdr)
	hdr = binary.BigEndian.AppendUint16(hdr, lzopVersion)
	hdr = binary.BigEndian.AppendUint16(hdr, lzopLibVersion)
	hdr = binary.BigEndian.AppendUint16(hdr, lzopVersionNeeded)
	hdr = append(hdr, lzopMethodLZO1X1, lzopLevel)
	hdr = binary.BigEndian.AppendUint32(hdr, lzopFlagAdler32D|lzopFlagOSUnix)
	hdr = binary.BigEndian.AppendUint32(hdr, lzopFileMode)
	hdr = binary.BigEndian.AppendUint32(hdr, uint32(mtime))     //nolint:gosec // low half
	hdr = binary.BigEndian.AppendUint32(hdr, uint32(mtime>>32)) //nolint:gosec // high half
	hdr = append(hdr, 0)                                        // name length
	hdr = binary.BigEndian.AppendUint32(hdr, adler32.Checksum(hdr[body:]))

	return hdr
}

// DecompressLZOP decodes a whole lzop stream and verifies block checksums.
func DecompressLZOP(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)

	flags, err := readLZOPHeader(br)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	var field [4]byte
	readField := func() (uint32, error) {
		if _, err := io.ReadFull(br, field[:]); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrMalformedLZOP, err)
		}

		return binary.BigEndian.Uint32(field[:]), nil
	}

	for {
		dstLen, err := readField()
		if err != nil {
			return nil, err
		}
		if dstLen == 0 {
			return out.Bytes(), nil
		}

		srcLen, err := readField()
		if err != nil {
			return nil, err
		}
		if dstLen > maxLZOPBlockSize || srcLen > dstLen {
			return nil, fmt.Errorf("%w: block sizes %d/%d", ErrMalformedLZOP, srcLen, dstLen)
		}

		var sumD, sumC uint32
		if flags&lzopFlagAdler32D != 0 {
			if sumD, err = readField(); err != nil {
				return nil, err
			}
		}
		if flags&lzopFlagAdler32C != 0 && srcLen < dstLen {
			if sumC, err = readField(); err != nil {
				return nil, err
			}
		}

		payload := make([]byte, srcLen)
		if _, err := io.ReadFull(br, payload); err != nil {
			return nil, fmt.Errorf("%w: block payload: %w", ErrMalformedLZOP, err)
		}

		if flags&lzopFlagAdler32C != 0 && srcLen < dstLen && adler32.Checksum(payload) != sumC {
			return nil, fmt.Errorf("%w: compressed block adler32", ErrChecksumMismatch)
		}

		block := payload
		if srcLen < dstLen {
			block, err = lzo.Decompress1X(bytes.NewReader(payload), len(payload), int(dstLen))
			if err != nil {
				return nil, fmt.Errorf("%w: decode block: %w", ErrMalformedLZOP, err)
			}
			if len(block) != int(dstLen) {
				return nil, fmt.Errorf("%w: block decoded to %d bytes, want %d", ErrMalformedLZOP, len(block), dstLen)
			}
		}

		if flags&lzopFlagAdler32D != 0 && adler32.Checksum(block) != sumD {
			return nil, fmt.Errorf("%w: block adler32", ErrChecksumMismatch)
		}

		out.Write(block)
	}
}

// readLZOPHeader parses and validates lzop file header, returning its flags.
func readLZOPHeader(br *bufio.Reader) (uint32, error) {
	var magic [len(lzopMagic)]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return 0, fmt.Errorf("%w: magic: %w", ErrMalformedLZOP, err)
	}
	if magic != lzopMagic {
		return 0, fmt.Errorf("%w: bad magic", ErrMalformedLZOP)
	}

	// Header fields are read through a tee so the header checksum can be verified.
	var hdr bytes.Buffer
	tr := io.TeeReader(br, &hdr)
	read := func(n int) ([]byte, error) {
		buf := make([]byte, n)
		if _, err := io.ReadFull(tr, buf); err != nil {
			return nil, fmt.Errorf("%w: header: %w", ErrMalformedLZOP, err)
		}

		return buf, nil
	}

	fixed, err := read(2 + 2 + 2 + 1 + 1 + 4)
	if err != nil {
		return 0, err
	}

	version := binary.BigEndian.Uint16(fixed[0:2])
	if version < lzopVersionNeeded {
		return 0, fmt.Errorf("%w: unsupported version %#x", ErrMalformedLZOP, version)
	}
	if fixed[6] != lzopMethodLZO1X1 && fixed[6] != 2 && fixed[6] != 3 {
		return 0, fmt.Errorf("%w: unsupported method %d", ErrMalformedLZOP, fixed[6])
	}

	flags := binary.BigEndian.Uint32(fixed[8:12])
	if flags&lzopFlagFilter != 0 {
		if _, err := read(4); err != nil {
			return 0, err
		}
	}

	// mode, mtime low, mtime high
	if _, err := read(12); err != nil {
		return 0, err
	}

	nameLen, err := read(1)
	if err != nil {
		return 0, err
	}
	if _, err := read(int(nameLen[0])); err != nil {
		return 0, err
	}

	var sum uint32
	if flags&lzopFlagCRC32H != 0 {
		sum = crc32Checksum(hdr.Bytes())
	} else {
		sum = adler32.Checksum(hdr.Bytes())
	}

	var stored [4]byte
	if _, err := io.ReadFull(br, stored[:]); err != nil {
		return 0, fmt.Errorf("%w: header checksum: %w", ErrMalformedLZOP, err)
	}
	if binary.BigEndian.Uint32(stored[:]) != sum {
		return 0, fmt.Errorf("%w: lzop header", ErrChecksumMismatch)
	}

	return flags, nil
}

// countingWriter counts bytes passed to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

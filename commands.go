// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import "fmt"

// Numeric command arguments are uppercase hex without padding or prefix.

// scriptContext holds manifest values shared by all emitted commands.
type scriptContext struct {
	// dramBufAddr is the MBOOT load buffer address.
	dramBufAddr string
	// firmwareName is the upgrade file name MBOOT reads chunks from.
	firmwareName string
}

// cmdCreatePartition creates an eMMC partition of the declared size.
func cmdCreatePartition(name string, size string) string {
	return fmt.Sprintf("mmc create %s %s", name, size)
}

// cmdErasePartition erases an eMMC partition.
func cmdErasePartition(name string) string {
	return fmt.Sprintf("mmc erase.p %s", name)
}

// load reads size bytes at image offset into the DRAM buffer.
func (s scriptContext) load(offset int64, size int64) string {
	return fmt.Sprintf("filepartload %s %s %X %X", s.dramBufAddr, s.firmwareName, offset, size)
}

// writeOnce writes the whole DRAM buffer to a partition.
func (s scriptContext) writeOnce(name string, size int64) string {
	return fmt.Sprintf("mmc write.p %s %s %X 1", s.dramBufAddr, name, size)
}

// unlzo decompresses the buffer into a partition; continuation chunks append.
func (s scriptContext) unlzo(name string, size int64, first bool) string {
	op := "unlzo.cont"
	if first {
		op = "unlzo"
	}

	return fmt.Sprintf("mmc %s %s %X %s 1", op, s.dramBufAddr, size, name)
}

// storeSecureInfo stores the buffer as secure info.
func (s scriptContext) storeSecureInfo(name string) string {
	return fmt.Sprintf("store_secure_info %s %s", name, s.dramBufAddr)
}

// storeNuttxConfig stores the buffer as NuttX configuration.
func (s scriptContext) storeNuttxConfig(name string) string {
	return fmt.Sprintf("store_nuttx_config %s %s", name, s.dramBufAddr)
}

// writeBoot writes the buffer to eMMC boot partition 1.
func (s scriptContext) writeBoot(size int64) string {
	return fmt.Sprintf("mmc write.boot 1 %s 0 %X", s.dramBufAddr, size)
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"time"

	"github.com/woozymasta/pathrules"
)

// Image layout constants fixed by the MBOOT upgrade format.
const (
	DefaultHeaderSize = 16 * 1024 // header capacity used by stock MBOOT builds
	MaxHeaderSize     = 64 << 20  // largest header capacity accepted by Validate
	Alignment         = 4         // bin region chunk alignment in bytes
	FillByte          = 0xFF      // header and alignment padding byte
	HeaderHeadSize    = 16        // header bytes copied into the footer
	checksumSize      = 4         // CRC32 field size in footer
)

// EndOfScriptMarker terminates the header script; MBOOT stops parsing here.
const EndOfScriptMarker = "% <- this is end of file symbol"

// Default tuning values.
const (
	DefaultLZOPBlockSize = 256 * 1024
	maxLZOPBlockSize     = 64 * 1024 * 1024
)

// PartitionKind selects the command sequence emitted for a partition.
type PartitionKind uint8

// Partition kinds known to the header script generator.
const (
	// KindUnset emits only the optional create and erase commands.
	KindUnset PartitionKind = iota
	// KindPartitionImage writes a (possibly chunked and compressed) image to an eMMC partition.
	KindPartitionImage
	// KindSecureInfo stores a secure info blob.
	KindSecureInfo
	// KindNuttxConfig stores a NuttX configuration blob.
	KindNuttxConfig
	// KindSboot writes the secondary boot loader to the eMMC boot partition.
	KindSboot
)

// Partition is one validated manifest entry.
type Partition struct {
	// Name is the eMMC partition name used in script commands.
	Name string `json:"name" yaml:"name"`
	// Source is the payload file path. Names ending in .hex or .ihex are
	// decoded as Intel HEX before chunking.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	// Size is the declared partition size passed verbatim to "mmc create".
	Size string `json:"size,omitempty" yaml:"size,omitempty"`
	// ChunkSize splits the payload into pieces of this size; zero keeps one chunk.
	ChunkSize int64 `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"`
	// Kind selects the emitted command sequence.
	Kind PartitionKind `json:"kind" yaml:"kind"`
	// Create emits "mmc create" before the payload commands.
	Create bool `json:"create,omitempty" yaml:"create,omitempty"`
	// Erase emits "mmc erase.p" before the payload commands.
	Erase bool `json:"erase,omitempty" yaml:"erase,omitempty"`
	// Compress stores chunks as lzop streams written with "mmc unlzo".
	Compress bool `json:"compress,omitempty" yaml:"compress,omitempty"`
}

// Manifest describes one firmware image.
type Manifest struct {
	// Output is the destination image path.
	Output string `json:"output" yaml:"output"`
	// ScriptFirmwareName is the image file name referenced by "filepartload".
	ScriptFirmwareName string `json:"script_firmware_name" yaml:"script_firmware_name"`
	// DRAMBufAddr is the load buffer address, emitted verbatim.
	DRAMBufAddr string `json:"dram_buf_addr" yaml:"dram_buf_addr"`
	// FooterMagic is the ASCII token opening the footer.
	FooterMagic string `json:"footer_magic" yaml:"footer_magic"`
	// HeaderPrefix is script text emitted before partition blocks.
	HeaderPrefix string `json:"header_prefix,omitempty" yaml:"header_prefix,omitempty"`
	// HeaderSuffix is script text emitted after partition blocks.
	HeaderSuffix string `json:"header_suffix,omitempty" yaml:"header_suffix,omitempty"`
	// CompressRules are extra compression patterns matched against partition names.
	CompressRules []string `json:"compress_rules,omitempty" yaml:"compress_rules,omitempty"`
	// Partitions are processed in order.
	Partitions []Partition `json:"partitions" yaml:"partitions"`
	// HeaderSize is the fixed header capacity; zero means DefaultHeaderSize.
	HeaderSize int64 `json:"header_size,omitempty" yaml:"header_size,omitempty"`
}

// ChunkInfo describes one chunk placed into the bin region.
type ChunkInfo struct {
	// Partition is the owning partition name.
	Partition string `json:"partition" yaml:"partition"`
	// Index is the chunk sequence number within the partition.
	Index int `json:"index" yaml:"index"`
	// Offset is the absolute image offset emitted in the load command.
	Offset int64 `json:"offset" yaml:"offset"`
	// Size is the aligned chunk length emitted in script commands.
	Size int64 `json:"size" yaml:"size"`
	// OriginalSize is the chunk length before compression and alignment.
	OriginalSize int64 `json:"original_size" yaml:"original_size"`
	// Padding is the number of fill bytes appended by alignment.
	Padding int `json:"padding,omitempty" yaml:"padding,omitempty"`
	// Compressed reports whether the chunk is stored as lzop stream.
	Compressed bool `json:"compressed,omitempty" yaml:"compressed,omitempty"`
}

// PartitionResult describes one processed partition.
type PartitionResult struct {
	// Name is the partition name.
	Name string `json:"name" yaml:"name"`
	// Commands are the script lines emitted for the partition.
	Commands []string `json:"commands" yaml:"commands"`
	// Chunks are the bin region placements in order.
	Chunks []ChunkInfo `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	// Kind is the partition kind.
	Kind PartitionKind `json:"kind" yaml:"kind"`
}

// BuildOptions configures image build behavior.
type BuildOptions struct {
	// OnChunkDone is called after one chunk is appended to the bin region.
	OnChunkDone func(chunk ChunkInfo) `json:"-" yaml:"-"`
	// OnPartitionDone is called after all commands of one partition are emitted.
	OnPartitionDone func(partition PartitionResult) `json:"-" yaml:"-"`
	// ModTime is stored in lzop headers; zero keeps builds reproducible.
	ModTime time.Time `json:"mod_time,omitzero" yaml:"mod_time,omitempty"`
	// Output overrides Manifest.Output when set.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
	// ScratchDir is the parent directory for the per-build scratch directory.
	// Empty means the destination directory.
	ScratchDir string `json:"scratch_dir,omitempty" yaml:"scratch_dir,omitempty"`
	// Select limits the build to partitions whose names match these rules.
	Select []pathrules.Rule `json:"select,omitempty" yaml:"select,omitempty"`
	// Compress forces compression for image partitions whose names match these rules.
	Compress []pathrules.Rule `json:"compress,omitempty" yaml:"compress,omitempty"`
	// LZOPBlockSize is the uncompressed lzop block size in bytes.
	LZOPBlockSize int `json:"lzop_block_size,omitempty" yaml:"lzop_block_size,omitempty"`
}

// BuildResult contains build output statistics.
type BuildResult struct {
	// Output is the written image path.
	Output string `json:"output" yaml:"output"`
	// Partitions are the processed partitions in manifest order.
	Partitions []PartitionResult `json:"partitions" yaml:"partitions"`
	// HeaderSize is the header region size in bytes.
	HeaderSize int64 `json:"header_size" yaml:"header_size"`
	// BinSize is the bin region size in bytes.
	BinSize int64 `json:"bin_size" yaml:"bin_size"`
	// FooterSize is the footer size in bytes.
	FooterSize int64 `json:"footer_size" yaml:"footer_size"`
	// ImageSize is the total image size in bytes.
	ImageSize int64 `json:"image_size" yaml:"image_size"`
	// Duration is end-to-end build duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
	// HeaderCRC is CRC32 of the header region.
	HeaderCRC uint32 `json:"header_crc" yaml:"header_crc"`
	// BinCRC is CRC32 of the bin region.
	BinCRC uint32 `json:"bin_crc" yaml:"bin_crc"`
}

// applyDefaults fills zero-valued build options with defaults.
func (opts *BuildOptions) applyDefaults() {
	if opts.LZOPBlockSize <= 0 || opts.LZOPBlockSize > maxLZOPBlockSize {
		opts.LZOPBlockSize = DefaultLZOPBlockSize
	}
}

// applyDefaults fills zero-valued manifest fields with defaults.
func (m *Manifest) applyDefaults() {
	if m.HeaderSize == 0 {
		m.HeaderSize = DefaultHeaderSize
	}
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

/*
Package mstarfw assembles and inspects MStar eMMC upgrade images as read by
the MBOOT boot loader.

An image has three regions:
  - header: ASCII script of MBOOT commands, terminated by the end marker
    and padded with 0xFF to a fixed capacity (16 KiB by default);
  - bin: partition payload chunks, each padded with 0xFF to 4 bytes;
  - footer: magic, CRC32 of header, CRC32 of bin, first 16 header bytes.

Load commands in the header address chunks by absolute image offset, so
header capacity is fixed before the first chunk is placed.

# Building

Describe partitions in a Manifest (or load one with the manifest package)
and build:

	m := &mstarfw.Manifest{
	    Output:             "MstarUpgrade.bin",
	    ScriptFirmwareName: "MstarUpgrade.bin",
	    DRAMBufAddr:        "0x20200000",
	    FooterMagic:        "12345678",
	    HeaderSuffix:       "reset",
	    Partitions: []mstarfw.Partition{
	        {Name: "boot", Source: "boot.img", Kind: mstarfw.KindPartitionImage, Erase: true},
	        {Name: "system", Source: "system.img", Kind: mstarfw.KindPartitionImage,
	            ChunkSize: 150 << 20, Compress: true},
	    },
	}
	res, err := mstarfw.Build(ctx, m, mstarfw.BuildOptions{
	    OnChunkDone: func(c mstarfw.ChunkInfo) {
	        // progress callback per placed chunk
	    },
	})
	if err != nil {
	    return err
	}
	_ = res.ImageSize

Uncompressed image partitions must fit a single chunk; more chunks fail
with ErrUnsupportedLayout. Compressed chunks are lzop streams written with
"mmc unlzo" and "mmc unlzo.cont".

Partition selection and compression can also be driven by name rules
(github.com/woozymasta/pathrules):

	opts := mstarfw.BuildOptions{
	    Select:   mstarfw.ParseRules("!userdata"),
	    Compress: mstarfw.ParseRules("system", "vendor*"),
	}

# Verifying

	img, err := mstarfw.OpenImage("MstarUpgrade.bin", mstarfw.ImageOptions{Magic: "12345678"})
	if err != nil {
	    return err
	}
	defer img.Close()
	if err := img.Verify(); err != nil {
	    return err
	}
	loads, _ := img.LoadCommands()
	data, _ := img.ReadLoad(loads[0])
	_ = data

Errors wrap one of ErrConfiguration, ErrIO, ErrCompression, or
ErrUnsupportedLayout; use errors.Is to classify them.
*/
package mstarfw

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// processPartition runs the pipeline of one partition and writes its
// command block into the header.
func (a *assembler) processPartition(p Partition) (PartitionResult, error) {
	res := PartitionResult{
		Name: p.Name,
		Kind: p.Kind,
	}

	if p.Create {
		res.Commands = append(res.Commands, cmdCreatePartition(p.Name, p.Size))
	}

	if p.Erase {
		res.Commands = append(res.Commands, cmdErasePartition(p.Name))
	}

	var err error
	switch p.Kind {
	case KindUnset:
	case KindPartitionImage:
		err = a.emitPartitionImage(p, &res)
	case KindSecureInfo:
		err = a.emitWholeFile(p, &res, func(ChunkInfo) string {
			return a.script.storeSecureInfo(p.Name)
		})
	case KindNuttxConfig:
		err = a.emitWholeFile(p, &res, func(ChunkInfo) string {
			return a.script.storeNuttxConfig(p.Name)
		})
	case KindSboot:
		err = a.emitWholeFile(p, &res, func(info ChunkInfo) string {
			return a.script.writeBoot(info.Size)
		})
	default:
		err = fmt.Errorf("%w: %d", ErrInvalidKind, p.Kind)
	}
	if err != nil {
		return PartitionResult{}, err
	}

	if err := a.header.WritePartitionBlock(p.Name, res.Commands); err != nil {
		return PartitionResult{}, err
	}

	return res, nil
}

// emitPartitionImage places every chunk of an image partition. Compressed
// chunks are written with unlzo/unlzo.cont; an uncompressed payload must
// fit one chunk because write.p.continue offsets are not verified on
// hardware.
func (a *assembler) emitPartitionImage(p Partition, res *PartitionResult) error {
	split, err := newChunkSplitter(p.Name, p.Source, a.scratch, p.ChunkSize)
	if err != nil {
		return err
	}
	defer func() { _ = split.Close() }()

	compress := shouldCompressPartition(p, a.compress)
	if !compress && split.Count() > 1 {
		return fmt.Errorf("%w: %d uncompressed chunks need \"mmc write.p.continue\"; enable compression or set chunk size 0",
			ErrUnsupportedLayout, split.Count())
	}

	for {
		c, err := split.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		info, err := a.placeChunk(c, compress)
		if err != nil {
			return err
		}

		res.Chunks = append(res.Chunks, info)
		res.Commands = append(res.Commands, a.script.load(info.Offset, info.Size))
		if compress {
			res.Commands = append(res.Commands, a.script.unlzo(p.Name, info.Size, info.Index == 0))
		} else {
			res.Commands = append(res.Commands, a.script.writeOnce(p.Name, info.Size))
		}
	}
}

// emitWholeFile places the whole source as one chunk and emits the load
// command followed by the kind specific store command.
func (a *assembler) emitWholeFile(p Partition, res *PartitionResult, store func(ChunkInfo) string) error {
	split, err := newChunkSplitter(p.Name, p.Source, a.scratch, 0)
	if err != nil {
		return err
	}
	defer func() { _ = split.Close() }()

	c, err := split.Next()
	if err != nil {
		return err
	}

	info, err := a.placeChunk(c, false)
	if err != nil {
		return err
	}

	res.Chunks = append(res.Chunks, info)
	res.Commands = append(res.Commands, a.script.load(info.Offset, info.Size), store(info))

	return nil
}

// placeChunk compresses (optionally) and aligns chunk, appends it to the
// bin region, and returns its placement. The chunk file is discarded.
func (a *assembler) placeChunk(c *Chunk, compress bool) (ChunkInfo, error) {
	defer func() { _ = os.Remove(c.Path) }()

	if compress {
		if err := compressChunk(c, compressOptions{
			modTime:   a.opts.ModTime,
			blockSize: a.opts.LZOPBlockSize,
		}); err != nil {
			return ChunkInfo{}, err
		}
	}

	if err := alignChunk(c); err != nil {
		return ChunkInfo{}, err
	}

	binOffset, err := a.bin.Append(c.Path)
	if err != nil {
		return ChunkInfo{}, err
	}

	info := ChunkInfo{
		Partition:    c.Partition,
		Index:        c.Index,
		Offset:       a.manifest.HeaderSize + binOffset,
		Size:         c.Size,
		OriginalSize: c.OriginalSize,
		Padding:      c.Padding,
		Compressed:   c.Compressed,
	}

	if a.opts.OnChunkDone != nil {
		a.opts.OnChunkDone(info)
	}

	return info, nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/woozymasta/mstarfw"
	"github.com/woozymasta/mstarfw/manifest"
	"gopkg.in/yaml.v3"
)

// packFlags holds "pack" command line options.
type packFlags struct {
	output    string
	scratch   string
	report    string
	only      []string
	compress  []string
	blockSize string
	mtime     bool
	quiet     bool
}

func newPackCommand() *cobra.Command {
	var flags packFlags

	cmd := &cobra.Command{
		Use:   "pack <manifest>",
		Short: "Assemble an upgrade image from a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "image path (overrides manifest output)")
	f.StringVar(&flags.scratch, "scratch", "", "parent directory for scratch files")
	f.StringVar(&flags.report, "report", "", "write YAML build report to this path")
	f.StringSliceVar(&flags.only, "only", nil, "partition name patterns to pack, \"!\" excludes")
	f.StringSliceVar(&flags.compress, "compress", nil, "partition name patterns to store as lzop")
	f.StringVar(&flags.blockSize, "lzop-block", "", "lzop block size (default 256KiB)")
	f.BoolVar(&flags.mtime, "mtime", false, "store current time in lzop headers")
	f.BoolVarP(&flags.quiet, "quiet", "q", false, "print only the summary")

	return cmd
}

func runPack(cmd *cobra.Command, path string, flags packFlags) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	blockSize, err := mstarfw.ParseSize(flags.blockSize)
	if err != nil {
		return fmt.Errorf("--lzop-block: %w", err)
	}

	opts := mstarfw.BuildOptions{
		Output:        flags.output,
		ScratchDir:    flags.scratch,
		Select:        mstarfw.ParseRules(flags.only...),
		Compress:      mstarfw.ParseRules(flags.compress...),
		LZOPBlockSize: int(blockSize),
	}
	if flags.mtime {
		opts.ModTime = time.Now()
	}
	if !flags.quiet {
		opts.OnChunkDone = func(c mstarfw.ChunkInfo) {
			mode := "raw"
			if c.Compressed {
				mode = "lzo"
			}

			log.Printf("  %s[%d] %s -> %s at %#x (%s)", c.Partition, c.Index,
				humanize.IBytes(uint64(c.OriginalSize)), humanize.IBytes(uint64(c.Size)), c.Offset, mode) //nolint:gosec // sizes are non-negative
		}
		opts.OnPartitionDone = func(p mstarfw.PartitionResult) {
			log.Printf("%s: %s, %d commands", p.Name, p.Kind, len(p.Commands))
		}
	}

	res, err := mstarfw.Build(cmd.Context(), m, opts)
	if err != nil {
		return err
	}

	log.Printf("wrote %s: %s (header %s, bin %s, footer %d B) in %s",
		res.Output, humanize.IBytes(uint64(res.ImageSize)), //nolint:gosec // sizes are non-negative
		humanize.IBytes(uint64(res.HeaderSize)), humanize.IBytes(uint64(res.BinSize)), //nolint:gosec // sizes are non-negative
		res.FooterSize, res.Duration.Round(time.Millisecond))

	if flags.report != "" {
		return writeReport(flags.report, res)
	}

	return nil
}

// writeReport stores build result as YAML.
func writeReport(path string, res *mstarfw.BuildResult) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // report is not secret
		return fmt.Errorf("%w: write report: %w", mstarfw.ErrIO, err)
	}

	return nil
}

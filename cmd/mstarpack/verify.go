// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package main

import (
	"fmt"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/woozymasta/mstarfw"
)

// imageFlags are layout options shared by commands reading built images.
type imageFlags struct {
	magic      string
	headerSize string
}

func (f *imageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.magic, "magic", "", "footer magic (required)")
	cmd.Flags().StringVar(&f.headerSize, "header-size", "16KiB", "header region size")
	_ = cmd.MarkFlagRequired("magic")
}

func (f *imageFlags) options() (mstarfw.ImageOptions, error) {
	size, err := mstarfw.ParseSize(f.headerSize)
	if err != nil {
		return mstarfw.ImageOptions{}, fmt.Errorf("--header-size: %w", err)
	}

	return mstarfw.ImageOptions{Magic: f.magic, HeaderSize: size}, nil
}

func newVerifyCommand() *cobra.Command {
	var flags imageFlags
	var listScript bool

	cmd := &cobra.Command{
		Use:   "verify <image>",
		Short: "Check footer checksums and load command ranges of an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}

			img, err := mstarfw.OpenImage(args[0], opts)
			if err != nil {
				return err
			}
			defer func() { _ = img.Close() }()

			if listScript {
				for _, line := range img.Script() {
					fmt.Println(line)
				}
			}

			if err := img.Verify(); err != nil {
				return err
			}

			loads, err := img.LoadCommands()
			if err != nil {
				return err
			}

			footer := img.Footer()
			log.Printf("%s: ok, bin %s, %d load commands, header crc %08X, bin crc %08X",
				args[0], humanize.IBytes(uint64(img.BinSize())), len(loads), footer.HeaderCRC, footer.BinCRC) //nolint:gosec // size is non-negative

			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&listScript, "script", false, "print header script")

	return cmd
}

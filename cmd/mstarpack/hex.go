// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package main

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woozymasta/mstarfw"
)

func newHexCommand() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "hex <image> [output]",
		Short: "Export an image as Intel HEX",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			out := strings.TrimSuffix(args[0], ".bin") + ".hex"
			if len(args) == 2 {
				out = args[1]
			}

			addr, err := mstarfw.ParseSize(base)
			if err != nil || addr > math.MaxUint32 {
				return fmt.Errorf("%w: --base %q", mstarfw.ErrConfiguration, base)
			}

			if err := mstarfw.WriteIntelHex(args[0], out, uint32(addr)); err != nil {
				return err
			}

			log.Printf("wrote %s", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "0", "load address of the first image byte")

	return cmd
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

// Command mstarpack builds and inspects MStar eMMC upgrade images.
package main

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/woozymasta/mstarfw"
)

// Exit codes by error class.
const (
	exitFailure       = 1
	exitConfiguration = 2
	exitUnsupported   = 3
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("mstarpack: ")

	if err := newRootCommand().Execute(); err != nil {
		log.Print(err)
		os.Exit(exitCode(err))
	}
}

// newRootCommand wires all subcommands.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "mstarpack",
		Short:         "Build and inspect MStar eMMC upgrade images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newPackCommand(),
		newVerifyCommand(),
		newHexCommand(),
	)

	return root
}

// exitCode maps error class to process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, mstarfw.ErrUnsupportedLayout):
		return exitUnsupported
	case errors.Is(err, mstarfw.ErrConfiguration):
		return exitConfiguration
	default:
		return exitFailure
	}
}

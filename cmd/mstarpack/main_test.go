// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/mstarfw"
	"gopkg.in/yaml.v3"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{err: errors.New("boom"), want: exitFailure},
		{err: fmt.Errorf("wrap: %w", mstarfw.ErrHeaderOverflow), want: exitConfiguration},
		{err: &mstarfw.PartitionError{Partition: "system", Err: mstarfw.ErrUnsupportedLayout}, want: exitUnsupported},
	}

	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v)=%d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPackVerifyHex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "boot.img"), []byte("boot payload"), 0o600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	manifestPath := filepath.Join(dir, "fw.toml")
	manifest := fmt.Sprintf(`script_firmware_name = "MstarUpgrade.bin"
dram_buf_addr = "0x20200000"
footer_magic = "12345678"

[[partitions]]
name = "boot"
type = "partitionImage"
image_file = %q
`, filepath.Join(dir, "boot.img"))
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	image := filepath.Join(dir, "MstarUpgrade.bin")
	report := filepath.Join(dir, "report.yaml")

	run := func(args ...string) {
		t.Helper()

		root := newRootCommand()
		root.SetArgs(args)
		if err := root.Execute(); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	run("pack", manifestPath, "-o", image, "--report", report, "-q")
	run("verify", image, "--magic", "12345678")
	run("hex", image, filepath.Join(dir, "fw.hex"), "--base", "0x1000")

	data, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}

	var res mstarfw.BuildResult
	if err := yaml.Unmarshal(data, &res); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if res.BinSize != 12 || len(res.Partitions) != 1 {
		t.Fatalf("report=%+v", res)
	}

	if _, err := os.Stat(filepath.Join(dir, "fw.hex")); err != nil {
		t.Fatalf("hex output: %v", err)
	}
}

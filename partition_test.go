// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"errors"
	"testing"
)

func TestParseSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "", want: 0},
		{in: "100", want: 100},
		{in: "0x4000", want: 0x4000},
		{in: "16KB", want: 16 << 10},
		{in: "16kib", want: 16 << 10},
		{in: "150MB", want: 150 << 20},
		{in: "2G", want: 2 << 30},
		{in: "1.5 GiB", want: 3 << 29},
		{in: "-1", wantErr: true},
		{in: "lots", wantErr: true},
	}

	for _, tc := range tests {
		got, err := ParseSize(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidSize) {
				t.Fatalf("ParseSize(%q) err=%v, want ErrInvalidSize", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSize(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseSize(%q)=%d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParsePartitionKind(t *testing.T) {
	t.Parallel()

	tests := map[string]PartitionKind{
		"":               KindUnset,
		"partitionImage": KindPartitionImage,
		"PARTITIONIMAGE": KindPartitionImage,
		"secureInfo":     KindSecureInfo,
		"nuttxConfig":    KindNuttxConfig,
		" sboot ":        KindSboot,
	}
	for in, want := range tests {
		got, err := ParsePartitionKind(in)
		if err != nil {
			t.Fatalf("ParsePartitionKind(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParsePartitionKind(%q)=%s, want %s", in, got, want)
		}
	}

	if _, err := ParsePartitionKind("bootloader"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("unknown kind err=%v, want ErrInvalidKind", err)
	}

	text, err := KindNuttxConfig.MarshalText()
	if err != nil || string(text) != "nuttxConfig" {
		t.Fatalf("MarshalText=%q, %v", text, err)
	}
}

func TestManifestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Manifest {
		return manifestForTest("out", Partition{Name: "boot", Source: "boot.img", Kind: KindPartitionImage})
	}

	tests := []struct {
		name   string
		mutate func(m *Manifest)
		want   error
	}{
		{name: "valid", mutate: func(*Manifest) {}},
		{name: "missing dram", mutate: func(m *Manifest) { m.DRAMBufAddr = "" }, want: ErrMissingField},
		{name: "spaced firmware name", mutate: func(m *Manifest) { m.ScriptFirmwareName = "a b" }, want: ErrConfiguration},
		{name: "empty magic", mutate: func(m *Manifest) { m.FooterMagic = "" }, want: ErrInvalidMagic},
		{name: "tiny header", mutate: func(m *Manifest) { m.HeaderSize = 20 }, want: ErrInvalidSize},
		{name: "oversized header", mutate: func(m *Manifest) { m.HeaderSize = 16 << 30 }, want: ErrInvalidSize},
		{name: "huge header", mutate: func(m *Manifest) { m.HeaderSize = 1 << 50 }, want: ErrInvalidSize},
		{name: "max header", mutate: func(m *Manifest) { m.HeaderSize = MaxHeaderSize }},
		{name: "non-ascii suffix", mutate: func(m *Manifest) { m.HeaderSuffix = "reset ✓" }, want: ErrNonASCII},
		{name: "no partitions", mutate: func(m *Manifest) { m.Partitions = nil }, want: ErrNoPartitions},
		{
			name:   "duplicate",
			mutate: func(m *Manifest) { m.Partitions = append(m.Partitions, m.Partitions[0]) },
			want:   ErrDuplicatePartition,
		},
		{name: "missing source", mutate: func(m *Manifest) { m.Partitions[0].Source = "" }, want: ErrMissingField},
		{name: "negative chunk", mutate: func(m *Manifest) { m.Partitions[0].ChunkSize = -1 }, want: ErrInvalidSize},
		{name: "create without size", mutate: func(m *Manifest) { m.Partitions[0].Create = true }, want: ErrMissingField},
		{
			name: "chunked sboot",
			mutate: func(m *Manifest) {
				m.Partitions[0].Kind = KindSboot
				m.Partitions[0].ChunkSize = 16
			},
			want: ErrConfiguration,
		},
		{name: "bad kind", mutate: func(m *Manifest) { m.Partitions[0].Kind = 42 }, want: ErrInvalidKind},
		{
			name:   "unset kind without source",
			mutate: func(m *Manifest) { m.Partitions[0] = Partition{Name: "cache", Erase: true} },
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			m := valid()
			tc.mutate(m)
			err := m.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				if m.HeaderSize == 0 {
					t.Fatal("HeaderSize default not applied")
				}
				return
			}

			if !errors.Is(err, tc.want) {
				t.Fatalf("Validate err=%v, want %v", err, tc.want)
			}
		})
	}
}

func TestScriptCommands(t *testing.T) {
	t.Parallel()

	s := scriptContext{dramBufAddr: testDRAM, firmwareName: testImgName}
	tests := []struct {
		got  string
		want string
	}{
		{cmdCreatePartition("system", "0x40000000"), "mmc create system 0x40000000"},
		{cmdErasePartition("system"), "mmc erase.p system"},
		{s.load(0x4000, 0x68), "filepartload 0x20200000 MstarUpgrade.bin 4000 68"},
		{s.writeOnce("boot", 0xABC), "mmc write.p 0x20200000 boot ABC 1"},
		{s.unlzo("system", 0x1F0, true), "mmc unlzo 0x20200000 1F0 system 1"},
		{s.unlzo("system", 0x1F0, false), "mmc unlzo.cont 0x20200000 1F0 system 1"},
		{s.storeSecureInfo("tee"), "store_secure_info tee 0x20200000"},
		{s.storeNuttxConfig("nuttx"), "store_nuttx_config nuttx 0x20200000"},
		{s.writeBoot(0x10), "mmc write.boot 1 0x20200000 0 10"},
	}

	for _, tc := range tests {
		if tc.got != tc.want {
			t.Fatalf("command=%q, want %q", tc.got, tc.want)
		}
	}
}

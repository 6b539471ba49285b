// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/woozymasta/mstarfw"
)

const iniManifestForTest = `
[DEFAULT]
ProjectFolder = images

[Main]
FirmwareFileName = out/MstarUpgrade.bin
SCRIPT_FIRMWARE_FILE_NAME = MstarUpgrade.bin
DRAM_BUF_ADDR = 0x20200000
MAGIC_FOOTER = 12345678
HEADER_SIZE = 16KB

[HeaderScript]
Prefix =
    setenv upgrade 1
    saveenv
Suffix =
    reset

[part/sboot]
type = sboot
imageFile = ${ProjectFolder}/sboot.bin

[part/system]
create = true
size = 0x40000000
erase = true
type = partitionImage
imageFile = ${DEFAULT:ProjectFolder}/system.img
chunkSize = 150MB
lzo = true

[part/cache]
erase = yes
`

const yamlManifestForTest = `
output: out/MstarUpgrade.bin
script_firmware_name: MstarUpgrade.bin
dram_buf_addr: 0x20200000
footer_magic: "12345678"
header_size: 16KB
header_script:
  prefix: |-
    setenv upgrade 1
    saveenv
  suffix: reset
partitions:
  - name: sboot
    type: sboot
    image_file: images/sboot.bin
  - name: system
    create: true
    size: 0x40000000
    erase: true
    type: partitionImage
    image_file: images/system.img
    chunk_size: 150MB
    lzo: true
  - name: cache
    erase: true
`

const tomlManifestForTest = `
output = "out/MstarUpgrade.bin"
script_firmware_name = "MstarUpgrade.bin"
dram_buf_addr = "0x20200000"
footer_magic = "12345678"
header_size = "16KB"

[header_script]
prefix = """
setenv upgrade 1
saveenv"""
suffix = "reset"

[[partitions]]
name = "sboot"
type = "sboot"
image_file = "images/sboot.bin"

[[partitions]]
name = "system"
create = true
size = 0x40000000
erase = true
type = "partitionImage"
image_file = "images/system.img"
chunk_size = "150MB"
compress = true

[[partitions]]
name = "cache"
erase = true
`

func wantManifestForTest() *mstarfw.Manifest {
	return &mstarfw.Manifest{
		Output:             "out/MstarUpgrade.bin",
		ScriptFirmwareName: "MstarUpgrade.bin",
		DRAMBufAddr:        "0x20200000",
		FooterMagic:        "12345678",
		HeaderPrefix:       "setenv upgrade 1\nsaveenv",
		HeaderSuffix:       "reset",
		HeaderSize:         16 << 10,
		Partitions: []mstarfw.Partition{
			{Name: "sboot", Source: "images/sboot.bin", Kind: mstarfw.KindSboot},
			{
				Name:      "system",
				Source:    "images/system.img",
				Size:      "0x40000000",
				ChunkSize: 150 << 20,
				Kind:      mstarfw.KindPartitionImage,
				Create:    true,
				Erase:     true,
				Compress:  true,
			},
			{Name: "cache", Erase: true},
		},
	}
}

func TestDecode_FormatsAgree(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		data   string
	}{
		{format: FormatINI, data: iniManifestForTest},
		{format: FormatYAML, data: yamlManifestForTest},
		{format: FormatTOML, data: tomlManifestForTest},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(string(tc.format), func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tc.data), tc.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}

			if diff := cmp.Diff(wantManifestForTest(), got); diff != "" {
				t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format Format
		data   string
		want   error
	}{
		{
			name:   "ini unknown type",
			format: FormatINI,
			data:   "[Main]\nSCRIPT_FIRMWARE_FILE_NAME=a\nDRAM_BUF_ADDR=0x1\nMAGIC_FOOTER=m\n[part/x]\ntype=bogus\n",
			want:   mstarfw.ErrInvalidKind,
		},
		{
			name:   "ini unresolved reference",
			format: FormatINI,
			data:   "[Main]\nSCRIPT_FIRMWARE_FILE_NAME=${Nope}\n",
			want:   mstarfw.ErrMissingField,
		},
		{
			name:   "ini bad boolean",
			format: FormatINI,
			data:   "[Main]\nSCRIPT_FIRMWARE_FILE_NAME=a\n[part/x]\nerase=maybe\n",
			want:   mstarfw.ErrConfiguration,
		},
		{
			name:   "ini missing main",
			format: FormatINI,
			data:   "[part/x]\nerase=1\n",
			want:   mstarfw.ErrMissingField,
		},
		{
			name:   "yaml unknown field",
			format: FormatYAML,
			data:   "output: a\nbogus: 1\n",
			want:   mstarfw.ErrConfiguration,
		},
		{
			name:   "yaml empty",
			format: FormatYAML,
			data:   "",
			want:   mstarfw.ErrNoPartitions,
		},
		{
			name:   "toml bad chunk size",
			format: FormatTOML,
			data:   "[[partitions]]\nname = \"x\"\nchunk_size = \"lots\"\n",
			want:   mstarfw.ErrConfiguration,
		},
		{
			name:   "validation runs",
			format: FormatYAML,
			data:   "script_firmware_name: a\ndram_buf_addr: \"0x1\"\nfooter_magic: m\npartitions: []\n",
			want:   mstarfw.ErrNoPartitions,
		},
		{
			name:   "unknown format",
			format: Format("json"),
			data:   "{}",
			want:   ErrUnknownFormat,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Decode([]byte(tc.data), tc.format); !errors.Is(err, tc.want) {
				t.Fatalf("Decode err=%v, want %v", err, tc.want)
			}
		})
	}
}

func TestINIInterpolation(t *testing.T) {
	t.Parallel()

	data := "[DEFAULT]\nroot = /fw\n[Main]\nSCRIPT_FIRMWARE_FILE_NAME = a\nDRAM_BUF_ADDR = 0x1\n" +
		"MAGIC_FOOTER = m$$m\nFirmwareFileName = ${root}/${Main:SCRIPT_FIRMWARE_FILE_NAME}.bin\n" +
		"[part/x]\nerase = on\n"

	m, err := Decode([]byte(data), FormatINI)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if m.Output != "/fw/a.bin" {
		t.Fatalf("Output=%q, want /fw/a.bin", m.Output)
	}
	if m.FooterMagic != "m$m" {
		t.Fatalf("FooterMagic=%q, want m$m", m.FooterMagic)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "fw.yml")
	if err := os.WriteFile(path, []byte(yamlManifestForTest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Partitions) != 3 {
		t.Fatalf("partitions=%d, want 3", len(m.Partitions))
	}

	if _, err := Load(filepath.Join(dir, "fw.json")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("Load json err=%v, want ErrUnknownFormat", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.ini")); !errors.Is(err, mstarfw.ErrIO) {
		t.Fatalf("Load missing err=%v, want ErrIO", err)
	}
}

func TestParseBool(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]bool{"": false, "Yes": true, "off": false, "1": true, "TRUE": true} {
		got, err := parseBool(in)
		if err != nil || got != want {
			t.Fatalf("parseBool(%q)=%v, %v; want %v", in, got, err, want)
		}
	}
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

// Package manifest loads firmware image manifests into mstarfw.Manifest.
//
// Three encodings are accepted. INI follows the layout of the classic
// MStar packer configs:
//
//	[Main]
//	FirmwareFileName = MstarUpgrade.bin
//	SCRIPT_FIRMWARE_FILE_NAME = MstarUpgrade.bin
//	DRAM_BUF_ADDR = 0x20200000
//	MAGIC_FOOTER = 12345678
//	HEADER_SIZE = 16KB
//
//	[HeaderScript]
//	Prefix =
//	    setenv bootcmd ...
//	Suffix =
//	    reset
//
//	[part/system]
//	create = true
//	size = 0x40000000
//	erase = true
//	type = partitionImage
//	imageFile = ${Main:ProjectFolder}/system.img
//	chunkSize = 150MB
//	lzo = true
//
// Values support ${key} and ${section:key} interpolation. YAML and TOML use
// the same fields in snake_case with a "partitions" list.
//
// Sources named *.hex or *.ihex (any case) are decoded as Intel HEX into a
// contiguous binary with gaps filled by 0xFF before chunking; rename raw
// payloads that happen to carry those extensions.
//
// Relative source paths are kept as written and resolve against the
// working directory of the build.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/mstarfw"
)

// Format identifies manifest encoding.
type Format string

// Supported manifest encodings.
const (
	FormatINI  Format = "ini"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat means the manifest encoding cannot be derived from the file name.
var ErrUnknownFormat = fmt.Errorf("%w: unknown manifest format", mstarfw.ErrConfiguration)

// Load reads and validates the manifest at path. Format is chosen by extension.
func Load(path string) (*mstarfw.Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %w", mstarfw.ErrIO, err)
	}

	return Decode(data, format)
}

// FormatFromPath derives manifest format from file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini", ".cfg", ".conf":
		return FormatINI, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Decode parses manifest bytes of the given format and validates the result.
func Decode(data []byte, format Format) (*mstarfw.Manifest, error) {
	var (
		m   *mstarfw.Manifest
		err error
	)

	switch format {
	case FormatINI:
		m, err = decodeINI(data)
	case FormatYAML:
		m, err = decodeYAML(data)
	case FormatTOML:
		m, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		if !errors.Is(err, mstarfw.ErrConfiguration) {
			err = fmt.Errorf("%w: parse %s manifest: %w", mstarfw.ErrConfiguration, format, err)
		}

		return nil, err
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// document is the shared YAML/TOML manifest schema.
type document struct {
	Output             string            `yaml:"output" toml:"output"`
	ScriptFirmwareName string            `yaml:"script_firmware_name" toml:"script_firmware_name"`
	DRAMBufAddr        sizeText          `yaml:"dram_buf_addr" toml:"dram_buf_addr"`
	FooterMagic        string            `yaml:"footer_magic" toml:"footer_magic"`
	HeaderScript       headerScript      `yaml:"header_script" toml:"header_script"`
	CompressRules      []string          `yaml:"compress_rules" toml:"compress_rules"`
	Partitions         []partitionRecord `yaml:"partitions" toml:"partitions"`
	HeaderSize         sizeValue         `yaml:"header_size" toml:"header_size"`
}

// headerScript holds free-form script text around partition blocks.
type headerScript struct {
	Prefix string `yaml:"prefix" toml:"prefix"`
	Suffix string `yaml:"suffix" toml:"suffix"`
}

// partitionRecord is one YAML/TOML partition entry.
type partitionRecord struct {
	Name      string    `yaml:"name" toml:"name"`
	Type      string    `yaml:"type" toml:"type"`
	ImageFile string    `yaml:"image_file" toml:"image_file"`
	Size      sizeText  `yaml:"size" toml:"size"`
	ChunkSize sizeValue `yaml:"chunk_size" toml:"chunk_size"`
	Create    bool      `yaml:"create" toml:"create"`
	Erase     bool      `yaml:"erase" toml:"erase"`
	Compress  bool      `yaml:"compress" toml:"compress"`
	LZO       bool      `yaml:"lzo" toml:"lzo"`
}

// manifest converts decoded document to mstarfw.Manifest.
func (d *document) manifest() (*mstarfw.Manifest, error) {
	m := &mstarfw.Manifest{
		Output:             d.Output,
		ScriptFirmwareName: d.ScriptFirmwareName,
		DRAMBufAddr:        string(d.DRAMBufAddr),
		FooterMagic:        d.FooterMagic,
		HeaderPrefix:       d.HeaderScript.Prefix,
		HeaderSuffix:       d.HeaderScript.Suffix,
		CompressRules:      d.CompressRules,
		HeaderSize:         int64(d.HeaderSize),
		Partitions:         make([]mstarfw.Partition, 0, len(d.Partitions)),
	}

	for _, rec := range d.Partitions {
		kind, err := mstarfw.ParsePartitionKind(rec.Type)
		if err != nil {
			return nil, &mstarfw.PartitionError{Partition: rec.Name, Err: err}
		}

		m.Partitions = append(m.Partitions, mstarfw.Partition{
			Name:      rec.Name,
			Source:    rec.ImageFile,
			Size:      string(rec.Size),
			ChunkSize: int64(rec.ChunkSize),
			Kind:      kind,
			Create:    rec.Create,
			Erase:     rec.Erase,
			Compress:  rec.Compress || rec.LZO,
		})
	}

	return m, nil
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package mstarfw

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// partitionKindNames maps kinds to manifest type strings.
var partitionKindNames = [...]string{
	KindUnset:          "",
	KindPartitionImage: "partitionImage",
	KindSecureInfo:     "secureInfo",
	KindNuttxConfig:    "nuttxConfig",
	KindSboot:          "sboot",
}

// ParsePartitionKind converts manifest type string to PartitionKind.
// Empty string yields KindUnset.
func ParsePartitionKind(raw string) (PartitionKind, error) {
	raw = strings.TrimSpace(raw)
	for kind, name := range partitionKindNames {
		if strings.EqualFold(raw, name) {
			return PartitionKind(kind), nil
		}
	}

	return KindUnset, fmt.Errorf("%w: %q", ErrInvalidKind, raw)
}

// String returns manifest type string of the kind.
func (k PartitionKind) String() string {
	if int(k) < len(partitionKindNames) {
		if k == KindUnset {
			return "unset"
		}

		return partitionKindNames[k]
	}

	return "PartitionKind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (k PartitionKind) MarshalText() ([]byte, error) {
	if int(k) >= len(partitionKindNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, k)
	}

	return []byte(partitionKindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *PartitionKind) UnmarshalText(text []byte) error {
	kind, err := ParsePartitionKind(string(text))
	if err != nil {
		return err
	}

	*k = kind
	return nil
}

// sizeSuffixes are binary multipliers accepted by ParseSize.
var sizeSuffixes = []struct {
	suffix string
	mult   int64
}{
	{"KIB", 1 << 10}, {"MIB", 1 << 20}, {"GIB", 1 << 30},
	{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30},
	{"K", 1 << 10}, {"M", 1 << 20}, {"G", 1 << 30},
}

// ParseSize parses decimal, 0x-prefixed hex, or 1024-based suffixed size (16KB, 150MiB).
// Empty string yields zero.
func ParseSize(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}

	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %q is negative", ErrInvalidSize, raw)
		}

		return v, nil
	}

	upper := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	for _, sfx := range sizeSuffixes {
		num, ok := strings.CutSuffix(upper, sfx.suffix)
		if !ok || num == "" {
			continue
		}

		v, err := strconv.ParseInt(num, 0, 64)
		if err != nil {
			break
		}
		if v < 0 || v > (1<<62)/sfx.mult {
			return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidSize, raw)
		}

		return v * sfx.mult, nil
	}

	// Fall back to humanize for forms like "1.5 GiB".
	v, err := humanize.ParseBytes(s)
	if err != nil || v > 1<<62 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}

	return int64(v), nil
}

// Validate checks manifest fields and fills defaults. It runs before any
// file is touched so the pipeline never starts on a bad manifest.
func (m *Manifest) Validate() error {
	m.applyDefaults()

	if err := validateScriptToken("script firmware name", m.ScriptFirmwareName); err != nil {
		return err
	}
	if err := validateScriptToken("DRAM buffer address", m.DRAMBufAddr); err != nil {
		return err
	}
	if err := validateFooterMagic(m.FooterMagic); err != nil {
		return err
	}
	if m.HeaderSize < HeaderHeadSize+int64(len(EndOfScriptMarker))+1 {
		return fmt.Errorf("%w: header size %d is too small", ErrInvalidSize, m.HeaderSize)
	}
	if m.HeaderSize > MaxHeaderSize {
		return fmt.Errorf("%w: header size %d exceeds %d", ErrInvalidSize, m.HeaderSize, MaxHeaderSize)
	}
	if !isASCII(m.HeaderPrefix) || !isASCII(m.HeaderSuffix) {
		return ErrNonASCII
	}
	if len(m.Partitions) == 0 {
		return ErrNoPartitions
	}

	seen := make(map[string]struct{}, len(m.Partitions))
	for i := range m.Partitions {
		p := &m.Partitions[i]
		if err := p.validate(); err != nil {
			return &PartitionError{Partition: p.Name, Err: err}
		}

		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicatePartition, p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return nil
}

// validate checks fields of one partition against its kind.
func (p *Partition) validate() error {
	if err := validateScriptToken("name", p.Name); err != nil {
		return err
	}
	if int(p.Kind) >= len(partitionKindNames) {
		return fmt.Errorf("%w: %d", ErrInvalidKind, p.Kind)
	}

	if p.Create {
		if err := validateScriptToken("size", p.Size); err != nil {
			return err
		}
	}

	if p.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size %d is negative", ErrInvalidSize, p.ChunkSize)
	}

	if p.Kind != KindPartitionImage && (p.ChunkSize != 0 || p.Compress) {
		return fmt.Errorf("%w: chunk size and compression apply to %s only, got %s",
			ErrConfiguration, KindPartitionImage, p.Kind)
	}

	if p.Kind != KindUnset && strings.TrimSpace(p.Source) == "" {
		return fmt.Errorf("%w: source", ErrMissingField)
	}

	return nil
}

// validateScriptToken checks a value emitted as a single script argument.
func validateScriptToken(field string, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}

	for i := 0; i < len(value); i++ {
		if value[i] <= ' ' || value[i] >= 0x7f {
			return fmt.Errorf("%w: %s %q must be a single printable ASCII word", ErrConfiguration, field, value)
		}
	}

	return nil
}

// validateFooterMagic checks the footer magic token.
func validateFooterMagic(magic string) error {
	if magic == "" {
		return ErrInvalidMagic
	}

	for i := 0; i < len(magic); i++ {
		if magic[i] < ' ' || magic[i] >= 0x7f {
			return fmt.Errorf("%w: %q", ErrInvalidMagic, magic)
		}
	}

	return nil
}

// isASCII reports whether s contains only 7-bit bytes.
func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}

	return true
}

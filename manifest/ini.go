// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/woozymasta/mstarfw"
	"gopkg.in/ini.v1"
)

// INI section names and the partition section prefix.
const (
	iniSectionMain   = "Main"
	iniSectionScript = "HeaderScript"
	iniPartPrefix    = "part/"
)

// maxInterpolationDepth bounds nested ${...} expansion.
const maxInterpolationDepth = 10

// interpolationPattern matches "$$", "${key}" and "${section:key}".
var interpolationPattern = regexp.MustCompile(`\$\$|\$\{([^}:]+)(?::([^}]+))?\}`)

// iniManifest wraps parsed INI file with interpolation helpers.
type iniManifest struct {
	file *ini.File
}

// decodeINI parses INI manifest in classic packer layout.
func decodeINI(data []byte) (*mstarfw.Manifest, error) {
	file, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
		SpaceBeforeInlineComment:   true,
	}, data)
	if err != nil {
		return nil, err
	}

	doc := &iniManifest{file: file}
	main, err := file.GetSection(iniSectionMain)
	if err != nil {
		return nil, fmt.Errorf("%w: section [%s]", mstarfw.ErrMissingField, iniSectionMain)
	}

	m := &mstarfw.Manifest{}
	fields := []struct {
		key string
		dst *string
	}{
		{"FirmwareFileName", &m.Output},
		{"SCRIPT_FIRMWARE_FILE_NAME", &m.ScriptFirmwareName},
		{"DRAM_BUF_ADDR", &m.DRAMBufAddr},
		{"MAGIC_FOOTER", &m.FooterMagic},
	}
	for _, field := range fields {
		if *field.dst, err = doc.value(main, field.key); err != nil {
			return nil, err
		}
	}

	headerSize, err := doc.value(main, "HEADER_SIZE")
	if err != nil {
		return nil, err
	}
	if m.HeaderSize, err = mstarfw.ParseSize(headerSize); err != nil {
		return nil, fmt.Errorf("HEADER_SIZE: %w", err)
	}

	rules, err := doc.value(main, "CompressRules")
	if err != nil {
		return nil, err
	}
	m.CompressRules = splitList(rules)

	// Script text is taken raw: MBOOT commands may contain "$" sequences.
	if script, err := file.GetSection(iniSectionScript); err == nil {
		m.HeaderPrefix = dedent(script.Key("Prefix").Value())
		m.HeaderSuffix = dedent(script.Key("Suffix").Value())
	}

	for _, sec := range file.Sections() {
		name, ok := strings.CutPrefix(sec.Name(), iniPartPrefix)
		if !ok {
			continue
		}

		p, err := doc.partition(sec, name)
		if err != nil {
			return nil, &mstarfw.PartitionError{Partition: name, Err: err}
		}

		m.Partitions = append(m.Partitions, p)
	}

	return m, nil
}

// partition converts one [part/<name>] section.
func (d *iniManifest) partition(sec *ini.Section, name string) (mstarfw.Partition, error) {
	values := make(map[string]string, 8)
	for _, key := range []string{"create", "size", "erase", "type", "imageFile", "chunkSize", "lzo", "compress"} {
		v, err := d.value(sec, key)
		if err != nil {
			return mstarfw.Partition{}, err
		}

		values[key] = v
	}

	p := mstarfw.Partition{
		Name:   name,
		Size:   values["size"],
		Source: values["imageFile"],
	}

	var err error
	if p.Kind, err = mstarfw.ParsePartitionKind(values["type"]); err != nil {
		return p, err
	}
	if p.ChunkSize, err = mstarfw.ParseSize(values["chunkSize"]); err != nil {
		return p, fmt.Errorf("chunkSize: %w", err)
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"create", &p.Create},
		{"erase", &p.Erase},
		{"lzo", &p.Compress},
	}
	for _, flag := range flags {
		if *flag.dst, err = parseBool(values[flag.key]); err != nil {
			return p, fmt.Errorf("%s: %w", flag.key, err)
		}
	}

	compress, err := parseBool(values["compress"])
	if err != nil {
		return p, fmt.Errorf("compress: %w", err)
	}
	p.Compress = p.Compress || compress

	return p, nil
}

// value returns interpolated value of key in sec, or empty string when absent.
// Keys missing from sec fall back to the DEFAULT section.
func (d *iniManifest) value(sec *ini.Section, key string) (string, error) {
	raw, ok := d.lookup(sec.Name(), key)
	if !ok {
		return "", nil
	}

	return d.interpolate(sec.Name(), raw, 0)
}

// lookup returns raw value of key in section, falling back to DEFAULT.
func (d *iniManifest) lookup(section string, key string) (string, bool) {
	for _, name := range []string{section, ini.DefaultSection} {
		sec, err := d.file.GetSection(name)
		if err != nil {
			continue
		}

		if sec.HasKey(key) {
			return strings.TrimSpace(sec.Key(key).Value()), true
		}
	}

	return "", false
}

// interpolate expands ${key} and ${section:key} references the way Python
// configparser ExtendedInterpolation does; "$$" is a literal "$".
func (d *iniManifest) interpolate(section string, raw string, depth int) (string, error) {
	if depth > maxInterpolationDepth {
		return "", fmt.Errorf("%w: interpolation too deep in [%s]", mstarfw.ErrConfiguration, section)
	}

	var expandErr error
	out := interpolationPattern.ReplaceAllStringFunc(raw, func(match string) string {
		if match == "$$" || expandErr != nil {
			return "$"
		}

		groups := interpolationPattern.FindStringSubmatch(match)
		refSection, refKey := section, groups[1]
		if groups[2] != "" {
			refSection, refKey = groups[1], groups[2]
		}

		value, ok := d.lookup(refSection, refKey)
		if !ok {
			expandErr = fmt.Errorf("%w: unresolved reference %s in [%s]", mstarfw.ErrMissingField, match, section)
			return ""
		}

		expanded, err := d.interpolate(refSection, value, depth+1)
		if err != nil {
			expandErr = err
			return ""
		}

		return expanded
	})
	if expandErr != nil {
		return "", expandErr
	}

	return out, nil
}

// dedent trims indentation that Python style multiline values carry.
func dedent(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}

	return strings.Trim(strings.Join(lines, "\n"), "\n")
}

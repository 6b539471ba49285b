// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package manifest

import (
	"fmt"
	"strings"

	"github.com/woozymasta/mstarfw"
	"gopkg.in/yaml.v3"
)

// sizeValue is a byte count written as number or size string ("150MB").
type sizeValue int64

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *sizeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: size must be a scalar", mstarfw.ErrInvalidSize, node.Line)
	}

	return v.set(node.Value)
}

// UnmarshalTOML implements toml.Unmarshaler.
func (v *sizeValue) UnmarshalTOML(data any) error {
	switch val := data.(type) {
	case int64:
		if val < 0 {
			return fmt.Errorf("%w: %d is negative", mstarfw.ErrInvalidSize, val)
		}

		*v = sizeValue(val)
		return nil
	case string:
		return v.set(val)
	default:
		return fmt.Errorf("%w: unexpected %T", mstarfw.ErrInvalidSize, data)
	}
}

func (v *sizeValue) set(raw string) error {
	n, err := mstarfw.ParseSize(raw)
	if err != nil {
		return err
	}

	*v = sizeValue(n)
	return nil
}

// sizeText is a script argument such as partition size or load address.
// YAML scalars and TOML strings are kept verbatim since MBOOT reads them as
// hex; TOML integers carry only a value and are rendered as 0x-prefixed hex.
type sizeText string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *sizeText) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: value must be a scalar", mstarfw.ErrConfiguration, node.Line)
	}

	*t = sizeText(strings.TrimSpace(node.Value))
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler.
func (t *sizeText) UnmarshalTOML(data any) error {
	switch val := data.(type) {
	case int64:
		if val < 0 {
			return fmt.Errorf("%w: %d is negative", mstarfw.ErrInvalidSize, val)
		}

		*t = sizeText(fmt.Sprintf("0x%X", val))
		return nil
	case string:
		*t = sizeText(strings.TrimSpace(val))
		return nil
	default:
		return fmt.Errorf("%w: unexpected %T", mstarfw.ErrConfiguration, data)
	}
}

// parseBool accepts the boolean spellings of Python configparser; empty is false.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "f", "no", "n", "off":
		return false, nil
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", mstarfw.ErrConfiguration, raw)
	}
}

// splitList splits comma or whitespace separated values.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}

	return fields
}

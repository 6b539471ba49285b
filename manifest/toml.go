// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package manifest

import (
	"github.com/BurntSushi/toml"
	"github.com/woozymasta/mstarfw"
)

// decodeTOML parses TOML manifest with [[partitions]] tables.
func decodeTOML(data []byte) (*mstarfw.Manifest, error) {
	var doc document
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, err
	}

	return doc.manifest()
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/mstarfw

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/woozymasta/mstarfw"
	"gopkg.in/yaml.v3"
)

// decodeYAML parses YAML manifest. Unknown fields are rejected.
func decodeYAML(data []byte) (*mstarfw.Manifest, error) {
	var doc document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty manifest", mstarfw.ErrNoPartitions)
		}

		return nil, err
	}

	return doc.manifest()
}

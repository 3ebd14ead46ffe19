// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package uploadstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/formparse/lib/codec"
)

// ManifestName is the manifest's file name inside a store directory.
const ManifestName = "manifest.cbor"

// manifestVersion is bumped on incompatible changes to Entry.
const manifestVersion = 1

type manifest struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// WriteManifest records entries in the store's manifest, replacing any
// previous one.
func (s *Store) WriteManifest(entries []Entry) error {
	data, err := codec.Marshal(manifest{Version: manifestVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return s.writeAtomic(ManifestName, data)
}

// ReadManifest reads the manifest of the store directory dir.
func ReadManifest(dir string) ([]Entry, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var decoded manifest
	if err := codec.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	if decoded.Version != manifestVersion {
		return nil, fmt.Errorf("manifest version %d is not supported (want %d)", decoded.Version, manifestVersion)
	}
	return decoded.Entries, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for formparse.
//
// Configuration is loaded from a single file specified by either the
// FORMPARSE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. Without a file, [Default] supplies
// every value.
//
// The file has three sections:
//
//	parser:
//	  charset: utf-8
//	  duplicates: last        # or "all"
//	  zero_copy: false
//	  max_parts: 1000
//	  max_header_bytes: 16KiB
//	  max_body_bytes: 64MiB   # 0 disables the limit
//	extract:
//	  directory: ${HOME}/uploads
//	  compression: auto       # none, lz4, zstd, auto
//	output:
//	  format: text            # text, json, cbor
//
// Sizes accept plain integers or human-readable strings ("16KiB",
// "10 MB"). ${VAR} and ${VAR:-default} are expanded in
// extract.directory only.
package config

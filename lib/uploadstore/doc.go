// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package uploadstore extracts the file parts of a parsed form into a
// directory.
//
// Each payload is written under a fresh UUID name that keeps a
// sanitized copy of the client's file extension, so nothing the client
// sends ever becomes a path component. Payloads are optionally
// compressed (LZ4 block or zstd, or picked per upload by content type
// and a zstd trial run), and the store records a keyed BLAKE3 digest
// of the uncompressed bytes for each one. [Store.Load] decompresses and
// verifies that digest.
//
// [Store.WriteManifest] records the saved entries as deterministic
// CBOR in manifest.cbor; [ReadManifest] reads them back, so a
// directory of extracted uploads is self-describing.
package uploadstore

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest computes content digests of uploaded file payloads.
//
// A [Digest] is a 32-byte BLAKE3 hash in keyed mode. The key is a
// fixed domain constant ("formparse.upload"), so an upload digest can
// never collide with a plain BLAKE3 hash of the same bytes computed
// elsewhere.
//
//   - [Sum] hashes an in-memory payload
//   - [SumFile] streams a file through the hash with constant memory
//   - [Digest.String] and [Parse] convert to and from the canonical
//     64-character hex form used in manifests, reports and logs
//
// Digest implements encoding.TextMarshaler, so it serializes as its
// hex string in both JSON and CBOR.
//
// This package has no dependencies on other formparse packages.
package digest

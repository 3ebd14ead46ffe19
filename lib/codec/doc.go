// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the serialization formats formparse writes:
// JSON for reports a person reads or pipes into jq, and CBOR for
// reports and upload manifests that other programs consume.
//
// The CBOR encoder uses Core Deterministic Encoding (RFC 8949 §4.2):
// sorted map keys, smallest integer encoding, no indefinite-length
// items. The same report always produces identical bytes, so a CBOR
// report can be hashed or diffed.
//
// Types that appear in reports carry `json` struct tags only.
// fxamacker/cbor reads `json` tags when `cbor` tags are absent, so one
// tag controls field naming and omitempty in both formats.
//
//	err := codec.Encode(os.Stdout, codec.FormatCBOR, report)
//	text, err := codec.Diagnose(data)
package codec

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package formdata parses multipart/form-data request bodies (RFC 7578)
// into field values and file payloads.
//
// The parser works in a single left-to-right pass over the body:
//
//   - [Scanner] locates delimiter lines ("--boundary") using a
//     Boyer–Moore–Horspool skip search built once per boundary.
//   - The header parser reads each part's CRLF-terminated header block
//     and interprets Content-Disposition and Content-Type.
//   - The part assembler slices the content bytes between the header
//     block and the next delimiter (minus exactly one framing CRLF) and
//     decodes text fields under the configured charset.
//
// A [Parser] is built once for a boundary and is safe for concurrent
// use; each [Parser.Parse] call owns nothing but its own result:
//
//	parser, err := formdata.NewParser(boundary, formdata.Options{})
//	form, err := parser.Parse(body)
//	name := form.Get("name")
//	avatar := form.GetFile("avatar")
//
// Bodies that arrive in pieces are fed to a [Stream], which buffers
// only a partial delimiter between chunks (plus one header block) and
// yields exactly the same [Form] as a whole-buffer parse regardless of
// how the body was split. [Parser.ParseReader] wraps a Stream around
// an io.Reader.
//
// [Writer] and [WriteForm] produce bodies. Their output matches
// mime/multipart.Writer byte for byte and always parses back to the
// form that was written.
//
// # Ownership
//
// By default every value in a [Form] is an owned copy. With
// [Options].ZeroCopy set, file contents are capacity-clipped sub-slices
// of the body and UTF-8 field values share the body's memory. The
// caller must then leave the body unmodified for as long as the form
// is in use.
//
// # Errors
//
// A malformed body aborts the whole parse; there is no partial result.
// Every failure is a [*ParseError] that unwraps to one of the kind
// sentinels ([ErrMissingBoundary], [ErrMalformedHeader],
// [ErrMissingDisposition], [ErrInvalidEncoding], [ErrTruncatedBody],
// [ErrLimitExceeded]), so callers test with errors.Is.
package formdata

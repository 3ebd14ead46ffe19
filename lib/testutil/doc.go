// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for formparse packages.
//
// [BuildBody] assembles a multipart/form-data body byte by byte from
// [Part] values. It deliberately does not use the formdata Writer, so
// parser tests do not depend on the code they check, and it can
// produce bodies the Writer refuses to emit (missing names, odd
// headers, hand-placed padding).
//
// [Chunks] splits a body into fixed-size pieces for streaming tests.
//
// [UniqueBoundary] generates monotonically increasing boundary tokens
// for test disambiguation. Use it instead of random boundaries so that
// failures reproduce.
//
// [RequireReceive] waits for a value from a server goroutine with a
// timeout, so a hung handler fails the test instead of stalling it.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no formparse-internal dependencies.
package testutil

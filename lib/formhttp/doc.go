// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package formhttp connects net/http requests to the formdata parser.
//
// [Boundary] extracts the boundary and optional charset from a
// Content-Type header. [ParseRequest] streams a request body through a
// [formdata.Stream], so a body over Options.MaxBodyBytes is rejected
// as soon as the limit is crossed rather than after it has been
// buffered. [StatusCode] maps the errors of both onto HTTP statuses,
// and [Handler] combines the three for use as an http.Handler.
package formhttp

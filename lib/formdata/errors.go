// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a parse failure.
type ErrorKind uint8

const (
	// KindMissingBoundary: the body does not begin with an opening
	// delimiter for the configured boundary.
	KindMissingBoundary ErrorKind = iota + 1

	// KindMalformedHeader: a header line has no name/value split, an
	// invalid header name, or a parameter value with an unterminated
	// quote.
	KindMalformedHeader

	// KindMissingDisposition: a part has no Content-Disposition header,
	// its disposition type is not form-data, or it has no non-empty name
	// parameter.
	KindMissingDisposition

	// KindInvalidEncoding: a text value cannot be decoded losslessly
	// under its charset.
	KindInvalidEncoding

	// KindTruncatedBody: the body ended before the terminal delimiter.
	KindTruncatedBody

	// KindLimitExceeded: the body, a header block, or the number of
	// parts exceeds a configured limit.
	KindLimitExceeded
)

// Sentinel errors, one per [ErrorKind]. A [*ParseError] unwraps to the
// sentinel of its kind.
var (
	ErrMissingBoundary    = errors.New("formdata: missing boundary")
	ErrMalformedHeader    = errors.New("formdata: malformed header")
	ErrMissingDisposition = errors.New("formdata: missing form-data disposition")
	ErrInvalidEncoding    = errors.New("formdata: invalid encoding")
	ErrTruncatedBody      = errors.New("formdata: truncated body")
	ErrLimitExceeded      = errors.New("formdata: limit exceeded")
)

// String returns the short name of the kind.
func (kind ErrorKind) String() string {
	switch kind {
	case KindMissingBoundary:
		return "missing_boundary"
	case KindMalformedHeader:
		return "malformed_header"
	case KindMissingDisposition:
		return "missing_disposition"
	case KindInvalidEncoding:
		return "invalid_encoding"
	case KindTruncatedBody:
		return "truncated_body"
	case KindLimitExceeded:
		return "limit_exceeded"
	default:
		return fmt.Sprintf("unknown(%d)", kind)
	}
}

func (kind ErrorKind) sentinel() error {
	switch kind {
	case KindMissingBoundary:
		return ErrMissingBoundary
	case KindMalformedHeader:
		return ErrMalformedHeader
	case KindMissingDisposition:
		return ErrMissingDisposition
	case KindInvalidEncoding:
		return ErrInvalidEncoding
	case KindTruncatedBody:
		return ErrTruncatedBody
	case KindLimitExceeded:
		return ErrLimitExceeded
	default:
		return nil
	}
}

// ParseError describes where and why a body was rejected. Callers can
// use errors.Is with the kind sentinels, or errors.As to get the
// position:
//
//	var parseErr *formdata.ParseError
//	if errors.As(err, &parseErr) {
//	    log.Printf("rejected at byte %d of part %d", parseErr.Offset, parseErr.Part)
//	}
type ParseError struct {
	// Kind classifies the failure.
	Kind ErrorKind

	// Offset is the byte offset in the body at which the problem was
	// detected.
	Offset int64

	// Part is the zero-based index of the part being parsed, or -1 when
	// the failure precedes the first part.
	Part int

	// Detail is a human-readable description.
	Detail string
}

func (e *ParseError) Error() string {
	sentinel := e.Kind.sentinel()
	prefix := "formdata: " + e.Kind.String()
	if sentinel != nil {
		prefix = sentinel.Error()
	}
	if e.Part >= 0 {
		return fmt.Sprintf("%s at offset %d (part %d): %s", prefix, e.Offset, e.Part, e.Detail)
	}
	return fmt.Sprintf("%s at offset %d: %s", prefix, e.Offset, e.Detail)
}

// Unwrap returns the sentinel error for the kind.
func (e *ParseError) Unwrap() error { return e.Kind.sentinel() }

// IsKind reports whether err is a [*ParseError] of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Kind == kind
	}
	return false
}

// failure builds a ParseError with an offset relative to the buffer the
// detecting function was given. The state machine rebases Offset and
// fills Part before returning it to the caller.
func failure(kind ErrorKind, offset int, format string, args ...any) *ParseError {
	return &ParseError{
		Kind:   kind,
		Offset: int64(offset),
		Part:   -1,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies command errors so that main can pick the
// exit status without parsing error text.
type ErrorCategory string

const (
	// CategoryUsage indicates the command line itself is wrong:
	// unknown command or flag, wrong argument count, conflicting
	// flags. Exits 2.
	CategoryUsage ErrorCategory = "usage"

	// CategoryValidation indicates the input was read but is invalid:
	// a malformed body, a bad manifest, a failed digest check.
	CategoryValidation ErrorCategory = "validation"

	// CategoryInternal indicates an unexpected failure such as an I/O
	// error.
	CategoryInternal ErrorCategory = "internal"
)

// ToolError is a categorized error returned by commands. It wraps an
// inner error, preserving the chain for errors.Is and errors.As.
type ToolError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Err is the underlying error with the human-readable message.
	Err error

	// Hint is an optional next step printed after the message.
	Hint string
}

// Error returns the underlying message, followed by the hint when one
// is set.
func (e *ToolError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }

// WithHint sets the hint and returns the receiver for chaining.
func (e *ToolError) WithHint(hint string) *ToolError {
	e.Hint = hint
	return e
}

// Usage creates a usage error: the command line is wrong.
func Usage(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryUsage, Err: fmt.Errorf(format, args...)}
}

// Validation creates a validation error: the input is invalid.
func Validation(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure or I/O error.
func Internal(format string, args ...any) *ToolError {
	return &ToolError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}

// ExitCode returns the process exit status for err: 0 for nil, the
// code of anything implementing ExitCode() int, 2 for usage errors,
// and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.Category == CategoryUsage {
		return 2
	}
	return 1
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestToolError_ErrorWithoutHint(t *testing.T) {
	err := Usage("missing required flag --boundary")
	if err.Error() != "missing required flag --boundary" {
		t.Errorf("Error() = %q, want %q", err.Error(), "missing required flag --boundary")
	}
}

func TestToolError_ErrorWithHint(t *testing.T) {
	err := Usage("missing required flag --boundary").
		WithHint("Pass --boundary or --content-type.")

	want := "missing required flag --boundary\n\nPass --boundary or --content-type."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestToolError_HintSurvivesErrorsAs(t *testing.T) {
	inner := Validation("bad body").WithHint("check the boundary")
	wrapped := fmt.Errorf("parse failed: %w", inner)

	var toolErr *ToolError
	if !errors.As(wrapped, &toolErr) {
		t.Fatal("errors.As should find ToolError in wrapped chain")
	}
	if toolErr.Hint != "check the boundary" {
		t.Errorf("Hint = %q after unwrap, want %q", toolErr.Hint, "check the boundary")
	}
}

func TestToolError_UnwrapsInnerError(t *testing.T) {
	sentinel := errors.New("sentinel")
	err := Validation("parsing body.bin: %w", sentinel)
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should see through ToolError")
	}
	if strings.Contains(Internal("unexpected failure").Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"usage", Usage("bad flag"), 2},
		{"wrapped usage", fmt.Errorf("context: %w", Usage("bad flag")), 2},
		{"validation", Validation("bad body"), 1},
		{"internal", Internal("disk full"), 1},
		{"plain", errors.New("plain"), 1},
		{"exit error", &ExitError{Code: 3}, 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Errorf("ExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", "", "warn", "error"} {
		if _, err := ParseLevel(name); err != nil {
			t.Errorf("ParseLevel(%q): %v", name, err)
		}
	}
	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}

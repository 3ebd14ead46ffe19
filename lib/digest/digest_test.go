// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/zeebo/blake3"
)

func TestSumIsKeyed(t *testing.T) {
	content := []byte("<file content>")
	got := Sum(content)

	plain := blake3.Sum256(content)
	if got == Digest(plain) {
		t.Error("Sum equals the unkeyed BLAKE3 hash; domain key not applied")
	}
	if got != Sum(content) {
		t.Error("Sum is not deterministic")
	}
	if got == Sum([]byte("<file content!")) {
		t.Error("different inputs produced the same digest")
	}
}

func TestSumReaderMatchesSum(t *testing.T) {
	content := make([]byte, 256*1024)
	for i := range content {
		content[i] = byte(i % 251)
	}
	got, err := SumReader(bytes.NewReader(content))
	if err != nil {
		t.Fatalf("SumReader: %v", err)
	}
	if got != Sum(content) {
		t.Errorf("SumReader = %s, Sum = %s", got, Sum(content))
	}
}

func TestSumFile(t *testing.T) {
	content := []byte("hello, upload")
	path := filepath.Join(t.TempDir(), "payload")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := SumFile(path)
	if err != nil {
		t.Fatalf("SumFile: %v", err)
	}
	if got != Sum(content) {
		t.Errorf("SumFile = %s, want %s", got, Sum(content))
	}

	if _, err := SumFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("SumFile should fail for a nonexistent file")
	}
}

func TestParseRoundtrip(t *testing.T) {
	original := Sum([]byte("roundtrip"))
	text := original.String()
	if len(text) != 64 {
		t.Fatalf("String() length = %d, want 64", len(text))
	}
	parsed, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if parsed != original {
		t.Errorf("Parse(String()) = %s, want %s", parsed, original)
	}

	var fromText Digest
	marshaled, _ := original.MarshalText()
	if err := fromText.UnmarshalText(marshaled); err != nil || fromText != original {
		t.Errorf("UnmarshalText = %s, %v", fromText, err)
	}
	if original.IsZero() || !(Digest{}).IsZero() {
		t.Error("IsZero misreports")
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "zz", "abcd", Sum(nil).String() + "00"} {
		if _, err := Parse(input); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", input)
		}
	}
}

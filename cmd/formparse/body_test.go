// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/formdata"
)

func TestOpenBodyModes(t *testing.T) {
	body := sampleBody()
	path := writeTemp(t, "body.bin", body)

	mapped, err := openBody(nil, path, false)
	if err != nil {
		t.Fatalf("openBody: %v", err)
	}
	defer mapped.Close()
	if !bytes.Equal(mapped.mapped, body) || mapped.reader != nil {
		t.Error("regular file was not mapped")
	}

	streamed, err := openBody(nil, path, true)
	if err != nil {
		t.Fatalf("openBody --stream: %v", err)
	}
	defer streamed.Close()
	if streamed.mapped != nil || streamed.reader == nil {
		t.Error("--stream mapped the file")
	}

	empty, err := openBody(nil, writeTemp(t, "empty.bin", nil), false)
	if err != nil {
		t.Fatalf("openBody empty: %v", err)
	}
	defer empty.Close()
	parser, err := formdata.NewParser(testBoundary, formdata.Options{})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if _, err := empty.parse(parser); !formdata.IsKind(err, formdata.KindMissingBoundary) {
		t.Errorf("empty body: error = %v, want missing boundary", err)
	}
	if err := empty.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := empty.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// A file truncated while mapped must fail the command, not crash it,
// including when the zero-copy form is read after parsing.
func TestBodyGuardTurnsFaultIntoError(t *testing.T) {
	path := writeTemp(t, "body.bin", sampleBody())
	body, err := openBody(nil, path, false)
	if err != nil {
		t.Fatalf("openBody: %v", err)
	}
	defer body.Close()

	parser, err := formdata.NewParser(testBoundary, formdata.Options{ZeroCopy: true})
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	form, err := body.parse(parser)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := os.Truncate(path, 0); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	var sum byte
	err = body.guard(func() error {
		for _, c := range form.GetFile("report").Content {
			sum += c
		}
		return nil
	})
	if err == nil {
		t.Fatalf("reading a truncated mapping succeeded (checksum %d)", sum)
	}
	if code := cli.ExitCode(err); code != 1 {
		t.Errorf("exit code = %d (%v), want 1", code, err)
	}
}

func TestBodyGuardRepanicsOtherPanics(t *testing.T) {
	path := writeTemp(t, "body.bin", sampleBody())
	body, err := openBody(nil, path, false)
	if err != nil {
		t.Fatalf("openBody: %v", err)
	}
	defer body.Close()

	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v, want the original panic", r)
		}
	}()
	body.guard(func() error { panic("boom") })
	t.Error("guard swallowed a panic")
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/codec"
	"github.com/bureau-foundation/formparse/lib/digest"
	"github.com/bureau-foundation/formparse/lib/testutil"
)

const testBoundary = "XyZ"

func sampleBody() []byte {
	return testutil.BuildBody(testBoundary,
		testutil.Field("title", "Quarterly report"),
		testutil.Field("tag", "red"),
		testutil.FilePart("report", "q3.csv", "text/csv", []byte("region,total\r\nnorth,12\r\n")),
		testutil.FilePart("logo", "logo.png", "image/png", bytes.Repeat([]byte{0x89, 'P', 'N', 'G'}, 64)),
	)
}

// execute runs the command line and returns stdout, stderr, and the
// error. FORMPARSE_CONFIG is cleared so the host environment cannot
// leak in.
func execute(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("FORMPARSE_CONFIG", "")
	var stdout, stderr bytes.Buffer
	err := run(args, bytes.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func decodeJSONReport(t *testing.T, output string) parseReport {
	t.Helper()
	var report parseReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, output)
	}
	return report
}

func TestParseTextReport(t *testing.T) {
	path := writeTemp(t, "body.bin", sampleBody())
	stdout, _, err := execute(t, nil, "parse", "--boundary", testBoundary, path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"Fields (2)", "Files (2)", "Quarterly report", "q3.csv", "text/csv", "boundary: XyZ"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("report missing %q:\n%s", want, stdout)
		}
	}
}

func TestParseInputModesAgree(t *testing.T) {
	body := sampleBody()
	path := writeTemp(t, "body.bin", body)

	runs := map[string][]string{
		"mapped":    {"parse", "-b", testBoundary, "-f", "json", path},
		"zero-copy": {"parse", "-b", testBoundary, "-f", "json", "--zero-copy", path},
		"stream":    {"parse", "-b", testBoundary, "-f", "json", "--stream", path},
		"stdin":     {"parse", "-b", testBoundary, "-f", "json", "-"},
	}
	var reference []byte
	for mode, args := range runs {
		stdout, _, err := execute(t, body, args...)
		if err != nil {
			t.Fatalf("%s: %v", mode, err)
		}
		report := decodeJSONReport(t, stdout)
		if report.Bytes != int64(len(body)) {
			t.Errorf("%s: Bytes = %d, want %d", mode, report.Bytes, len(body))
		}
		report.Source = ""
		normalized, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if reference == nil {
			reference = normalized
			continue
		}
		if !bytes.Equal(normalized, reference) {
			t.Errorf("%s report differs:\n%s\nwant\n%s", mode, normalized, reference)
		}
	}
}

func TestParseReportsFieldContentTypes(t *testing.T) {
	body := testutil.BuildBody(testBoundary,
		testutil.Field("title", "plain"),
		testutil.Part{Name: "meta", ContentType: "application/json", Content: []byte(`{"id":1}`)},
	)
	stdout, _, err := execute(t, body, "parse", "-b", testBoundary, "-f", "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report := decodeJSONReport(t, stdout)
	for _, field := range report.Fields {
		switch field.Name {
		case "title":
			if field.ContentTypes != nil {
				t.Errorf("title content types = %q, want omitted", field.ContentTypes)
			}
		case "meta":
			if len(field.ContentTypes) != 1 || field.ContentTypes[0] != "application/json" {
				t.Errorf("meta content types = %q, want [application/json]", field.ContentTypes)
			}
		}
	}
}

func TestParseJSONReportContents(t *testing.T) {
	stdout, _, err := execute(t, sampleBody(), "parse", "-b", testBoundary, "--format", "json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report := decodeJSONReport(t, stdout)
	if report.Source != "-" || report.Boundary != testBoundary {
		t.Errorf("Source, Boundary = %q, %q", report.Source, report.Boundary)
	}
	if len(report.Fields) != 2 || report.Fields[0].Name != "tag" || report.Fields[1].Values[0] != "Quarterly report" {
		t.Errorf("Fields = %+v", report.Fields)
	}
	if len(report.Files) != 2 {
		t.Fatalf("Files = %+v", report.Files)
	}
	// Files are reported in name order.
	csv := report.Files[1]
	if csv.Name != "report" || csv.Size != 24 || csv.Digest != digest.Sum([]byte("region,total\r\nnorth,12\r\n")) {
		t.Errorf("report file = %+v", csv)
	}
}

func TestParseCBORReport(t *testing.T) {
	var stdout, stderr bytes.Buffer
	t.Setenv("FORMPARSE_CONFIG", "")
	err := run([]string{"parse", "-b", testBoundary, "-f", "cbor"}, bytes.NewReader(sampleBody()), &stdout, &stderr)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var report parseReport
	if err := codec.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(report.Fields) != 2 || len(report.Files) != 2 || report.Boundary != testBoundary {
		t.Errorf("report = %+v", report)
	}

	// The saved report is readable with inspect.
	path := writeTemp(t, "report.cbor", stdout.Bytes())
	notation, _, err := execute(t, nil, "inspect", path)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(notation, `"boundary": "XyZ"`) {
		t.Errorf("diagnostic notation missing boundary:\n%s", notation)
	}
}

func TestParseContentTypeCharset(t *testing.T) {
	body := testutil.BuildBody(testBoundary, testutil.Field("city", "Z\xfcrich"))
	stdout, _, err := execute(t, body, "parse", "-f", "json",
		"--content-type", `multipart/form-data; boundary=XyZ; charset=iso-8859-1`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report := decodeJSONReport(t, stdout)
	if got := report.Fields[0].Values[0]; got != "Zürich" {
		t.Errorf("city = %q, want Zürich", got)
	}

	// An explicit --charset wins over the header parameter.
	_, _, err = execute(t, body, "parse", "-f", "json", "--charset", "utf-8",
		"--content-type", `multipart/form-data; boundary=XyZ; charset=iso-8859-1`)
	if cli.ExitCode(err) != 1 {
		t.Errorf("invalid UTF-8 under --charset utf-8: exit %d (%v), want 1", cli.ExitCode(err), err)
	}
}

func TestParseConfigFile(t *testing.T) {
	configPath := writeTemp(t, "formparse.yaml", []byte("parser:\n  max_parts: 1\noutput:\n  format: json\n"))
	body := sampleBody()

	_, _, err := execute(t, body, "parse", "-b", testBoundary, "--config", configPath)
	if cli.ExitCode(err) != 1 || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("max_parts 1: exit %d (%v), want a limit failure", cli.ExitCode(err), err)
	}

	stdout, _, err := execute(t, body, "parse", "-b", testBoundary, "--config", configPath, "--max-parts", "10")
	if err != nil {
		t.Fatalf("--max-parts override: %v", err)
	}
	// The file's output format still applies.
	decodeJSONReport(t, stdout)
}

func TestParseExitCodes(t *testing.T) {
	path := writeTemp(t, "body.bin", sampleBody())
	malformed := writeTemp(t, "bad.bin", []byte("--XyZ\r\nContent-Type: text/plain\r\n\r\nx\r\n--XyZ--\r\n"))
	truncated := writeTemp(t, "short.bin", testutil.BuildUnterminated(testBoundary, testutil.Field("a", "b")))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"ok", []string{"parse", "-b", testBoundary, path}, 0},
		{"missing disposition", []string{"parse", "-b", testBoundary, malformed}, 1},
		{"truncated", []string{"parse", "-b", testBoundary, truncated}, 1},
		{"wrong boundary", []string{"parse", "-b", "other", path}, 1},
		{"missing file", []string{"parse", "-b", testBoundary, filepath.Join(t.TempDir(), "absent")}, 1},
		{"no boundary", []string{"parse", path}, 2},
		{"two inputs", []string{"parse", "-b", testBoundary, path, path}, 2},
		{"unknown flag", []string{"parse", "--boundry", testBoundary, path}, 2},
		{"boundary and content type", []string{"parse", "-b", testBoundary, "--content-type", "multipart/form-data; boundary=XyZ", path}, 2},
		{"not multipart", []string{"parse", "--content-type", "text/plain", path}, 2},
		{"bad duplicates", []string{"parse", "-b", testBoundary, "--duplicates", "first", path}, 2},
		{"bad size", []string{"parse", "-b", testBoundary, "--max-body-bytes", "lots", path}, 2},
		{"unknown command", []string{"prase"}, 2},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := execute(t, nil, test.args...)
			if got := cli.ExitCode(err); got != test.want {
				t.Errorf("exit code = %d (%v), want %d", got, err, test.want)
			}
		})
	}
}

func TestParseExtractAndVerify(t *testing.T) {
	path := writeTemp(t, "body.bin", sampleBody())
	store := filepath.Join(t.TempDir(), "uploads")

	stdout, _, err := execute(t, nil, "parse", "-b", testBoundary, "-f", "json",
		"--extract", store, "--compress", "auto", path)
	if err != nil {
		t.Fatalf("parse --extract: %v", err)
	}
	report := decodeJSONReport(t, stdout)
	if report.Extracted != store {
		t.Errorf("Extracted = %q, want %q", report.Extracted, store)
	}
	for _, file := range report.Files {
		if file.Stored == "" || file.Compression == "" {
			t.Errorf("file %q was not stored: %+v", file.Name, file)
		}
	}

	verified, _, err := execute(t, nil, "inspect", "--verify", store)
	if err != nil {
		t.Fatalf("inspect --verify: %v", err)
	}
	if strings.Count(verified, "ok ") != 2 {
		t.Errorf("verify output:\n%s", verified)
	}

	notation, _, err := execute(t, nil, "inspect", store)
	if err != nil {
		t.Fatalf("inspect manifest: %v", err)
	}
	if !strings.Contains(notation, report.Files[0].Stored) {
		t.Errorf("manifest notation does not name %q:\n%s", report.Files[0].Stored, notation)
	}

	if err := os.WriteFile(filepath.Join(store, report.Files[0].Stored), []byte("tampered"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	verified, _, err = execute(t, nil, "inspect", "--verify", store)
	if cli.ExitCode(err) != 1 {
		t.Fatalf("verify after tampering: exit %d (%v), want 1", cli.ExitCode(err), err)
	}
	if !strings.Contains(verified, "FAIL") {
		t.Errorf("verify output does not report the failure:\n%s", verified)
	}
}

func TestInspectRejectsInvalidInput(t *testing.T) {
	if _, _, err := execute(t, []byte{0xff, 0xff}, "inspect", "-"); cli.ExitCode(err) != 1 {
		t.Errorf("invalid CBOR: exit %d (%v), want 1", cli.ExitCode(err), err)
	}
	if _, _, err := execute(t, nil, "inspect", "-"); cli.ExitCode(err) != 1 {
		t.Errorf("empty input: exit %d (%v), want 1", cli.ExitCode(err), err)
	}
	file := writeTemp(t, "plain.txt", []byte("x"))
	if _, _, err := execute(t, nil, "inspect", "--verify", file); cli.ExitCode(err) != 2 {
		t.Errorf("--verify on a file: exit %d (%v), want 2", cli.ExitCode(err), err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "q3.csv"), []byte("region,total\r\nnorth,12\r\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	manifest := `{
	  // Built by the test.
	  "boundary": "XyZ",
	  "fields": [
	    {"name": "title", "value": "Quarterly report"},
	  ],
	  "files": [
	    {"name": "report", "path": "q3.csv", "content_type": "text/csv"},
	    {"name": "note", "filename": "note.txt", "content": "inline"},
	  ],
	}`
	manifestPath := filepath.Join(dir, "upload.jsonc")
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	bodyPath := filepath.Join(dir, "body.bin")

	_, stderr, err := execute(t, nil, "encode", "-o", bodyPath, manifestPath)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(stderr, "Content-Type: multipart/form-data; boundary=XyZ") {
		t.Errorf("stderr = %q", stderr)
	}

	stdout, _, err := execute(t, nil, "parse", "-b", testBoundary, "-f", "json", bodyPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report := decodeJSONReport(t, stdout)
	if len(report.Fields) != 1 || report.Fields[0].Values[0] != "Quarterly report" {
		t.Errorf("Fields = %+v", report.Fields)
	}
	if len(report.Files) != 2 || report.Files[0].Filename != "note.txt" || report.Files[1].Filename != "q3.csv" {
		t.Errorf("Files = %+v", report.Files)
	}
	if report.Files[0].ContentType != "application/octet-stream" {
		t.Errorf("inline file content type = %q", report.Files[0].ContentType)
	}
}

func TestEncodeRandomBoundaryToStdout(t *testing.T) {
	manifestPath := writeTemp(t, "m.jsonc", []byte(`{"fields": [{"name": "a", "value": "1"}]}`))
	body, stderr, err := execute(t, nil, "encode", manifestPath)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	_, boundary, found := strings.Cut(strings.TrimSpace(stderr), "boundary=")
	if !found || len(boundary) != 60 {
		t.Fatalf("stderr = %q", stderr)
	}
	if !strings.HasPrefix(body, "--"+boundary+"\r\n") {
		t.Errorf("body does not open with the printed boundary:\n%q", body)
	}
}

func TestEncodeManifestErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":       `{"field": []}`,
		"path and content":  `{"files": [{"name": "f", "path": "x", "content": "y"}]}`,
		"neither":           `{"files": [{"name": "f"}]}`,
		"missing name":      `{"fields": [{"value": "v"}]}`,
		"missing path file": `{"files": [{"name": "f", "path": "absent.bin"}]}`,
		"bad boundary":      `{"boundary": "has\"quote"}`,
		"not json":          `fields: []`,
	}
	for name, manifest := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeTemp(t, "m.jsonc", []byte(manifest))
			if _, _, err := execute(t, nil, "encode", path); cli.ExitCode(err) != 1 {
				t.Errorf("exit %d (%v), want 1", cli.ExitCode(err), err)
			}
		})
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, _, err := execute(t, nil, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var report map[string]any
	if err := json.Unmarshal([]byte(stdout), &report); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	for _, key := range []string{"version", "commit", "go", "platform"} {
		if _, ok := report[key]; !ok {
			t.Errorf("version report missing %q: %s", key, stdout)
		}
	}
	if _, ok := report["digest"]; ok {
		t.Errorf("digest present without --full: %s", stdout)
	}
}

func TestDisplayValue(t *testing.T) {
	long := strings.Repeat("é", maxValueRunes+5)
	tests := []struct {
		value string
		want  string
	}{
		{"plain", "plain"},
		{"", `""`},
		{" padded", `" padded"`},
		{"two\r\nlines", `"two\r\nlines"`},
		{long, strings.Repeat("é", maxValueRunes) + "…"},
	}
	for _, test := range tests {
		if got := displayValue(test.value); got != test.want {
			t.Errorf("displayValue(%q) = %q, want %q", test.value, got, test.want)
		}
	}
}

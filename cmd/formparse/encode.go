// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/formdata"
)

// encodeManifest describes a body to build. It is read as JSON with
// comments and trailing commas.
type encodeManifest struct {
	Boundary string          `json:"boundary"`
	Fields   []manifestField `json:"fields"`
	Files    []manifestFile  `json:"files"`
}

type manifestField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// manifestFile takes its content from Path (relative to the manifest)
// or inline from Content, never both.
type manifestFile struct {
	Name        string  `json:"name"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Path        string  `json:"path"`
	Content     *string `json:"content"`
}

func encodeCommand(std streams) *cli.Command {
	var output, boundary string
	return &cli.Command{
		Name:    "encode",
		Summary: "Build a multipart/form-data body from a manifest",
		Description: `Build a multipart/form-data body from a JSONC manifest.

The manifest lists fields and files in the order they are written:

  {
    "boundary": "XyZ",            // optional; random when omitted
    "fields": [{"name": "title", "value": "Quarterly report"}],
    "files": [
      {"name": "report", "path": "q3.csv", "content_type": "text/csv"},
      {"name": "note", "filename": "note.txt", "content": "inline text"},
    ],
  }

File paths are relative to the manifest's directory. A file's
filename defaults to the base name of its path. The body goes to
--output or stdout; the matching Content-Type header is printed on
stderr.`,
		Usage: "formparse encode [flags] MANIFEST",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("encode", pflag.ContinueOnError)
			flagSet.StringVarP(&output, "output", "o", "-", "file to write the body to (- for stdout)")
			flagSet.StringVarP(&boundary, "boundary", "b", "", "boundary to use, overriding the manifest")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Build a body and parse it back",
				Command:     "formparse encode -o body.bin upload.jsonc && formparse parse -b XyZ body.bin",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return cli.Usage("encode takes exactly one manifest, got %d arguments", len(args))
			}
			return runEncode(std, args[0], output, boundary)
		},
	}
}

func runEncode(std streams, manifestPath, output, boundary string) error {
	manifest, err := readEncodeManifest(manifestPath)
	if err != nil {
		return err
	}
	if boundary == "" {
		boundary = manifest.Boundary
	}
	if boundary == "" {
		boundary = formdata.RandomBoundary()
	}

	// Build in memory so that a bad manifest leaves no partial output.
	var body bytes.Buffer
	writer, err := formdata.NewWriter(&body, boundary)
	if err != nil {
		return cli.Validation("%w", err)
	}
	for _, field := range manifest.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return cli.Validation("field %q: %w", field.Name, err)
		}
	}
	base := filepath.Dir(manifestPath)
	for i, file := range manifest.Files {
		content, filename, err := loadManifestFile(base, file)
		if err != nil {
			return cli.Validation("files[%d]: %w", i, err)
		}
		if err := writer.WriteFile(file.Name, filename, file.ContentType, content); err != nil {
			return cli.Validation("files[%d] (%q): %w", i, file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return cli.Internal("%w", err)
	}

	if err := writeOutput(std.stdout, output, body.Bytes()); err != nil {
		return err
	}
	fmt.Fprintf(std.stderr, "Content-Type: %s\n", writer.FormDataContentType())
	return nil
}

func readEncodeManifest(path string) (*encodeManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cli.Validation("reading manifest: %w", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.DisallowUnknownFields()
	var manifest encodeManifest
	if err := decoder.Decode(&manifest); err != nil {
		return nil, cli.Validation("parsing manifest %s: %w", path, err)
	}
	var problems []error
	for i, field := range manifest.Fields {
		if field.Name == "" {
			problems = append(problems, fmt.Errorf("fields[%d]: name is required", i))
		}
	}
	for i, file := range manifest.Files {
		if file.Name == "" {
			problems = append(problems, fmt.Errorf("files[%d]: name is required", i))
		}
		switch {
		case file.Path == "" && file.Content == nil:
			problems = append(problems, fmt.Errorf("files[%d]: one of path or content is required", i))
		case file.Path != "" && file.Content != nil:
			problems = append(problems, fmt.Errorf("files[%d]: path and content are mutually exclusive", i))
		}
	}
	if err := errors.Join(problems...); err != nil {
		return nil, cli.Validation("invalid manifest %s:\n%w", path, err)
	}
	return &manifest, nil
}

func loadManifestFile(base string, file manifestFile) (content []byte, filename string, err error) {
	filename = file.Filename
	if file.Content != nil {
		return []byte(*file.Content), filename, nil
	}
	path := file.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	content, err = os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	if filename == "" {
		filename = filepath.Base(file.Path)
	}
	return content, filename, nil
}

func writeOutput(stdout io.Writer, output string, data []byte) error {
	if output == "-" || output == "" {
		if _, err := stdout.Write(data); err != nil {
			return cli.Internal("writing body: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return cli.Internal("writing body: %w", err)
	}
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/codec"
	"github.com/bureau-foundation/formparse/lib/config"
	"github.com/bureau-foundation/formparse/lib/digest"
	"github.com/bureau-foundation/formparse/lib/formdata"
	"github.com/bureau-foundation/formparse/lib/formhttp"
	"github.com/bureau-foundation/formparse/lib/uploadstore"
)

type parseParams struct {
	boundary    string
	contentType string
	charset     string
	duplicates  string
	zeroCopy    bool
	stream      bool
	format      string
	extract     string
	compress    string
	maxParts    int
	maxHeader   config.Size
	maxBody     config.Size
	configPath  string
	logLevel    string
}

// parseReport is the machine-readable result of "formparse parse".
type parseReport struct {
	Source    string        `json:"source"`
	Boundary  string        `json:"boundary"`
	Bytes     int64         `json:"bytes"`
	Fields    []fieldReport `json:"fields"`
	Files     []fileReport  `json:"files"`
	Extracted string        `json:"extracted,omitempty"`
}

type fieldReport struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`

	// ContentTypes parallels Values and is omitted when no value's
	// part declared a Content-Type.
	ContentTypes []string `json:"content_types,omitempty"`
}

type fileReport struct {
	Name        string        `json:"name"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	Digest      digest.Digest `json:"digest"`
	Stored      string        `json:"stored,omitempty"`
	StoredSize  int64         `json:"stored_size,omitempty"`
	Compression string        `json:"compression,omitempty"`
}

func parseCommand(std streams) *cli.Command {
	var params parseParams
	var flagSet *pflag.FlagSet

	return &cli.Command{
		Name:    "parse",
		Summary: "Parse a multipart/form-data body",
		Description: `Parse a multipart/form-data body and report its fields and files.

The boundary comes from --boundary, or from the boundary parameter of
--content-type (whose charset parameter also applies). Regular files
are memory-mapped and parsed in place; stdin ("-") and --stream read
the body incrementally with constant carry-over between reads.

Settings are read from --config or FORMPARSE_CONFIG when given; flags
that are set explicitly override the file.`,
		Usage: "formparse parse [flags] FILE|-",
		Flags: func() *pflag.FlagSet {
			flagSet = pflag.NewFlagSet("parse", pflag.ContinueOnError)
			flagSet.StringVarP(&params.boundary, "boundary", "b", "", "delimiter token (without the leading --)")
			flagSet.StringVar(&params.contentType, "content-type", "", "request Content-Type header to take the boundary and charset from")
			flagSet.StringVar(&params.charset, "charset", formdata.DefaultCharset, "charset for text fields (WHATWG label)")
			flagSet.StringVar(&params.duplicates, "duplicates", "last", "duplicate names: last or all")
			flagSet.BoolVar(&params.zeroCopy, "zero-copy", false, "share memory with the mapped body instead of copying")
			flagSet.BoolVar(&params.stream, "stream", false, "read the file incrementally instead of mapping it")
			flagSet.StringVarP(&params.format, "format", "f", "text", "output format: text, json, or cbor")
			flagSet.StringVarP(&params.extract, "extract", "x", "", "directory to extract files into")
			flagSet.StringVar(&params.compress, "compress", "none", "compression for extracted files: none, lz4, zstd, or auto")
			flagSet.IntVar(&params.maxParts, "max-parts", formdata.DefaultMaxParts, "maximum number of parts (negative: unlimited)")
			params.maxHeader = formdata.DefaultMaxHeaderBytes
			flagSet.Var(&sizeValue{&params.maxHeader}, "max-header-bytes", "maximum header block per part, e.g. 16KiB")
			params.maxBody = 0
			flagSet.Var(&sizeValue{&params.maxBody}, "max-body-bytes", "maximum body size, e.g. 64MiB (0: unlimited)")
			flagSet.StringVar(&params.configPath, "config", "", "YAML configuration file")
			flagSet.StringVar(&params.logLevel, "log-level", "warn", "log level: debug, info, warn, or error")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Print the fields and files of a captured body",
				Command:     "formparse parse --boundary XyZ body.bin",
			},
			{
				Description: "Extract uploaded files with per-file compression",
				Command:     "formparse parse -b XyZ --extract uploads --compress auto body.bin",
			},
			{
				Description: "Emit a JSON report from stdin",
				Command:     `formparse parse --content-type "multipart/form-data; boundary=XyZ" --format json -`,
			},
		},
		Run: func(args []string) error {
			return runParse(std, &params, flagSet.Changed, args)
		},
	}
}

// resolveConfig loads the configuration file, if any, and applies the
// flags the user set explicitly.
func resolveConfig(params *parseParams, changed func(string) bool) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case params.configPath != "":
		cfg, err = config.LoadFile(params.configPath)
	case os.Getenv(config.EnvironmentVariable) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, cli.Validation("loading configuration: %w", err)
	}

	if changed("charset") {
		cfg.Parser.Charset = params.charset
	}
	if changed("duplicates") {
		cfg.Parser.Duplicates = params.duplicates
	}
	if changed("zero-copy") {
		cfg.Parser.ZeroCopy = params.zeroCopy
	}
	if changed("max-parts") {
		cfg.Parser.MaxParts = params.maxParts
	}
	if changed("max-header-bytes") {
		cfg.Parser.MaxHeaderBytes = params.maxHeader
	}
	if changed("max-body-bytes") {
		cfg.Parser.MaxBodyBytes = params.maxBody
	}
	if changed("extract") {
		cfg.Extract.Directory = params.extract
	}
	if changed("compress") {
		cfg.Extract.Compression = params.compress
	}
	if changed("format") {
		cfg.Output.Format = params.format
	}

	if err := cfg.Validate(); err != nil {
		return nil, cli.Usage("invalid settings:\n%w", err)
	}
	return cfg, nil
}

func runParse(std streams, params *parseParams, changed func(string) bool, args []string) error {
	if len(args) > 1 {
		return cli.Usage("parse takes one input, got %d", len(args))
	}
	source := "-"
	if len(args) == 1 {
		source = args[0]
	}

	cfg, err := resolveConfig(params, changed)
	if err != nil {
		return err
	}
	level, err := cli.ParseLevel(params.logLevel)
	if err != nil {
		return cli.Usage("%w", err)
	}
	logger := cli.NewCommandLogger(std.stderr, level).With("command", "parse", "source", source)

	options := cfg.ParserOptions()
	options.Logger = logger

	boundary := params.boundary
	if params.contentType != "" {
		if boundary != "" {
			return cli.Usage("--boundary and --content-type are mutually exclusive")
		}
		var charset string
		boundary, charset, err = formhttp.Boundary(params.contentType)
		if err != nil {
			return cli.Usage("--content-type: %w", err)
		}
		if charset != "" && !changed("charset") {
			options.Charset = charset
		}
	}
	if boundary == "" {
		return cli.Usage("no boundary given").
			WithHint("Pass --boundary TOKEN, or --content-type with the request's Content-Type header.")
	}

	format := cfg.Output.Format
	if format == string(codec.FormatCBOR) && cli.IsTerminal(std.stdout) {
		return cli.Usage("refusing to write CBOR to a terminal").
			WithHint("Redirect stdout to a file, or use --format json.")
	}

	parser, err := formdata.NewParser(boundary, options)
	if err != nil {
		return cli.Usage("%w", err)
	}

	body, err := openBody(std.stdin, source, params.stream)
	if err != nil {
		return err
	}
	defer body.Close()

	form, err := body.parse(parser)
	if err != nil {
		return parseFailure(source, err)
	}

	// With --zero-copy the form and report alias the mapped body: they
	// are used only under the fault guard and before the deferred Close
	// unmaps it.
	return body.guard(func() error {
		report := buildReport(source, boundary, body.size(), form)
		if cfg.Extract.Directory != "" {
			if err := extractFiles(cfg, logger, form, &report); err != nil {
				return err
			}
		}
		if format == "text" {
			return renderParseReport(std.stdout, &report, cli.IsTerminal(std.stdout))
		}
		return codec.Encode(std.stdout, codec.Format(format), &report)
	})
}

func parseFailure(source string, err error) error {
	var toolErr *cli.ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	var parseErr *formdata.ParseError
	if !errors.As(err, &parseErr) {
		return cli.Internal("reading %s: %w", source, err)
	}
	toolErr = cli.Validation("parsing %s: %w", source, err)
	switch parseErr.Kind {
	case formdata.KindMissingBoundary:
		toolErr.WithHint("The body must start with the delimiter line --BOUNDARY; check the boundary token.")
	case formdata.KindLimitExceeded:
		toolErr.WithHint("Raise --max-parts, --max-header-bytes, or --max-body-bytes (negative or 0 disables).")
	case formdata.KindInvalidEncoding:
		toolErr.WithHint("Pass --charset with the charset the form was submitted in.")
	}
	return toolErr
}

func buildReport(source, boundary string, size int64, form *formdata.Form) parseReport {
	report := parseReport{
		Source:   source,
		Boundary: boundary,
		Bytes:    size,
		Fields:   []fieldReport{},
		Files:    []fileReport{},
	}
	for _, name := range form.Names() {
		field := fieldReport{Name: name, Values: form.Value[name]}
		for i, header := range form.FieldHeader[name] {
			contentType := header.Get("Content-Type")
			if contentType != "" && field.ContentTypes == nil {
				field.ContentTypes = make([]string, len(form.FieldHeader[name]))
			}
			if field.ContentTypes != nil {
				field.ContentTypes[i] = contentType
			}
		}
		report.Fields = append(report.Fields, field)
	}
	for _, name := range form.FileNames() {
		for _, file := range form.File[name] {
			report.Files = append(report.Files, fileReport{
				Name:        file.Name,
				Filename:    file.Filename,
				ContentType: file.ContentType,
				Size:        file.Size(),
				Digest:      digest.Sum(file.Content),
			})
		}
	}
	return report
}

// extractFiles saves every file of form and records where each went.
// SaveForm walks files in the same order as buildReport.
func extractFiles(cfg *config.Config, logger *slog.Logger, form *formdata.Form, report *parseReport) error {
	store, err := uploadstore.New(uploadstore.Config{
		Directory:   cfg.Extract.Directory,
		Compression: cfg.Extract.Compression,
		Logger:      logger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	entries, err := store.SaveForm(form)
	if err != nil {
		return cli.Internal("extracting files: %w", err)
	}
	if err := store.WriteManifest(entries); err != nil {
		return cli.Internal("writing manifest: %w", err)
	}
	for i, entry := range entries {
		report.Files[i].Stored = entry.Stored
		report.Files[i].StoredSize = entry.StoredSize
		report.Files[i].Compression = entry.Compression.String()
	}
	report.Extracted = store.Directory()
	logger.Info("files extracted", "directory", store.Directory(), "count", len(entries))
	return nil
}

// sizeValue adapts config.Size to pflag.Value so size flags accept
// the same spellings as the configuration file.
type sizeValue struct{ size *config.Size }

func (v *sizeValue) String() string {
	if v.size == nil {
		return "0"
	}
	return v.size.String()
}

func (v *sizeValue) Set(text string) error {
	return v.size.UnmarshalText([]byte(text))
}

func (v *sizeValue) Type() string { return "size" }

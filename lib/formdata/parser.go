// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"fmt"
	"io"
)

// Parser parses multipart/form-data bodies for one boundary. It is
// immutable after construction and safe for concurrent use; every
// call to Parse or NewStream carries its own state.
type Parser struct {
	scanner *Scanner
	charset *textCodec
	options Options

	maxParts       int
	maxHeaderBytes int
	maxBodyBytes   int64
}

// NewParser validates boundary and options and returns a Parser.
// Configuration problems (an empty boundary, a boundary containing a
// line break, an unknown charset label) are reported here, never at
// parse time.
func NewParser(boundary string, options Options) (*Parser, error) {
	scanner, err := NewScanner(boundary)
	if err != nil {
		return nil, err
	}
	charset, err := lookupCharset(options.Charset)
	if err != nil {
		return nil, fmt.Errorf("formdata: %w", err)
	}
	if options.Duplicates != LastWins && options.Duplicates != CollectAll {
		return nil, fmt.Errorf("formdata: invalid duplicate policy %v", options.Duplicates)
	}
	return &Parser{
		scanner:        scanner,
		charset:        charset,
		options:        options,
		maxParts:       options.maxParts(),
		maxHeaderBytes: options.maxHeaderBytes(),
		maxBodyBytes:   options.maxBodyBytes(),
	}, nil
}

// Parse is shorthand for NewParser followed by [Parser.Parse].
func Parse(body []byte, boundary string, options Options) (*Form, error) {
	parser, err := NewParser(boundary, options)
	if err != nil {
		return nil, err
	}
	return parser.Parse(body)
}

// Boundary returns the boundary the parser was built for.
func (p *Parser) Boundary() string { return p.scanner.boundary }

// Parse parses a complete body in one linear pass. With
// Options.ZeroCopy the returned Form may reference body.
func (p *Parser) Parse(body []byte) (*Form, error) {
	if p.maxBodyBytes > 0 && int64(len(body)) > p.maxBodyBytes {
		return nil, &ParseError{
			Kind:   KindLimitExceeded,
			Offset: p.maxBodyBytes,
			Part:   -1,
			Detail: fmt.Sprintf("body of %d bytes exceeds %d", len(body), p.maxBodyBytes),
		}
	}

	machine := p.newMachine(body, true)
	if err := machine.advance(true); err != nil {
		return nil, err
	}
	form, err := machine.result()
	if err != nil {
		return nil, err
	}
	p.logParsed(int64(len(body)), machine.parts, form)
	return form, nil
}

// ParseReader parses a body read from r through a [Stream]. Memory use
// is bounded by the parsed form plus one header block or delimiter of
// carry-over, not by the body size.
func (p *Parser) ParseReader(r io.Reader) (*Form, error) {
	stream := p.NewStream()
	if _, err := io.Copy(stream, r); err != nil {
		if stream.err != nil {
			return nil, stream.err
		}
		return nil, fmt.Errorf("formdata: reading body: %w", err)
	}
	return stream.Finish()
}

func (p *Parser) logParsed(size int64, parts int, form *Form) {
	if p.options.Logger == nil {
		return
	}
	p.options.Logger.Debug("multipart body parsed",
		"bytes", size,
		"parts", parts,
		"fields", len(form.Value),
		"files", len(form.File),
	)
}

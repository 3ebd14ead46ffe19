// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import "bytes"

// contentEnd returns the end of a part's content given the Start of
// the delimiter that closes it. The CRLF right before the delimiter is
// framing and is excluded exactly once. A delimiter found at the very
// first content byte (its line break was the header block terminator)
// leaves nothing to strip.
func contentEnd(buf []byte, contentStart, delimiterStart int) int {
	if delimiterStart-contentStart >= 2 && buf[delimiterStart-2] == '\r' && buf[delimiterStart-1] == '\n' {
		return delimiterStart - 2
	}
	return delimiterStart
}

// assemble turns one part's content into a form entry. With retain set
// the content slice may be kept as is (it is either a zero-copy view
// the caller asked for or a buffer nobody else references); otherwise
// it is copied. Error offsets are relative to the part's content.
func (p *Parser) assemble(form *Form, content []byte, header *partHeader, retain bool) *ParseError {
	if header.isFile {
		data := content[:len(content):len(content)]
		if !retain {
			data = bytes.Clone(content)
		}
		if data == nil {
			data = []byte{}
		}
		contentType := header.contentType
		if contentType == "" {
			contentType = DefaultFileContentType
		}
		form.addFile(&File{
			Name:        header.name,
			Filename:    header.filename,
			ContentType: contentType,
			Header:      header.header,
			Content:     data,
		}, p.options.Duplicates)
		return nil
	}

	codec := p.charset
	if header.charset != "" {
		var err error
		codec, err = lookupCharset(header.charset)
		if err != nil {
			return failure(KindInvalidEncoding, 0, "field %q: %v", header.name, err)
		}
	}
	value, err := codec.decode(content, retain)
	if err != nil {
		return failure(KindInvalidEncoding, 0, "field %q: %v", header.name, err)
	}
	form.addValue(header.name, value, header.header, p.options.Duplicates)
	return nil
}

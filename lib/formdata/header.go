// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"bytes"
	"net/textproto"
	"strings"
)

// partHeader is the interpreted header block of one part.
type partHeader struct {
	header      textproto.MIMEHeader
	name        string
	filename    string
	isFile      bool
	contentType string
	charset     string
}

// tokenTable marks the RFC 7230 tchar bytes allowed in header names.
var tokenTable = func() [256]bool {
	var table [256]bool
	for c := 'a'; c <= 'z'; c++ {
		table[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		table[c] = true
	}
	for c := '0'; c <= '9'; c++ {
		table[c] = true
	}
	for _, c := range []byte("!#$%&'*+-.^_`|~") {
		table[c] = true
	}
	return table
}()

// parseHeaders reads the CRLF-terminated header lines that start at
// start, up to and including the empty line that ends the block, and
// returns the interpreted header with the offset of the first content
// byte. A contentStart of -1 with a nil error means the block is not
// complete yet and more input is needed (only when final is unset).
// Error offsets are relative to buf.
func parseHeaders(buf []byte, start, limit int, final bool) (partHeader, int, *ParseError) {
	header := make(textproto.MIMEHeader, 2)
	lastKey := ""
	pos := start
	for {
		eol := bytes.Index(buf[pos:], crlf)
		if eol < 0 {
			if limit > 0 && len(buf)-start > limit {
				return partHeader{}, 0, failure(KindLimitExceeded, start, "header block exceeds %d bytes", limit)
			}
			if final {
				return partHeader{}, 0, failure(KindTruncatedBody, len(buf), "body ends inside a header block")
			}
			return partHeader{}, -1, nil
		}
		eol += pos
		if limit > 0 && eol+2-start > limit {
			return partHeader{}, 0, failure(KindLimitExceeded, start, "header block exceeds %d bytes", limit)
		}

		line := buf[pos:eol]
		lineStart := pos
		pos = eol + 2
		if len(line) == 0 {
			break
		}
		// A bare CR or LF would hide the rest of the line inside the
		// previous header's value.
		if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
			return partHeader{}, 0, failure(KindMalformedHeader, lineStart+i, "header line %q contains a bare line break", truncateForError(line))
		}

		// obs-fold: a line starting with whitespace continues the
		// previous header value.
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey == "" {
				return partHeader{}, 0, failure(KindMalformedHeader, lineStart, "continuation line before any header")
			}
			values := header[lastKey]
			values[len(values)-1] += " " + strings.TrimSpace(string(line))
			continue
		}

		colon := bytes.IndexByte(line, ':')
		if colon <= 0 {
			return partHeader{}, 0, failure(KindMalformedHeader, lineStart, "header line %q has no name: value split", truncateForError(line))
		}
		for _, c := range line[:colon] {
			if !tokenTable[c] {
				return partHeader{}, 0, failure(KindMalformedHeader, lineStart, "invalid header name %q", truncateForError(line[:colon]))
			}
		}

		key := textproto.CanonicalMIMEHeaderKey(string(line[:colon]))
		value := strings.Trim(string(line[colon+1:]), " \t")
		header[key] = append(header[key], value)
		lastKey = key
	}

	interpreted, err := interpretHeader(header)
	if err != nil {
		err.Offset = int64(start)
		return partHeader{}, 0, err
	}
	return interpreted, pos, nil
}

// interpretHeader extracts the form-data name, file marker and content
// type from a parsed header block.
func interpretHeader(header textproto.MIMEHeader) (partHeader, *ParseError) {
	dispositions := header["Content-Disposition"]
	if len(dispositions) == 0 {
		return partHeader{}, failure(KindMissingDisposition, 0, "part has no Content-Disposition header")
	}
	if len(dispositions) > 1 {
		return partHeader{}, failure(KindMalformedHeader, 0, "part has %d Content-Disposition headers", len(dispositions))
	}

	dispositionType, params, err := parseHeaderValue(dispositions[0])
	if err != nil {
		return partHeader{}, failure(KindMalformedHeader, 0, "Content-Disposition: %v", err)
	}
	if !strings.EqualFold(dispositionType, "form-data") {
		return partHeader{}, failure(KindMissingDisposition, 0, "disposition type %q is not form-data", dispositionType)
	}

	result := partHeader{
		header:      header,
		name:        params["name"],
		contentType: header.Get("Content-Type"),
	}
	if result.name == "" {
		return partHeader{}, failure(KindMissingDisposition, 0, "Content-Disposition has no name parameter")
	}

	if extended, ok := params["filename*"]; ok {
		filename, parseErr := decodeExtendedValue(extended)
		if parseErr != nil {
			return partHeader{}, parseErr
		}
		result.filename, result.isFile = filename, true
	} else if filename, ok := params["filename"]; ok {
		result.filename, result.isFile = filename, true
	}

	if !result.isFile && result.contentType != "" {
		_, typeParams, err := parseHeaderValue(result.contentType)
		if err != nil {
			return partHeader{}, failure(KindMalformedHeader, 0, "Content-Type: %v", err)
		}
		result.charset = typeParams["charset"]
	}
	return result, nil
}

func truncateForError(b []byte) string {
	const limit = 64
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}

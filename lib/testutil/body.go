// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"fmt"
	"slices"
)

// Part describes one part of a test body. Disposition, when set,
// replaces the Content-Disposition value that would otherwise be built
// from Name and Filename. Header entries are written after the
// disposition in sorted key order.
type Part struct {
	Name        string
	Filename    string
	IsFile      bool
	ContentType string
	Disposition string
	Header      map[string]string
	Content     []byte
}

// Field returns a text field part.
func Field(name, value string) Part {
	return Part{Name: name, Content: []byte(value)}
}

// FilePart returns a file part.
func FilePart(name, filename, contentType string, content []byte) Part {
	return Part{Name: name, Filename: filename, IsFile: true, ContentType: contentType, Content: content}
}

// BuildBody assembles a complete body: an opening delimiter, each
// part's headers and content, and the terminal delimiter followed by
// CRLF.
//
//	body := testutil.BuildBody("b0und",
//	    testutil.Field("title", "hello"),
//	    testutil.FilePart("doc", "a.txt", "text/plain", []byte("hi")))
func BuildBody(boundary string, parts ...Part) []byte {
	var body bytes.Buffer
	for i, part := range parts {
		if i > 0 {
			body.WriteString("\r\n")
		}
		fmt.Fprintf(&body, "--%s\r\n", boundary)
		writePartHeader(&body, part)
		body.WriteString("\r\n")
		body.Write(part.Content)
	}
	if len(parts) > 0 {
		body.WriteString("\r\n")
	}
	fmt.Fprintf(&body, "--%s--\r\n", boundary)
	return body.Bytes()
}

// BuildUnterminated assembles a body like BuildBody but stops right
// after the last part's content, with no terminal delimiter.
func BuildUnterminated(boundary string, parts ...Part) []byte {
	body := BuildBody(boundary, parts...)
	terminal := len("\r\n--" + boundary + "--\r\n")
	if len(parts) == 0 {
		terminal -= 2
	}
	return body[:len(body)-terminal]
}

func writePartHeader(body *bytes.Buffer, part Part) {
	disposition := part.Disposition
	if disposition == "" {
		disposition = fmt.Sprintf("form-data; name=%q", part.Name)
		if part.IsFile {
			disposition += fmt.Sprintf("; filename=%q", part.Filename)
		}
	}
	fmt.Fprintf(body, "Content-Disposition: %s\r\n", disposition)
	if part.ContentType != "" {
		fmt.Fprintf(body, "Content-Type: %s\r\n", part.ContentType)
	}

	keys := make([]string, 0, len(part.Header))
	for key := range part.Header {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(body, "%s: %s\r\n", key, part.Header[key])
	}
}

// Chunks splits body into consecutive pieces of size bytes (the last
// may be shorter). A size below 1 is treated as 1.
func Chunks(body []byte, size int) [][]byte {
	if size < 1 {
		size = 1
	}
	chunks := make([][]byte, 0, len(body)/size+1)
	for len(body) > size {
		chunks = append(chunks, body[:size:size])
		body = body[size:]
	}
	if len(body) > 0 {
		chunks = append(chunks, body)
	}
	return chunks
}

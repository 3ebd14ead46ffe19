// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/textproto"
	"slices"
	"strings"
)

// ErrDelimiterInContent is returned by the Writer for a part whose
// content would be read back as a delimiter line.
var ErrDelimiterInContent = errors.New("formdata: content contains a delimiter line")

var errWriterClosed = errors.New("formdata: write to closed Writer")

// Writer serializes a form as a multipart/form-data body. Its output
// is byte-identical to mime/multipart.Writer for the same parts and
// boundary, and always parses back to the parts that were written.
type Writer struct {
	w       io.Writer
	scanner *Scanner
	parts   int
	closed  bool
}

// NewWriter returns a Writer that emits parts separated by boundary.
// The boundary must satisfy RFC 2046: 1 to 70 characters from the
// bchars set, not ending in a space.
func NewWriter(w io.Writer, boundary string) (*Writer, error) {
	if err := validateWriterBoundary(boundary); err != nil {
		return nil, err
	}
	scanner, err := NewScanner(boundary)
	if err != nil {
		return nil, err
	}
	return &Writer{w: w, scanner: scanner}, nil
}

func validateWriterBoundary(boundary string) error {
	if len(boundary) < 1 || len(boundary) > 70 {
		return fmt.Errorf("%w: length %d outside 1..70", ErrInvalidBoundary, len(boundary))
	}
	last := len(boundary) - 1
	for i := 0; i < len(boundary); i++ {
		b := boundary[i]
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?':
			continue
		case ' ':
			if i != last {
				continue
			}
		}
		return fmt.Errorf("%w: character %q at %d", ErrInvalidBoundary, b, i)
	}
	return nil
}

// RandomBoundary returns a fresh 60-character hexadecimal boundary.
func RandomBoundary() string {
	var buf [30]byte
	// crypto/rand.Read never returns an error.
	rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// Boundary returns the writer's boundary.
func (w *Writer) Boundary() string { return w.scanner.boundary }

// FormDataContentType returns the Content-Type header value for the
// body, quoting the boundary when needed.
func (w *Writer) FormDataContentType() string {
	return mime.FormatMediaType("multipart/form-data", map[string]string{"boundary": w.scanner.boundary})
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// WriteField writes a text field.
func (w *Writer) WriteField(name, value string) error {
	header := make(textproto.MIMEHeader, 1)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"`, escapeQuotes(name)))
	return w.WritePart(header, []byte(value))
}

// WriteFile writes a file part. An empty contentType is written as
// DefaultFileContentType.
func (w *Writer) WriteFile(name, filename, contentType string, content []byte) error {
	if contentType == "" {
		contentType = DefaultFileContentType
	}
	header := make(textproto.MIMEHeader, 2)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(filename)))
	header.Set("Content-Type", contentType)
	return w.WritePart(header, content)
}

// WritePart writes one part with the given header, in sorted key
// order, and content. The header must describe a form-data part; it is
// not interpreted here.
func (w *Writer) WritePart(header textproto.MIMEHeader, content []byte) error {
	if w.closed {
		return errWriterClosed
	}
	if err := w.checkContent(content); err != nil {
		return err
	}

	var b strings.Builder
	if w.parts > 0 {
		b.WriteString("\r\n")
	}
	b.WriteString("--")
	b.WriteString(w.scanner.boundary)
	b.WriteString("\r\n")

	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		for _, value := range header[key] {
			if strings.ContainsAny(key, "\r\n:") || strings.ContainsAny(value, "\r\n") {
				return fmt.Errorf("formdata: header %q contains a line break", key)
			}
			fmt.Fprintf(&b, "%s: %s\r\n", key, value)
		}
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w.w, b.String()); err != nil {
		return err
	}
	if _, err := w.w.Write(content); err != nil {
		return err
	}
	w.parts++
	return nil
}

// checkContent rejects content that the parser would split: a
// delimiter line anywhere inside it, including one completed by the
// CRLF that frames the following delimiter.
func (w *Writer) checkContent(content []byte) error {
	framed := make([]byte, 0, len(content)+2)
	framed = append(framed, content...)
	framed = append(framed, crlf...)
	if _, status, _ := w.scanner.scan(framed, 0, true, true); status == scanFound {
		return ErrDelimiterInContent
	}
	return nil
}

// Close writes the terminal delimiter. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := io.WriteString(w.w, "\r\n--"+w.scanner.boundary+"--\r\n")
	return err
}

// WriteForm serializes form under boundary: fields first, then files,
// each in sorted name order and, within a name, in slice order. Files
// keep their original header when it carries a Content-Disposition;
// fields do too unless it names a charset other than UTF-8. Field
// values are written as UTF-8, so a form parsed under another default
// charset re-parses to the same values only under UTF-8.
func WriteForm(w io.Writer, boundary string, form *Form) error {
	writer, err := NewWriter(w, boundary)
	if err != nil {
		return err
	}
	for _, name := range form.Names() {
		for i, value := range form.Value[name] {
			if header := reusableFieldHeader(form, name, i); header != nil {
				err = writer.WritePart(header, []byte(value))
			} else {
				err = writer.WriteField(name, value)
			}
			if err != nil {
				return fmt.Errorf("writing field %q: %w", name, err)
			}
		}
	}
	for _, name := range form.FileNames() {
		for _, file := range form.File[name] {
			if file.Header.Get("Content-Disposition") != "" {
				err = writer.WritePart(file.Header, file.Content)
			} else {
				err = writer.WriteFile(name, file.Filename, file.ContentType, file.Content)
			}
			if err != nil {
				return fmt.Errorf("writing file %q: %w", name, err)
			}
		}
	}
	return writer.Close()
}

// reusableFieldHeader returns the parsed header of Value[name][i] when
// it still describes the value once written as UTF-8.
func reusableFieldHeader(form *Form, name string, i int) textproto.MIMEHeader {
	headers := form.FieldHeader[name]
	if len(headers) != len(form.Value[name]) {
		return nil
	}
	header := headers[i]
	if header.Get("Content-Disposition") == "" {
		return nil
	}
	if contentType := header.Get("Content-Type"); contentType != "" {
		_, params, err := mime.ParseMediaType(contentType)
		if err != nil {
			return nil
		}
		if charset, ok := params["charset"]; ok && !strings.EqualFold(charset, "utf-8") {
			return nil
		}
	}
	return header
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/textproto"
	"slices"
	"strings"
)

var (
	// ErrNoField is returned by [Form.JSON] for a name with no value.
	ErrNoField = errors.New("formdata: no such field")

	// ErrNotJSON is returned by [Form.JSON] for a field whose declared
	// Content-Type is not a JSON media type.
	ErrNotJSON = errors.New("formdata: field is not JSON")
)

// Form is the result of parsing one body. Every part lands in exactly
// one of the two maps: parts with a filename parameter in File, all
// others in Value. Under [LastWins] each slice holds one element; under
// [CollectAll] slices keep submission order.
//
// FieldHeader runs parallel to Value: FieldHeader[name][i] holds every
// header of the part that produced Value[name][i].
type Form struct {
	Value       map[string][]string
	FieldHeader map[string][]textproto.MIMEHeader
	File        map[string][]*File
}

// File is one file-bearing part.
type File struct {
	// Name is the form field name.
	Name string

	// Filename is the client-supplied file name, decoded from filename*
	// when present. It may be empty and is not sanitized.
	Filename string

	// ContentType is the part's Content-Type, or
	// DefaultFileContentType when absent.
	ContentType string

	// Header holds every header of the part, keyed canonically.
	Header textproto.MIMEHeader

	// Content is the file payload. With Options.ZeroCopy it is a
	// capacity-clipped view into the parsed body.
	Content []byte
}

// Size returns the payload length in bytes.
func (f *File) Size() int64 { return int64(len(f.Content)) }

// Reader returns a reader over the payload.
func (f *File) Reader() *bytes.Reader { return bytes.NewReader(f.Content) }

func newForm() *Form {
	return &Form{
		Value:       make(map[string][]string),
		FieldHeader: make(map[string][]textproto.MIMEHeader),
		File:        make(map[string][]*File),
	}
}

// Get returns the last value submitted for name, or "".
func (f *Form) Get(name string) string {
	values := f.Value[name]
	if len(values) == 0 {
		return ""
	}
	return values[len(values)-1]
}

// Header returns the headers of the part behind Get(name), or nil.
func (f *Form) Header(name string) textproto.MIMEHeader {
	headers := f.FieldHeader[name]
	if len(headers) == 0 {
		return nil
	}
	return headers[len(headers)-1]
}

// JSON decodes the last value submitted for name into v. A field that
// declares a Content-Type must declare application/json or a +json
// suffix type; a field without one is decoded as is.
func (f *Form) JSON(name string, v any) error {
	values := f.Value[name]
	if len(values) == 0 {
		return fmt.Errorf("%w: %q", ErrNoField, name)
	}
	if contentType := f.Header(name).Get("Content-Type"); contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil || !isJSONMediaType(mediaType) {
			return fmt.Errorf("%w: %q has Content-Type %q", ErrNotJSON, name, contentType)
		}
	}
	if err := json.Unmarshal([]byte(values[len(values)-1]), v); err != nil {
		return fmt.Errorf("formdata: decoding field %q: %w", name, err)
	}
	return nil
}

func isJSONMediaType(mediaType string) bool {
	return mediaType == "application/json" ||
		strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// GetFile returns the last file submitted for name, or nil.
func (f *Form) GetFile(name string) *File {
	files := f.File[name]
	if len(files) == 0 {
		return nil
	}
	return files[len(files)-1]
}

// Names returns the field names in sorted order.
func (f *Form) Names() []string {
	return sortedKeys(f.Value)
}

// FileNames returns the names of file fields in sorted order.
func (f *Form) FileNames() []string {
	return sortedKeys(f.File)
}

func (f *Form) addValue(name, value string, header textproto.MIMEHeader, policy DuplicatePolicy) {
	if policy == CollectAll {
		f.Value[name] = append(f.Value[name], value)
		f.FieldHeader[name] = append(f.FieldHeader[name], header)
		return
	}
	if values := f.Value[name]; len(values) == 1 {
		values[0] = value
		f.FieldHeader[name][0] = header
		return
	}
	f.Value[name] = []string{value}
	f.FieldHeader[name] = []textproto.MIMEHeader{header}
}

func (f *Form) addFile(file *File, policy DuplicatePolicy) {
	if policy == CollectAll {
		f.File[file.Name] = append(f.File[file.Name], file)
		return
	}
	if files := f.File[file.Name]; len(files) == 1 {
		files[0] = file
		return
	}
	f.File[file.Name] = []*File{file}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

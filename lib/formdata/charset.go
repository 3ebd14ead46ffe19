// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
	"unsafe"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// textCodec decodes text content under one charset. A nil encoding
// means UTF-8, which is validated in place instead of transcoded.
type textCodec struct {
	name     string
	encoding encoding.Encoding
}

var utf8Codec = &textCodec{name: "utf-8"}

// lookupCharset resolves a WHATWG encoding label ("utf-8", "latin1",
// "windows-1252", "shift_jis", ...). An empty label means UTF-8.
func lookupCharset(label string) (*textCodec, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return utf8Codec, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	if name == "utf-8" {
		return utf8Codec, nil
	}
	return &textCodec{name: name, encoding: enc}, nil
}

// CanonicalCharset returns the WHATWG name for an encoding label, or
// an error when the label is unknown. An empty label is "utf-8".
func CanonicalCharset(label string) (string, error) {
	codec, err := lookupCharset(label)
	if err != nil {
		return "", err
	}
	return codec.name, nil
}

// decode converts content to a string. Decoding is lossless or it
// fails: UTF-8 must be valid, and any other charset must re-encode to
// exactly the input bytes. With share set, a UTF-8 result aliases
// content instead of copying it.
func (c *textCodec) decode(content []byte, share bool) (string, error) {
	if c.encoding == nil {
		if !utf8.Valid(content) {
			return "", fmt.Errorf("content is not valid %s", c.name)
		}
		if share {
			return aliasString(content), nil
		}
		return string(content), nil
	}

	decoded, err := c.encoding.NewDecoder().Bytes(content)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", c.name, err)
	}
	reencoded, err := c.encoding.NewEncoder().Bytes(decoded)
	if err != nil || !bytes.Equal(reencoded, content) {
		return "", fmt.Errorf("content is not valid %s", c.name)
	}
	return string(decoded), nil
}

// aliasString returns a string sharing b's memory.
func aliasString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}

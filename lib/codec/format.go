// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"encoding/json"
	"fmt"
	"io"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatCBOR:
		return Format(name), nil
	default:
		return "", fmt.Errorf("unknown format %q (want %q or %q)", name, FormatJSON, FormatCBOR)
	}
}

// Binary reports whether the format is unsuitable for a terminal.
func (f Format) Binary() bool { return f == FormatCBOR }

// Encode writes v to w. JSON output is indented and ends with a
// newline; CBOR output is a single deterministic data item.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case FormatCBOR:
		data, err := Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("codec: unknown format %q", format)
	}
}

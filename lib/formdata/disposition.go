// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var errUnterminatedQuote = errors.New("unterminated quoted parameter")

// parseHeaderValue splits a structured header value such as
//
//	form-data; name="avatar"; filename="michael.jpg"
//	text/plain; charset=iso-8859-1
//
// into its leading token and a parameter map with lower-cased names.
// Quoted values may use double or single quotes; a backslash escapes
// the next character. Parameters without "=" are ignored. A repeated
// parameter or an unterminated quote is an error.
func parseHeaderValue(value string) (string, map[string]string, error) {
	semicolon := strings.IndexByte(value, ';')
	if semicolon < 0 {
		return strings.TrimSpace(value), nil, nil
	}
	token := strings.TrimSpace(value[:semicolon])
	rest := value[semicolon:]

	params := make(map[string]string, 2)
	for {
		rest = strings.TrimLeft(rest, " \t")
		if rest == "" {
			break
		}
		if rest[0] == ';' {
			rest = rest[1:]
			continue
		}

		separator := strings.IndexAny(rest, "=;")
		if separator < 0 {
			break
		}
		if rest[separator] == ';' {
			rest = rest[separator:]
			continue
		}

		key := strings.ToLower(strings.TrimSpace(rest[:separator]))
		if key == "" {
			return "", nil, fmt.Errorf("parameter with empty name in %q", value)
		}
		rest = strings.TrimLeft(rest[separator+1:], " \t")

		var parameter string
		if rest != "" && (rest[0] == '"' || rest[0] == '\'') {
			var err error
			parameter, rest, err = consumeQuoted(rest)
			if err != nil {
				return "", nil, fmt.Errorf("parameter %q: %w", key, err)
			}
		} else {
			end := strings.IndexByte(rest, ';')
			if end < 0 {
				end = len(rest)
			}
			parameter = strings.TrimRight(rest[:end], " \t")
			rest = rest[end:]
		}

		if _, exists := params[key]; exists {
			return "", nil, fmt.Errorf("parameter %q repeated", key)
		}
		params[key] = parameter
	}
	return token, params, nil
}

// consumeQuoted reads a quoted string starting at s[0] (the opening
// quote) and returns its unescaped value and the remainder after the
// closing quote.
func consumeQuoted(s string) (string, string, error) {
	quote := s[0]
	end := -1
	escaped := false
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			escaped = true
			i++
			continue
		}
		if s[i] == quote {
			end = i
			break
		}
	}
	if end < 0 {
		return "", "", errUnterminatedQuote
	}
	if !escaped {
		return s[1:end], s[end+1:], nil
	}

	var builder strings.Builder
	builder.Grow(end - 1)
	for i := 1; i < end; i++ {
		if s[i] == '\\' {
			i++
		}
		builder.WriteByte(s[i])
	}
	return builder.String(), s[end+1:], nil
}

// decodeExtendedValue decodes an RFC 5987 ext-value
// (charset'language'percent-encoded), as sent in filename*. An empty
// charset means UTF-8; the language tag is ignored.
func decodeExtendedValue(value string) (string, *ParseError) {
	fields := strings.SplitN(value, "'", 3)
	if len(fields) != 3 {
		return "", failure(KindMalformedHeader, 0, "extended parameter value %q lacks charset'language' prefix", value)
	}
	raw, err := url.PathUnescape(fields[2])
	if err != nil {
		return "", failure(KindMalformedHeader, 0, "extended parameter value %q: %v", value, err)
	}
	codec, err := lookupCharset(fields[0])
	if err != nil {
		return "", failure(KindInvalidEncoding, 0, "extended parameter value: %v", err)
	}
	decoded, err := codec.decode([]byte(raw), false)
	if err != nil {
		return "", failure(KindInvalidEncoding, 0, "extended parameter value: %v", err)
	}
	return decoded, nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"fmt"
	"log/slog"
)

const (
	// DefaultCharset is used for text fields when neither the caller
	// nor the part's own Content-Type names a charset.
	DefaultCharset = "utf-8"

	// DefaultMaxParts bounds the number of parts in one body when
	// Options.MaxParts is zero.
	DefaultMaxParts = 1000

	// DefaultMaxHeaderBytes bounds one part's header block (including
	// the terminating empty line) when Options.MaxHeaderBytes is zero.
	DefaultMaxHeaderBytes = 16 << 10

	// DefaultFileContentType is reported for file parts that carry no
	// Content-Type header.
	DefaultFileContentType = "application/octet-stream"
)

// DuplicatePolicy selects what happens when several parts share a
// field name.
type DuplicatePolicy uint8

const (
	// LastWins keeps only the final occurrence of each name. This is
	// the default and matches the behavior of most web frameworks.
	LastWins DuplicatePolicy = iota

	// CollectAll keeps every occurrence, in submission order.
	CollectAll
)

// String returns the configuration spelling of the policy.
func (policy DuplicatePolicy) String() string {
	switch policy {
	case LastWins:
		return "last"
	case CollectAll:
		return "all"
	default:
		return fmt.Sprintf("unknown(%d)", policy)
	}
}

// ParseDuplicatePolicy parses "last" or "all".
func ParseDuplicatePolicy(name string) (DuplicatePolicy, error) {
	switch name {
	case "last", "":
		return LastWins, nil
	case "all":
		return CollectAll, nil
	default:
		return 0, fmt.Errorf("unknown duplicate policy %q (want \"last\" or \"all\")", name)
	}
}

// Options configures a [Parser]. The zero value is ready to use: UTF-8
// text, last-write-wins duplicates, owned copies, default limits.
type Options struct {
	// Charset is the WHATWG label used to decode text fields. A part
	// whose Content-Type carries a charset parameter overrides it.
	// Empty means UTF-8.
	Charset string

	// Duplicates selects the duplicate-name policy for both fields and
	// files.
	Duplicates DuplicatePolicy

	// ZeroCopy makes file contents and UTF-8 field values share memory
	// with the body passed to [Parser.Parse] instead of copying. The
	// body must not be modified while the resulting Form is in use.
	// Streamed parses always produce owned values.
	ZeroCopy bool

	// MaxParts bounds the number of parts. Zero means DefaultMaxParts;
	// negative means unlimited.
	MaxParts int

	// MaxHeaderBytes bounds each part's header block. Zero means
	// DefaultMaxHeaderBytes; negative means unlimited.
	MaxHeaderBytes int

	// MaxBodyBytes bounds the whole body. Zero or negative means
	// unlimited.
	MaxBodyBytes int64

	// Logger receives one debug record per completed parse. Nil
	// disables logging.
	Logger *slog.Logger
}

func (options Options) maxParts() int {
	switch {
	case options.MaxParts == 0:
		return DefaultMaxParts
	case options.MaxParts < 0:
		return 0
	default:
		return options.MaxParts
	}
}

func (options Options) maxHeaderBytes() int {
	switch {
	case options.MaxHeaderBytes == 0:
		return DefaultMaxHeaderBytes
	case options.MaxHeaderBytes < 0:
		return 0
	default:
		return options.MaxHeaderBytes
	}
}

func (options Options) maxBodyBytes() int64 {
	if options.MaxBodyBytes < 0 {
		return 0
	}
	return options.MaxBodyBytes
}

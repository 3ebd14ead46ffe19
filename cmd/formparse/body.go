// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"io"
	"os"
	"runtime/debug"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/formparse/cmd/formparse/cli"
	"github.com/bureau-foundation/formparse/lib/formdata"
)

// bodySource is the input of one parse: either a read-only memory
// map of a regular file, parsed in place, or a reader that is
// streamed.
type bodySource struct {
	name   string
	file   *os.File
	mapped []byte
	reader *countingReader
}

// openBody opens source ("-" for stdin). Regular files are mapped
// unless stream is set; pipes and devices are always streamed.
func openBody(stdin io.Reader, source string, stream bool) (*bodySource, error) {
	if source == "-" {
		return &bodySource{name: "stdin", reader: &countingReader{reader: stdin}}, nil
	}
	file, err := os.Open(source)
	if err != nil {
		return nil, cli.Validation("opening body: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, cli.Internal("stating %s: %w", source, err)
	}
	body := &bodySource{name: source, file: file}
	switch {
	case stream || !info.Mode().IsRegular():
		body.reader = &countingReader{reader: file}
	case info.Size() == 0:
		// mmap rejects empty mappings.
		body.mapped = []byte{}
	default:
		data, err := unix.Mmap(int(file.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
		if err != nil {
			file.Close()
			return nil, cli.Internal("memory-mapping %s: %w", source, err)
		}
		// The parser reads front to back exactly once.
		_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
		body.mapped = data
	}
	return body, nil
}

func (b *bodySource) parse(parser *formdata.Parser) (*formdata.Form, error) {
	if b.reader != nil {
		return parser.ParseReader(b.reader)
	}
	var form *formdata.Form
	err := b.guard(func() error {
		var err error
		form, err = parser.Parse(b.mapped)
		return err
	})
	return form, err
}

// guard runs fn, which may read the mapped body or anything a
// zero-copy parse derived from it. A file truncated underneath the
// mapping raises SIGBUS on access; inside guard that becomes an error
// instead of a crash. Streamed bodies are in ordinary memory and fn
// runs unguarded.
func (b *bodySource) guard(fn func() error) (err error) {
	if b.mapped == nil {
		return fn()
	}
	old := debug.SetPanicOnFault(true)
	defer func() {
		debug.SetPanicOnFault(old)
		if r := recover(); r != nil {
			fault, ok := r.(interface{ Addr() uintptr })
			if !ok {
				panic(r)
			}
			err = cli.Validation("%s changed while mapped: fault at %#x", b.name, fault.Addr())
		}
	}()
	return fn()
}

// size returns the number of body bytes parsed.
func (b *bodySource) size() int64 {
	if b.reader != nil {
		return b.reader.count
	}
	return int64(len(b.mapped))
}

// Close unmaps the body and closes the file. Nothing derived from a
// zero-copy parse may be used afterwards.
func (b *bodySource) Close() error {
	var errs []error
	if len(b.mapped) > 0 {
		errs = append(errs, unix.Munmap(b.mapped))
		b.mapped = nil
	}
	if b.file != nil {
		errs = append(errs, b.file.Close())
		b.file = nil
	}
	return errors.Join(errs...)
}

type countingReader struct {
	reader io.Reader
	count  int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.count += int64(n)
	return n, err
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"errors"
	"fmt"
)

var errStreamFinished = errors.New("formdata: write after Finish")

// Stream parses a body delivered in chunks. It implements io.Writer,
// so a body can be copied into it from any reader:
//
//	stream := parser.NewStream()
//	if _, err := io.Copy(stream, request.Body); err != nil {
//	    return err
//	}
//	form, err := stream.Finish()
//
// Between writes the stream holds fewer than len("\r\n--"+boundary)
// bytes of content that may still belong to a delimiter, or an
// incomplete header block (at most MaxHeaderBytes). A boundary
// followed by transport padding that has not yet been classified is
// kept as a fixed-size record, not as raw bytes. The result is the same for every way of splitting the
// body into chunks. Values are always owned copies; ZeroCopy has no
// effect on a Stream.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	machine  machine
	received int64
	err      error
	finished bool
}

// NewStream starts an incremental parse.
func (p *Parser) NewStream() *Stream {
	return &Stream{machine: p.newMachine(nil, false)}
}

// Write feeds the next chunk of the body. Once the stream has failed,
// every later Write returns the same error. Bytes after the terminal
// delimiter are accepted and ignored.
func (s *Stream) Write(chunk []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	if s.finished {
		return 0, errStreamFinished
	}

	parser := s.machine.parser
	s.received += int64(len(chunk))
	if limit := parser.maxBodyBytes; limit > 0 && s.received > limit {
		s.machine.state = stateFailed
		s.err = &ParseError{
			Kind:   KindLimitExceeded,
			Offset: limit,
			Part:   -1,
			Detail: fmt.Sprintf("body exceeds %d bytes", limit),
		}
		return 0, s.err
	}
	if s.machine.state == stateTerminal {
		return len(chunk), nil
	}

	s.machine.compact()
	s.machine.unstash()
	s.machine.buf = append(s.machine.buf, chunk...)
	if err := s.machine.advance(false); err != nil {
		s.err = err
		return 0, err
	}
	s.machine.stash()
	return len(chunk), nil
}

// Finish marks the end of the body and returns the parsed form.
func (s *Stream) Finish() (*Form, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.finished {
		return nil, fmt.Errorf("formdata: Finish called twice")
	}
	s.finished = true

	s.machine.unstash()
	if err := s.machine.advance(true); err != nil {
		s.err = err
		return nil, err
	}
	form, err := s.machine.result()
	if err != nil {
		s.err = err
		return nil, err
	}
	s.machine.parser.logParsed(s.received, s.machine.parts, form)
	return form, nil
}

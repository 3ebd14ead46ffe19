// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

// parseState is the position of the parser in the body grammar:
//
//	opening-delimiter *( headers content delimiter ) terminal
type parseState uint8

const (
	stateOpening parseState = iota + 1
	stateHeaders
	stateContent
	stateTerminal
	stateFailed
)

// machine drives one parse. It is shared by whole-buffer parsing (buf
// is the caller's body, advanced once with final set) and streaming
// (buf holds unconsumed input, advanced after every chunk).
type machine struct {
	parser *Parser
	form   *Form
	state  parseState

	// buf[pos:] is input not yet consumed; base is the body offset of
	// buf[0].
	buf  []byte
	pos  int
	base int64

	// borrowed is set when buf is the caller's complete body, so
	// content slices may be handed out as views.
	borrowed bool

	// parts counts completed parts; it is also the index of the part
	// being parsed.
	parts int

	header partHeader

	// contentOffset is the body offset of the current part's first
	// content byte.
	contentOffset int64

	// atPartStart is set until the first content byte of the current
	// part has been consumed.
	atPartStart bool

	// content accumulates the current part's bytes when they arrive
	// over several chunks. Nil while the part is still entirely in buf.
	content []byte

	// pending stands in for an undecided delimiter candidate that was
	// cut from the end of buf between writes.
	pending pendingTail
}

func (p *Parser) newMachine(buf []byte, borrowed bool) machine {
	return machine{
		parser:   p,
		form:     newForm(),
		state:    stateOpening,
		buf:      buf,
		borrowed: borrowed,
	}
}

// advance consumes as much of buf as the grammar allows. With final
// unset it returns nil when it needs more input; with final set the
// buffer is all there is, and advance ends in stateTerminal or fails.
func (m *machine) advance(final bool) error {
	scanner := m.parser.scanner
	for {
		switch m.state {
		case stateOpening:
			delimiter, status := scanner.opening(m.buf[m.pos:], final)
			switch status {
			case scanPartial:
				return nil
			case scanNone:
				return m.fail(failure(KindMissingBoundary, m.pos, "body does not begin with the delimiter --%s", scanner.boundary))
			}
			m.pos += delimiter.End
			m.state = stateHeaders
			if delimiter.Terminal {
				m.state = stateTerminal
			}

		case stateHeaders:
			if limit := m.parser.maxParts; limit > 0 && m.parts >= limit {
				return m.fail(failure(KindLimitExceeded, m.pos, "body has more than %d parts", limit))
			}
			header, contentStart, err := parseHeaders(m.buf, m.pos, m.parser.maxHeaderBytes, final)
			if err != nil {
				return m.fail(err)
			}
			if contentStart < 0 {
				return nil
			}
			m.header = header
			m.pos = contentStart
			m.contentOffset = m.base + int64(contentStart)
			m.atPartStart = true
			m.state = stateContent

		case stateContent:
			delimiter, status, keep := scanner.scan(m.buf, m.pos, m.atPartStart, final)
			switch status {
			case scanNone:
				return m.fail(failure(KindTruncatedBody, len(m.buf), "body ends before the delimiter closing part %q", m.header.name))
			case scanPartial:
				if keep > m.pos {
					m.content = append(m.content, m.buf[m.pos:keep]...)
					m.pos = keep
					m.atPartStart = false
				}
				return nil
			}

			end := contentEnd(m.buf, m.pos, delimiter.Start)
			content := m.buf[m.pos:end]
			retain := m.borrowed && m.parser.options.ZeroCopy
			if m.content != nil {
				content = append(m.content, content...)
				retain = true
				m.content = nil
			}
			if err := m.parser.assemble(m.form, content, &m.header, retain); err != nil {
				err.Offset += m.contentOffset - m.base
				return m.fail(err)
			}
			m.header = partHeader{}
			m.parts++
			m.pos = delimiter.End
			m.state = stateHeaders
			if delimiter.Terminal {
				m.state = stateTerminal
			}

		case stateTerminal:
			// Everything after the terminal delimiter is epilogue.
			m.pos = len(m.buf)
			return nil

		default:
			return nil
		}
	}
}

// fail rebases err onto body offsets, records the part index, and
// stops the machine.
func (m *machine) fail(err *ParseError) error {
	err.Offset += m.base
	if m.state != stateOpening {
		err.Part = m.parts
	}
	m.state = stateFailed
	return err
}

// compact drops consumed input so that buf holds only what a
// delimiter or header block still needs.
func (m *machine) compact() {
	if m.pos == 0 {
		return
	}
	n := copy(m.buf, m.buf[m.pos:])
	m.buf = m.buf[:n]
	m.base += int64(m.pos)
	m.pos = 0
}

// stash cuts an undecided delimiter candidate off the end of buf and
// keeps its compact form instead, so transport padding after a
// boundary is not buffered while the stream waits for input.
func (m *machine) stash() {
	if m.state != stateContent && m.state != stateOpening {
		return
	}
	if m.pending.encode(m.parser.scanner, m.buf[m.pos:]) {
		m.buf = m.buf[:m.pos]
	}
}

// unstash puts a stashed candidate back at the end of buf, byte for
// byte, before more input is appended.
func (m *machine) unstash() {
	if !m.pending.active {
		return
	}
	m.buf = m.pending.appendTo(m.buf, m.parser.scanner)
	m.pending = pendingTail{}
}

// result returns the form once the terminal delimiter was reached.
func (m *machine) result() (*Form, error) {
	if m.state != stateTerminal {
		return nil, m.fail(failure(KindTruncatedBody, len(m.buf), "body ends before the terminal delimiter"))
	}
	return m.form, nil
}

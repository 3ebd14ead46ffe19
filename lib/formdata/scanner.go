// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package formdata

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// maxTransportPadding bounds the run of spaces and tabs accepted
// between a boundary and the line break that ends its delimiter line.
// A longer run means the match is content, not a delimiter.
const maxTransportPadding = 64

// ErrInvalidBoundary is returned by constructors for an empty boundary
// or one containing a line break.
var ErrInvalidBoundary = errors.New("formdata: invalid boundary")

var crlf = []byte("\r\n")

// Delimiter is one delimiter line found in a body.
type Delimiter struct {
	// Start is the offset of the "--" that begins "--boundary". When the
	// delimiter follows content, the CRLF at Start-2 is framing that
	// belongs to the delimiter.
	Start int

	// End is the offset just past the delimiter line: past its CRLF for
	// an inter-part delimiter, past the trailing "--", padding and CRLF
	// (when present) for the terminal one.
	End int

	// Terminal is set for the closing "--boundary--" delimiter.
	Terminal bool
}

type scanStatus uint8

const (
	// scanNone: no delimiter in a complete buffer.
	scanNone scanStatus = iota
	// scanFound: a delimiter was classified.
	scanFound
	// scanPartial: more input is needed; bytes from the returned index
	// onward may belong to a delimiter and must be kept.
	scanPartial
)

type verdict uint8

const (
	notDelimiter verdict = iota
	isDelimiter
	undecided
)

// Scanner finds delimiter lines for one boundary. The skip table is
// computed once, so a Scanner should be reused for every body that
// shares the boundary. A Scanner is immutable and safe for concurrent
// use.
type Scanner struct {
	boundary string
	dash     []byte // "--" + boundary
	pattern  []byte // "\r\n--" + boundary
	skip     [256]int
}

// NewScanner builds a scanner for boundary.
func NewScanner(boundary string) (*Scanner, error) {
	if err := validateBoundary(boundary); err != nil {
		return nil, err
	}

	scanner := &Scanner{
		boundary: boundary,
		pattern:  []byte("\r\n--" + boundary),
	}
	scanner.dash = scanner.pattern[2:]

	length := len(scanner.pattern)
	last := length - 1
	for i := range scanner.skip {
		scanner.skip[i] = length
	}
	for i := 0; i < last; i++ {
		scanner.skip[scanner.pattern[i]] = last - i
	}
	return scanner, nil
}

func validateBoundary(boundary string) error {
	if boundary == "" {
		return fmt.Errorf("%w: boundary is empty", ErrInvalidBoundary)
	}
	if strings.ContainsAny(boundary, "\r\n") {
		return fmt.Errorf("%w: boundary %q contains a line break", ErrInvalidBoundary, boundary)
	}
	return nil
}

// Boundary returns the boundary token the scanner searches for.
func (s *Scanner) Boundary() string { return s.boundary }

// Find returns the first delimiter at or after start in a complete
// buffer. Only delimiters at a line start count: "\r\n--boundary"
// anywhere, or "--boundary" when start is 0.
func (s *Scanner) Find(buf []byte, start int) (Delimiter, bool) {
	delimiter, status, _ := s.scan(buf, start, start == 0, true)
	return delimiter, status == scanFound
}

// index returns the offset of the first occurrence of s.pattern in buf
// at or after from, or -1.
func (s *Scanner) index(buf []byte, from int) int {
	length := len(s.pattern)
	last := length - 1
	tail := s.pattern[last]
	for i := from; i+length <= len(buf); {
		c := buf[i+last]
		if c == tail && bytes.Equal(buf[i:i+last], s.pattern[:last]) {
			return i
		}
		i += s.skip[c]
	}
	return -1
}

// scan looks for the next delimiter at or after start. lineStart
// reports that start is itself the beginning of a line, so a bare
// "--boundary" there also counts. With final set the buffer is the
// whole remaining input and the result is never scanPartial.
func (s *Scanner) scan(buf []byte, start int, lineStart, final bool) (Delimiter, scanStatus, int) {
	if lineStart {
		rest := buf[start:]
		if len(rest) < len(s.dash) {
			if !final && bytes.HasPrefix(s.dash, rest) {
				return Delimiter{}, scanPartial, start
			}
		} else if bytes.HasPrefix(rest, s.dash) {
			end, terminal, result := classifyTail(buf, start+len(s.dash), final)
			switch result {
			case isDelimiter:
				return Delimiter{Start: start, End: end, Terminal: terminal}, scanFound, 0
			case undecided:
				return Delimiter{}, scanPartial, start
			}
		}
	}

	from := start
	for {
		i := s.index(buf, from)
		if i < 0 {
			break
		}
		end, terminal, result := classifyTail(buf, i+len(s.pattern), final)
		switch result {
		case isDelimiter:
			return Delimiter{Start: i + 2, End: end, Terminal: terminal}, scanFound, 0
		case undecided:
			return Delimiter{}, scanPartial, i
		}
		from = i + 1
	}

	if final {
		return Delimiter{}, scanNone, 0
	}
	return Delimiter{}, scanPartial, s.partialSuffix(buf, from)
}

// partialSuffix returns the offset of the longest suffix of buf that
// is a proper prefix of the pattern, or len(buf). At most
// len(pattern)-1 bytes are ever kept.
func (s *Scanner) partialSuffix(buf []byte, from int) int {
	i := len(buf) - len(s.pattern) + 1
	if i < from {
		i = from
	}
	for ; i < len(buf); i++ {
		if buf[i] == '\r' && bytes.HasPrefix(s.pattern, buf[i:]) {
			return i
		}
	}
	return len(buf)
}

// opening checks that buf begins with the opening delimiter,
// optionally preceded by a single CRLF.
func (s *Scanner) opening(buf []byte, final bool) (Delimiter, scanStatus) {
	start := 0
	if bytes.HasPrefix(buf, crlf) {
		start = 2
	} else if len(buf) == 1 && buf[0] == '\r' {
		if final {
			return Delimiter{}, scanNone
		}
		return Delimiter{}, scanPartial
	}

	rest := buf[start:]
	if len(rest) < len(s.dash) {
		if !final && bytes.HasPrefix(s.dash, rest) {
			return Delimiter{}, scanPartial
		}
		return Delimiter{}, scanNone
	}
	if !bytes.HasPrefix(rest, s.dash) {
		return Delimiter{}, scanNone
	}

	end, terminal, result := classifyTail(buf, start+len(s.dash), final)
	switch result {
	case isDelimiter:
		return Delimiter{Start: start, End: end, Terminal: terminal}, scanFound
	case undecided:
		return Delimiter{}, scanPartial
	default:
		return Delimiter{}, scanNone
	}
}

// classifyTail decides what follows a matched "--boundary" at offset
// p: "--" with optional padding then CRLF or end of input is the
// terminal delimiter; optional padding then CRLF is an inter-part
// delimiter; anything else is content.
func classifyTail(buf []byte, p int, final bool) (int, bool, verdict) {
	n := len(buf)
	if p < n && buf[p] == '-' {
		if p+1 == n {
			if final {
				return 0, false, notDelimiter
			}
			return 0, false, undecided
		}
		if buf[p+1] != '-' {
			return 0, false, notDelimiter
		}
		q, ok := skipPadding(buf, p+2)
		if !ok {
			return 0, false, notDelimiter
		}
		switch {
		case q == n:
			if final {
				return n, true, isDelimiter
			}
			return 0, false, undecided
		case buf[q] != '\r':
			return 0, false, notDelimiter
		case q+1 == n:
			if final {
				return n, true, isDelimiter
			}
			return 0, false, undecided
		case buf[q+1] != '\n':
			return 0, false, notDelimiter
		}
		return q + 2, true, isDelimiter
	}

	q, ok := skipPadding(buf, p)
	if !ok {
		return 0, false, notDelimiter
	}
	switch {
	case q == n || (buf[q] == '\r' && q+1 == n):
		if final {
			return 0, false, notDelimiter
		}
		return 0, false, undecided
	case buf[q] != '\r' || buf[q+1] != '\n':
		return 0, false, notDelimiter
	}
	return q + 2, false, isDelimiter
}

func skipPadding(buf []byte, p int) (int, bool) {
	q := p
	for q < len(buf) && (buf[q] == ' ' || buf[q] == '\t') {
		q++
		if q-p > maxTransportPadding {
			return q, false
		}
	}
	return q, true
}

// pendingTail is an undecided delimiter candidate at the end of a
// stream buffer, reduced to the bits needed to rebuild it. The
// candidate is "\r\n--boundary" (or "--boundary" at a line start),
// then up to two dashes, at most maxTransportPadding spaces and tabs,
// and possibly a CR: nothing else can leave classifyTail undecided.
type pendingTail struct {
	active  bool
	crlf    bool // the candidate starts with the CRLF of s.pattern
	dashes  uint8
	padding uint8
	tabs    uint64 // bit i is set when padding byte i is a tab
	cr      bool
}

// encode records candidate, the unconsumed end of a buffer. It reports
// false when candidate is not a complete boundary followed by an
// encodable tail; such bytes stay in the buffer as they are.
func (t *pendingTail) encode(s *Scanner, candidate []byte) bool {
	*t = pendingTail{}
	switch {
	case bytes.HasPrefix(candidate, s.pattern):
		t.crlf = true
		candidate = candidate[len(s.pattern):]
	case bytes.HasPrefix(candidate, s.dash):
		candidate = candidate[len(s.dash):]
	default:
		return false
	}

	i := 0
	for i < len(candidate) && i < 2 && candidate[i] == '-' {
		i++
	}
	t.dashes = uint8(i)
	for ; i < len(candidate) && (candidate[i] == ' ' || candidate[i] == '\t'); i++ {
		n := i - int(t.dashes)
		if n >= maxTransportPadding {
			return false
		}
		if candidate[i] == '\t' {
			t.tabs |= 1 << n
		}
	}
	t.padding = uint8(i - int(t.dashes))
	if i < len(candidate) && candidate[i] == '\r' {
		t.cr = true
		i++
	}
	if i != len(candidate) {
		return false
	}
	t.active = true
	return true
}

// appendTo appends the exact bytes t was encoded from.
func (t *pendingTail) appendTo(buf []byte, s *Scanner) []byte {
	if t.crlf {
		buf = append(buf, s.pattern...)
	} else {
		buf = append(buf, s.dash...)
	}
	for range t.dashes {
		buf = append(buf, '-')
	}
	for i := range int(t.padding) {
		c := byte(' ')
		if t.tabs&(1<<i) != 0 {
			c = '\t'
		}
		buf = append(buf, c)
	}
	if t.cr {
		buf = append(buf, '\r')
	}
	return buf
}

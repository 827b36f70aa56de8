// Package cif provides parsing for CIF (Crystallographic Information
// File) documents. The grammar is consumed through the Actions
// interface, so the same walk feeds both the materializing document
// builder and the streaming searcher.
package cif

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Actions receives one callback per grammar production, in
// left-to-right match order. Implementing the full interface is what
// guarantees, at compile time, that a consumer covers every
// production of the grammar.
type Actions interface {
	// BlockName fires for the name of a data_ block header.
	BlockName(name string)
	// Global fires for the literal global_ keyword.
	Global()
	// FrameBegin and FrameEnd bracket a save frame.
	FrameBegin(name string)
	FrameEnd()
	// Tag fires for a scalar tag; Value for the value paired with it.
	Tag(tag string)
	Value(raw string)
	// LoopBegin, LoopTag, LoopValue and LoopEnd trace a loop: the
	// declared column tags in order, then the cell values row-major.
	LoopBegin()
	LoopTag(tag string)
	LoopValue(raw string)
	LoopEnd()
}

// SyntaxError reports the first grammar violation in an input. The
// parse aborts at that point; there is no recovery.
type SyntaxError struct {
	Name string
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Name, e.Line, e.Col, e.Msg)
}

// Parser parses CIF input and dispatches grammar productions to an
// action set.
type Parser struct {
	allowEmptyLoops bool
}

// NewParser creates a new Parser with default configuration.
func NewParser() *Parser {
	return &Parser{}
}

// WithEmptyLoops configures whether a loop may declare tags but carry
// no values. The grammar forbids it; some files in the wild have them.
func (p *Parser) WithEmptyLoops(allow bool) *Parser {
	p.allowEmptyLoops = allow
	return p
}

// Parse walks the input and fires one action per production. This is
// the single entry point both consumption modes are built on.
func (p *Parser) Parse(name string, data []byte, a Actions) error {
	s := &scanner{name: name, data: data, allowEmptyLoops: p.allowEmptyLoops}
	return s.parseFile(a)
}

// ParseReader is Parse over an io.Reader. The input is read fully
// before parsing begins.
func (p *Parser) ParseReader(name string, r io.Reader, a Actions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return p.Parse(name, data, a)
}

type scanner struct {
	name            string
	data            []byte
	pos             int
	allowEmptyLoops bool
}

func (s *scanner) parseFile(a Actions) error {
	s.skipSpace()
	inBlock := false
	inFrame := false
	for !s.eof() {
		start := s.pos
		c := s.data[s.pos]
		switch {
		case c == '_':
			if !inBlock {
				return s.errAt(start, "tag outside of a data block")
			}
			a.Tag(s.readWord())
			s.skipSpace()
			raw, err := s.readValue()
			if err != nil {
				return err
			}
			a.Value(raw)
		case c == '\'' || c == '"' || (c == ';' && s.atLineStart()):
			return s.errAt(start, "value without a preceding tag")
		default:
			word := s.readWord()
			lower := strings.ToLower(word)
			switch {
			case strings.HasPrefix(lower, "data_"):
				if inFrame {
					return s.errAt(start, "data block header inside a save frame")
				}
				if len(word) == len("data_") {
					return s.errAt(start, "missing data block name")
				}
				a.BlockName(word[len("data_"):])
				inBlock = true
			case lower == "global_":
				if inFrame {
					return s.errAt(start, "global_ inside a save frame")
				}
				a.Global()
				inBlock = true
			case lower == "loop_":
				if !inBlock {
					return s.errAt(start, "loop_ outside of a data block")
				}
				if err := s.parseLoop(a); err != nil {
					return err
				}
			case strings.HasPrefix(lower, "save_"):
				if len(word) == len("save_") {
					if !inFrame {
						return s.errAt(start, "save_ terminator outside of a save frame")
					}
					a.FrameEnd()
					inFrame = false
				} else {
					if !inBlock {
						return s.errAt(start, "save frame outside of a data block")
					}
					if inFrame {
						return s.errAt(start, "nested save frame")
					}
					a.FrameBegin(word[len("save_"):])
					inFrame = true
				}
			case lower == "stop_":
				return s.errAt(start, "stop_ is not supported")
			default:
				return s.errAt(start, "unexpected %q", word)
			}
		}
		s.skipSpace()
	}
	if inFrame {
		return s.errAt(s.pos, "unterminated save frame")
	}
	return nil
}

func (s *scanner) parseLoop(a Actions) error {
	a.LoopBegin()
	s.skipSpace()
	width := 0
	for !s.eof() && s.data[s.pos] == '_' {
		a.LoopTag(s.readWord())
		width++
		s.skipSpace()
	}
	if width == 0 {
		return s.errAt(s.pos, "expected tags after loop_")
	}
	count := 0
	for !s.eof() && s.startsValue() {
		raw, err := s.readValue()
		if err != nil {
			return err
		}
		a.LoopValue(raw)
		count++
		s.skipSpace()
	}
	if count == 0 && !s.allowEmptyLoops {
		return s.errAt(s.pos, "loop without values")
	}
	if count%width != 0 {
		return s.errAt(s.pos, "loop with %d values does not fill %d columns", count, width)
	}
	a.LoopEnd()
	return nil
}

// startsValue reports whether the next token is a value rather than a
// tag, a keyword or end of input.
func (s *scanner) startsValue() bool {
	c := s.data[s.pos]
	if c == '\'' || c == '"' {
		return true
	}
	if c == ';' && s.atLineStart() {
		return true
	}
	if c == '_' {
		return false
	}
	return !isReserved(s.peekWord())
}

func (s *scanner) readValue() (string, error) {
	if s.eof() {
		return "", s.errAt(s.pos, "expected value, found end of input")
	}
	c := s.data[s.pos]
	switch {
	case c == '\'' || c == '"':
		return s.readQuoted(c)
	case c == ';' && s.atLineStart():
		return s.readTextField()
	default:
		start := s.pos
		word := s.readWord()
		if word == "" || word[0] == '_' || isReserved(word) {
			return "", s.errAt(start, "expected value, found %q", word)
		}
		return word, nil
	}
}

// readQuoted reads a single-line quoted value. The closing quote must
// be followed by whitespace or end of input.
func (s *scanner) readQuoted(q byte) (string, error) {
	start := s.pos
	s.pos++
	for s.pos < len(s.data) && s.data[s.pos] != '\n' {
		if s.data[s.pos] == q && (s.pos+1 == len(s.data) || isSpace(s.data[s.pos+1])) {
			s.pos++
			return string(s.data[start:s.pos]), nil
		}
		s.pos++
	}
	return "", s.errAt(start, "unterminated quoted value")
}

// readTextField reads a multi-line ;-delimited value. The raw form
// keeps both delimiters; AsString strips them.
func (s *scanner) readTextField() (string, error) {
	start := s.pos
	s.pos++
	for {
		nl := bytes.IndexByte(s.data[s.pos:], '\n')
		if nl < 0 {
			return "", s.errAt(start, "unterminated text field")
		}
		s.pos += nl + 1
		if s.pos < len(s.data) && s.data[s.pos] == ';' {
			s.pos++
			if s.pos < len(s.data) && !isSpace(s.data[s.pos]) {
				return "", s.errAt(s.pos, "text field terminator not followed by whitespace")
			}
			return string(s.data[start:s.pos]), nil
		}
	}
}

// readWord consumes a run of non-whitespace bytes.
func (s *scanner) readWord() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

// peekWord is readWord without consuming input.
func (s *scanner) peekWord() string {
	end := s.pos
	for end < len(s.data) && !isSpace(s.data[end]) {
		end++
	}
	return string(s.data[s.pos:end])
}

// skipSpace consumes whitespace and # comments between tokens.
func (s *scanner) skipSpace() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if isSpace(c) {
			s.pos++
			continue
		}
		if c == '#' {
			nl := bytes.IndexByte(s.data[s.pos:], '\n')
			if nl < 0 {
				s.pos = len(s.data)
				return
			}
			s.pos += nl + 1
			continue
		}
		return
	}
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.data)
}

func (s *scanner) atLineStart() bool {
	return s.pos == 0 || s.data[s.pos-1] == '\n'
}

func (s *scanner) errAt(pos int, format string, args ...any) *SyntaxError {
	line := 1 + bytes.Count(s.data[:pos], []byte{'\n'})
	col := pos - bytes.LastIndexByte(s.data[:pos], '\n')
	return &SyntaxError{
		Name: s.name,
		Line: line,
		Col:  col,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// isReserved reports whether a bare word is a grammar keyword or a
// tag, i.e. anything that terminates a run of values. CIF keywords are
// case-insensitive.
func isReserved(word string) bool {
	if word == "" {
		return true
	}
	if word[0] == '_' {
		return true
	}
	lower := strings.ToLower(word)
	return strings.HasPrefix(lower, "data_") ||
		strings.HasPrefix(lower, "save_") ||
		lower == "loop_" || lower == "global_" || lower == "stop_"
}

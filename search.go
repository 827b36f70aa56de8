package cif

import (
	"fmt"
	"io"
)

// Emitter is the emission policy of a search run. Match is called once
// per matching value; Finish is called when the occurrence group that
// produced the matches ends — after a matched scalar value, or at the
// end of a loop whose columns matched.
type Emitter interface {
	Match(blockName, tag, value string)
	Finish(blockName string)
}

// Searcher is the streaming action set: it scans one input for a tag
// without materializing a Document. State is reset at every block and
// loop boundary as the grammar dictates.
type Searcher struct {
	SearchTag string
	Emit      Emitter

	// Matches counts every match of the run, regardless of what the
	// emitter does with them.
	Matches int

	blockName   string
	matchValue  bool
	matchColumn int
	tableWidth  int
	column      int
}

// NewSearcher creates a searcher for one tag with the given emission
// policy.
func NewSearcher(tag string, e Emitter) *Searcher {
	return &Searcher{SearchTag: tag, Emit: e, matchColumn: -1}
}

func (s *Searcher) resetBlock() {
	s.matchValue = false
	s.matchColumn = -1
	s.tableWidth = 0
	s.column = 0
}

func (s *Searcher) BlockName(name string) {
	s.blockName = name
	s.resetBlock()
}

func (s *Searcher) Global() {
	s.blockName = "global_"
	s.resetBlock()
}

// Save frames are searched transparently: their tags and values flow
// through the same scalar and loop productions.
func (s *Searcher) FrameBegin(string) {}
func (s *Searcher) FrameEnd()         {}

func (s *Searcher) Tag(tag string) {
	if tag == s.SearchTag {
		s.matchValue = true
	}
}

func (s *Searcher) Value(raw string) {
	if !s.matchValue {
		return
	}
	s.Matches++
	s.Emit.Match(s.blockName, s.SearchTag, AsString(raw))
	s.Emit.Finish(s.blockName)
	s.matchValue = false
}

func (s *Searcher) LoopBegin() {
	s.tableWidth = 0
}

func (s *Searcher) LoopTag(tag string) {
	if tag == s.SearchTag {
		s.matchColumn = s.tableWidth
		s.column = 0
	}
	s.tableWidth++
}

func (s *Searcher) LoopValue(raw string) {
	if s.matchColumn < 0 {
		return
	}
	if s.column == s.matchColumn {
		s.Matches++
		s.Emit.Match(s.blockName, s.SearchTag, AsString(raw))
	}
	s.column++
	if s.column == s.tableWidth {
		s.column = 0
	}
}

func (s *Searcher) LoopEnd() {
	if s.matchColumn >= 0 {
		s.Emit.Finish(s.blockName)
		s.matchColumn = -1
	}
}

// PrintEmitter writes every match as one line, optionally prefixed
// with the file name, block name and tag. MaxCount caps the lines
// printed per occurrence group; it is a display limit only — the scan
// still runs to completion and Matches keeps counting.
type PrintEmitter struct {
	W             io.Writer
	Path          string
	WithFilename  bool
	WithBlockName bool
	WithTag       bool
	MaxCount      int // 0 means unlimited

	printed int
}

func (e *PrintEmitter) Match(blockName, tag, value string) {
	if e.MaxCount > 0 && e.printed >= e.MaxCount {
		return
	}
	e.printed++
	if e.WithFilename {
		fmt.Fprintf(e.W, "%s: ", e.Path)
	}
	if e.WithBlockName {
		fmt.Fprintf(e.W, "%s: ", blockName)
	}
	if e.WithTag {
		fmt.Fprintf(e.W, "[%s] ", tag)
	}
	fmt.Fprintf(e.W, "%s\n", value)
}

func (e *PrintEmitter) Finish(string) {
	e.printed = 0
}

// CountEmitter accumulates a count per occurrence group and writes one
// summary line at finish time instead of each value.
type CountEmitter struct {
	W             io.Writer
	Path          string
	WithFilename  bool
	WithBlockName bool

	count int
}

func (e *CountEmitter) Match(string, string, string) {
	e.count++
}

func (e *CountEmitter) Finish(blockName string) {
	if e.WithFilename {
		fmt.Fprintf(e.W, "%s: ", e.Path)
	}
	if e.WithBlockName {
		fmt.Fprintf(e.W, "%s: ", blockName)
	}
	fmt.Fprintf(e.W, "%d\n", e.count)
	e.count = 0
}

// NopEmitter discards matches. Callers that only need the Matches
// total, such as file listing or summary modes, use it.
type NopEmitter struct{}

func (NopEmitter) Match(string, string, string) {}
func (NopEmitter) Finish(string)                {}

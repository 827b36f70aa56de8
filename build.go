package cif

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// DocumentBuilder is the materializing action set: it assembles a
// Document from the grammar walk.
type DocumentBuilder struct {
	doc   *Document
	tag   string
	loop  *Loop
	frame *Block
}

// NewDocumentBuilder creates a builder filling the given document.
func NewDocumentBuilder(doc *Document) *DocumentBuilder {
	return &DocumentBuilder{doc: doc}
}

// current returns the block items are appended to: the open save
// frame, when inside one, otherwise the last top-level block.
func (b *DocumentBuilder) current() *Block {
	if b.frame != nil {
		return b.frame
	}
	return &b.doc.Blocks[len(b.doc.Blocks)-1]
}

func (b *DocumentBuilder) BlockName(name string) {
	b.doc.Blocks = append(b.doc.Blocks, Block{Name: name})
}

func (b *DocumentBuilder) Global() {
	b.doc.Blocks = append(b.doc.Blocks, Block{Name: "global_"})
}

func (b *DocumentBuilder) FrameBegin(name string) {
	b.frame = &Block{Name: name}
}

func (b *DocumentBuilder) FrameEnd() {
	frame := b.frame
	b.frame = nil
	cur := b.current()
	cur.Items = append(cur.Items, Item{Type: ItemFrame, Frame: frame})
}

func (b *DocumentBuilder) Tag(tag string) {
	b.tag = tag
}

func (b *DocumentBuilder) Value(raw string) {
	cur := b.current()
	cur.Items = append(cur.Items, Item{Type: ItemValue, Tag: b.tag, Value: raw})
}

func (b *DocumentBuilder) LoopBegin() {
	b.loop = &Loop{}
}

func (b *DocumentBuilder) LoopTag(tag string) {
	b.loop.Tags = append(b.loop.Tags, tag)
}

func (b *DocumentBuilder) LoopValue(raw string) {
	b.loop.Values = append(b.loop.Values, raw)
}

func (b *DocumentBuilder) LoopEnd() {
	cur := b.current()
	cur.Items = append(cur.Items, Item{Type: ItemLoop, Loop: b.loop})
	b.loop = nil
}

// ParseBytes parses an in-memory CIF input into a Document. The name
// is used in diagnostics only.
func (p *Parser) ParseBytes(name string, data []byte) (*Document, error) {
	doc := &Document{Name: name}
	if err := p.Parse(name, data, NewDocumentBuilder(doc)); err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseString parses a string as a CIF file.
func (p *Parser) ParseString(name, src string) (*Document, error) {
	return p.ParseBytes(name, []byte(src))
}

// ParseDocument parses a CIF document from an io.Reader.
func (p *Parser) ParseDocument(name string, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ParseBytes(name, data)
}

// ReadFile parses the CIF file at path.
func (p *Parser) ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return p.ParseBytes(path, data)
}

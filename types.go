// Package cif defines the core data structures for CIF parsing.
package cif

import "fmt"

// ItemType discriminates the three kinds of items a block can hold.
type ItemType int

const (
	// ItemValue is a single tag/value pair.
	ItemValue ItemType = iota
	// ItemLoop is a table: column tags plus a flat row-major value list.
	ItemLoop
	// ItemFrame is a nested save frame.
	ItemFrame
)

// Item is one entry of a block. Exactly one of the variant fields is
// meaningful, selected by Type.
type Item struct {
	Type  ItemType
	Tag   string // ItemValue
	Value string // ItemValue, raw lexical form
	Loop  *Loop  // ItemLoop
	Frame *Block // ItemFrame
}

// Loop is a CIF table. Values are stored flat in row-major order:
// row r, column c lives at Values[r*len(Tags)+c].
type Loop struct {
	Tags   []string
	Values []string
}

// Width returns the number of declared columns.
func (l *Loop) Width() int { return len(l.Tags) }

// Length returns the number of rows.
func (l *Loop) Length() int {
	if len(l.Tags) == 0 {
		return 0
	}
	return len(l.Values) / len(l.Tags)
}

// Val returns the raw value at the given row and column.
func (l *Loop) Val(row, col int) string {
	return l.Values[row*len(l.Tags)+col]
}

// Block is a named grouping of items. Item order is the order of
// appearance in the source.
type Block struct {
	Name  string
	Items []Item
}

// FindValue returns the raw value of the first scalar tag/value pair
// with the given tag. Tags occurring only inside loops are not found.
func (b *Block) FindValue(tag string) (string, bool) {
	for i := range b.Items {
		if b.Items[i].Type == ItemValue && b.Items[i].Tag == tag {
			return b.Items[i].Value, true
		}
	}
	return "", false
}

// FindLoop returns the raw values of the loop column with the given
// tag, or nil if no loop in the block declares it.
func (b *Block) FindLoop(tag string) []string {
	for i := range b.Items {
		if b.Items[i].Type != ItemLoop {
			continue
		}
		loop := b.Items[i].Loop
		for col, t := range loop.Tags {
			if t != tag {
				continue
			}
			w := len(loop.Tags)
			column := make([]string, 0, len(loop.Values)/w)
			for j := col; j < len(loop.Values); j += w {
				column = append(column, loop.Values[j])
			}
			return column
		}
	}
	return nil
}

// Document is an ordered sequence of blocks parsed from one input.
type Document struct {
	Name   string // input name, for diagnostics
	Blocks []Block
}

// SoleBlock returns the only block of a one-block document. It returns
// a *StructureError when the document has zero or multiple blocks.
func (d *Document) SoleBlock() (*Block, error) {
	if len(d.Blocks) == 0 {
		return nil, &StructureError{Name: d.Name, Msg: "no data blocks"}
	}
	if len(d.Blocks) > 1 {
		return nil, &StructureError{Name: d.Name, Msg: fmt.Sprintf("expected one data block, found %d", len(d.Blocks))}
	}
	return &d.Blocks[0], nil
}

// StructureError reports a failed structural precondition on a parsed
// document, such as SoleBlock on a multi-block document.
type StructureError struct {
	Name string
	Msg  string
}

func (e *StructureError) Error() string {
	return e.Name + ": " + e.Msg
}

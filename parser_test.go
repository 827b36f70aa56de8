package cif

import (
	"errors"
	"strings"
	"testing"
)

func TestNewParser(t *testing.T) {
	p := NewParser()
	if p == nil {
		t.Fatal("NewParser() returned nil")
	}
}

func TestParseString_Simple(t *testing.T) {
	input := `data_test
_nonloop_a alpha
_nonloop_b beta
loop_ _la _lb A B C D
`

	doc, err := NewParser().ParseString("test", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	block, err := doc.SoleBlock()
	if err != nil {
		t.Fatalf("SoleBlock() failed: %v", err)
	}
	if block.Name != "test" {
		t.Errorf("Expected block name 'test', got '%s'", block.Name)
	}

	if v, ok := block.FindValue("_nonloop_a"); !ok || v != "alpha" {
		t.Errorf("FindValue(_nonloop_a) = %q, %v; want \"alpha\", true", v, ok)
	}

	// A tag that only occurs in a loop is not a scalar value.
	if _, ok := block.FindValue("_la"); ok {
		t.Error("FindValue(_la) found a loop tag as a scalar")
	}

	la := block.FindLoop("_la")
	if len(la) != 2 || la[0] != "A" || la[1] != "C" {
		t.Errorf("FindLoop(_la) = %v, want [A C]", la)
	}
	lb := block.FindLoop("_lb")
	if len(lb) != 2 || lb[0] != "B" || lb[1] != "D" {
		t.Errorf("FindLoop(_lb) = %v, want [B D]", lb)
	}
}

func TestParseString_LoopDecoding(t *testing.T) {
	input := `data_atoms
loop_
_atom_site.label
_atom_site.x
_atom_site.y
C1 0.0 1.0
O1 0.5 1.5
N1 2.0 3.0
`

	doc, err := NewParser().ParseString("atoms", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	block := &doc.Blocks[0]
	if len(block.Items) != 1 || block.Items[0].Type != ItemLoop {
		t.Fatalf("Expected one loop item, got %+v", block.Items)
	}

	loop := block.Items[0].Loop
	if loop.Width() != 3 {
		t.Errorf("Width() = %d, want 3", loop.Width())
	}
	if loop.Length() != 3 {
		t.Errorf("Length() = %d, want 3", loop.Length())
	}
	if len(loop.Values)%loop.Width() != 0 {
		t.Errorf("len(Values) = %d is not a multiple of width %d", len(loop.Values), loop.Width())
	}
	if v := loop.Val(1, 0); v != "O1" {
		t.Errorf("Val(1, 0) = %q, want \"O1\"", v)
	}
	if v := loop.Val(2, 2); v != "3.0" {
		t.Errorf("Val(2, 2) = %q, want \"3.0\"", v)
	}
}

func TestParseString_QuotedAndTextValues(t *testing.T) {
	input := "data_q\n" +
		"_single 'hello world'\n" +
		"_double \"two words\"\n" +
		"_text\n;\nline one\nline two\n;\n"

	doc, err := NewParser().ParseString("q", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	block := &doc.Blocks[0]
	raw, _ := block.FindValue("_single")
	if raw != "'hello world'" {
		t.Errorf("raw value = %q, want the quotes preserved", raw)
	}
	if AsString(raw) != "hello world" {
		t.Errorf("AsString(%q) = %q, want \"hello world\"", raw, AsString(raw))
	}

	raw, _ = block.FindValue("_text")
	if AsString(raw) != "line one\nline two" {
		t.Errorf("text field = %q, want \"line one\\nline two\"", AsString(raw))
	}
}

func TestParseString_SaveFrame(t *testing.T) {
	input := `data_dict
save__cell.length_a
_item.name '_cell.length_a'
_item.category_id cell
save_
_after frame
`

	doc, err := NewParser().ParseString("dict", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	block := &doc.Blocks[0]
	if len(block.Items) != 2 {
		t.Fatalf("Expected 2 items (frame + value), got %d", len(block.Items))
	}

	if block.Items[0].Type != ItemFrame {
		t.Fatalf("Expected first item to be a frame, got %v", block.Items[0].Type)
	}
	frame := block.Items[0].Frame
	if frame.Name != "_cell.length_a" {
		t.Errorf("Frame name = %q, want \"_cell.length_a\"", frame.Name)
	}
	if v, ok := frame.FindValue("_item.name"); !ok || AsString(v) != "_cell.length_a" {
		t.Errorf("frame FindValue(_item.name) = %q, %v", v, ok)
	}

	// The item after save_ belongs to the enclosing block again.
	if v, ok := block.FindValue("_after"); !ok || v != "frame" {
		t.Errorf("FindValue(_after) = %q, %v; want \"frame\", true", v, ok)
	}
}

func TestParseString_MultipleBlocksAndGlobal(t *testing.T) {
	input := `global_
_g 1
data_one
_a 1
data_two
_a 2
`

	doc, err := NewParser().ParseString("multi", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	if len(doc.Blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(doc.Blocks))
	}
	if doc.Blocks[0].Name != "global_" {
		t.Errorf("First block name = %q, want \"global_\"", doc.Blocks[0].Name)
	}
	if doc.Blocks[2].Name != "two" {
		t.Errorf("Third block name = %q, want \"two\"", doc.Blocks[2].Name)
	}

	if _, err := doc.SoleBlock(); err == nil {
		t.Error("SoleBlock() succeeded on a 3-block document")
	} else {
		var se *StructureError
		if !errors.As(err, &se) {
			t.Errorf("SoleBlock() error type = %T, want *StructureError", err)
		}
	}
}

func TestParseString_CommentsAndCase(t *testing.T) {
	input := `# leading comment
DATA_Test  # trailing comment
_a 1 # another
LOOP_
_x
one two
`

	doc, err := NewParser().ParseString("case", input)
	if err != nil {
		t.Fatalf("ParseString() failed: %v", err)
	}

	// Keywords are case-insensitive, the block name keeps its case.
	if doc.Blocks[0].Name != "Test" {
		t.Errorf("Block name = %q, want \"Test\"", doc.Blocks[0].Name)
	}
	if col := doc.Blocks[0].FindLoop("_x"); len(col) != 2 {
		t.Errorf("FindLoop(_x) = %v, want 2 values", col)
	}
}

func TestParseString_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"tag outside block", "_orphan 1\n"},
		{"missing value", "data_a\n_t\n"},
		{"bare data_", "data_\n_t 1\n"},
		{"unterminated quote", "data_a\n_t 'no end\n"},
		{"unterminated text field", "data_a\n_t\n;\nnever closed\n"},
		{"loop without tags", "data_a\nloop_\nvalue\n"},
		{"loop without values", "data_a\nloop_\n_x\n"},
		{"ragged loop", "data_a\nloop_\n_x _y\nA B C\n"},
		{"unterminated frame", "data_a\nsave_f\n_t 1\n"},
		{"nested frame", "data_a\nsave_f\nsave_g\n_t 1\nsave_\nsave_\n"},
		{"stray word", "junk\n"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewParser().ParseString("bad", test.input)
			if err == nil {
				t.Fatalf("ParseString(%q) succeeded, want error", test.input)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("error type = %T, want *SyntaxError", err)
			}
			if se.Line < 1 || se.Col < 1 {
				t.Errorf("error position %d:%d is not 1-based", se.Line, se.Col)
			}
		})
	}
}

func TestParseString_SyntaxErrorPosition(t *testing.T) {
	_, err := NewParser().ParseString("bad", "data_a\n_t loop_\n")
	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if se.Name != "bad" || se.Line != 2 || se.Col != 4 {
		t.Errorf("error at %s:%d:%d, want bad:2:4", se.Name, se.Line, se.Col)
	}
}

func TestParser_WithEmptyLoops(t *testing.T) {
	input := "data_a\nloop_\n_x\n_y\ndata_b\n_t 1\n"

	if _, err := NewParser().ParseString("strict", input); err == nil {
		t.Fatal("expected an error for an empty loop by default")
	}

	doc, err := NewParser().WithEmptyLoops(true).ParseString("lenient", input)
	if err != nil {
		t.Fatalf("ParseString() with empty loops allowed failed: %v", err)
	}
	loop := doc.Blocks[0].Items[0].Loop
	if loop.Width() != 2 || loop.Length() != 0 {
		t.Errorf("empty loop = %dx%d, want 2x0", loop.Width(), loop.Length())
	}
}

func TestParseDocument_Reader(t *testing.T) {
	doc, err := NewParser().ParseDocument("r", strings.NewReader("data_x\n_a 1\n"))
	if err != nil {
		t.Fatalf("ParseDocument() failed: %v", err)
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("Expected 1 block, got %d", len(doc.Blocks))
	}
}

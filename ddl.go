package cif

import (
	"fmt"
	"math"
	"strings"
)

// DDL is a loaded DDL1 or DDL2 dictionary (ontology), used to validate
// CIF documents. The dialect is detected from the dictionary itself:
// more than one block means DDL1, a single block of save frames means
// DDL2. A DDL is immutable after loading and safe to reuse across
// validations.
type DDL struct {
	doc     *Document
	version int
	index   map[string]*Block

	dictName    string
	dictVersion string

	// "_" or ".", fixed by the dialect; unifies the handling of
	// _audit_conform_dict_* and _audit_conform.dict_*.
	sep string
}

// Failure is one validation finding: the originating block and item
// plus a human-readable message. Findings never abort a validation.
type Failure struct {
	Block *Block
	Item  *Item
	Msg   string
}

// LoadDDL reads and indexes a dictionary file.
func LoadDDL(path string) (*DDL, error) {
	doc, err := ReadAny(path)
	if err != nil {
		return nil, err
	}
	return NewDDL(doc), nil
}

// NewDDL indexes an already-parsed dictionary document.
func NewDDL(doc *Document) *DDL {
	d := &DDL{doc: doc, index: make(map[string]*Block)}
	if len(doc.Blocks) > 1 {
		d.version = 1
		d.sep = "_"
		d.readDDL1()
	} else {
		d.version = 2
		d.sep = "."
		d.readDDL2()
	}
	return d
}

// Version returns the detected dialect, 1 or 2.
func (d *DDL) Version() int { return d.version }

// Name returns the dictionary's declared name, if any.
func (d *DDL) Name() string { return d.dictName }

// find returns the defining block for a tag, or nil when the tag is
// not in the dictionary.
func (d *DDL) find(tag string) *Block {
	return d.index[tag]
}

// addToIndex indexes a defining block under the value(s) of its name
// tag, scalar or looped. Duplicate names overwrite: last wins.
func (d *DDL) addToIndex(b *Block, nameTag string) {
	if name, ok := b.FindValue(nameTag); ok {
		d.index[AsString(name)] = b
		return
	}
	for _, name := range b.FindLoop(nameTag) {
		d.index[AsString(name)] = b
	}
}

func (d *DDL) readDDL1() {
	for i := range d.doc.Blocks {
		b := &d.doc.Blocks[i]
		d.addToIndex(b, "_name")
		if b.Name == "on_this_dictionary" {
			if name, ok := b.FindValue("_dictionary_name"); ok {
				d.dictName = AsString(name)
			}
			if ver, ok := b.FindValue("_dictionary_version"); ok {
				d.dictVersion = AsString(ver)
			}
		}
	}
}

func (d *DDL) readDDL2() {
	for i := range d.doc.Blocks {
		b := &d.doc.Blocks[i]
		for j := range b.Items {
			it := &b.Items[j]
			switch it.Type {
			case ItemFrame:
				d.addToIndex(it.Frame, "_item.name")
			case ItemValue:
				if it.Tag == "_dictionary.title" {
					d.dictName = AsString(it.Value)
				} else if it.Tag == "_dictionary.version" {
					d.dictVersion = AsString(it.Value)
				}
			}
		}
	}
}

// CheckAuditConform checks whether doc declares conformance to this
// dictionary. A name or version mismatch returns false with a message.
// A document that declares nothing returns true; the message then only
// notes the absence.
func (d *DDL) CheckAuditConform(doc *Document) (string, bool) {
	prefix := "_audit_conform" + d.sep
	declared := false
	for i := range doc.Blocks {
		b := &doc.Blocks[i]
		rawName, ok := b.FindValue(prefix + "dict_name")
		if !ok {
			continue
		}
		declared = true
		name := AsString(rawName)
		if name != d.dictName {
			return fmt.Sprintf("dictionary name mismatch: %s vs %s", name, d.dictName), false
		}
		if rawVer, ok := b.FindValue(prefix + "dict_version"); ok {
			ver := AsString(rawVer)
			if ver != d.dictVersion {
				return fmt.Sprintf("%s conforms to %s ver. %s while the dictionary has ver. %s",
					doc.Name, name, ver, d.dictVersion), false
			}
		}
	}
	if !declared {
		return fmt.Sprintf("%s is missing %sdict_(name|version)", doc.Name, prefix), true
	}
	return "", true
}

// Validate type-checks every scalar value and loop column of doc
// against the dictionary. Failures go to the report hook; tags absent
// from the dictionary go to the unknown hook and are otherwise
// skipped. Either hook may be nil.
func (d *DDL) Validate(doc *Document, report func(Failure), unknown func(tag string)) {
	fail := func(b *Block, it *Item, msg string) {
		if report != nil {
			report(Failure{Block: b, Item: it, Msg: msg})
		}
	}
	for bi := range doc.Blocks {
		b := &doc.Blocks[bi]
		for ii := range b.Items {
			it := &b.Items[ii]
			switch it.Type {
			case ItemValue:
				def := d.find(it.Tag)
				if def == nil {
					if unknown != nil {
						unknown(it.Tag)
					}
					continue
				}
				if d.version == 1 {
					tc := newTypeCheck1(def)
					if tc.isList == yes {
						fail(b, it, it.Tag+" must be a list")
					}
					if msg, ok := tc.validate(it.Value); !ok {
						fail(b, it, msg)
					}
				} else {
					tc := newTypeCheck2(def)
					if msg, ok := tc.validate(it.Value); !ok {
						fail(b, it, msg)
					}
				}
			case ItemLoop:
				loop := it.Loop
				w := len(loop.Tags)
				for col, tag := range loop.Tags {
					def := d.find(tag)
					if def == nil {
						if unknown != nil {
							unknown(tag)
						}
						continue
					}
					if d.version == 1 {
						tc := newTypeCheck1(def)
						if tc.isList == no {
							fail(b, it, tag+" in list")
						}
						for j := col; j < len(loop.Values); j += w {
							if msg, ok := tc.validate(loop.Values[j]); !ok {
								fail(b, it, msg)
							}
						}
					} else {
						tc := newTypeCheck2(def)
						for j := col; j < len(loop.Values); j += w {
							if msg, ok := tc.validate(loop.Values[j]); !ok {
								fail(b, it, msg)
							}
						}
					}
				}
			}
		}
	}
}

type trinary int8

const (
	unset trinary = iota
	yes
	no
)

// validateEnumeration checks a value against a closed enumeration set.
// Comparison is case-sensitive; null values always pass.
func validateEnumeration(value string, enum []string) (string, bool) {
	if len(enum) == 0 || IsNull(value) {
		return "", true
	}
	s := AsString(value)
	for _, e := range enum {
		if s == e {
			return "", true
		}
	}
	return fmt.Sprintf("'%s' is not one of: %s.", value, strings.Join(enum, ", ")), false
}

// typeCheck1 is the per-tag type descriptor built from a DDL1 defining
// block.
type typeCheck1 struct {
	isList   trinary // _list yes
	isNumb   trinary // _type numb
	hasSU    bool    // _type_conditions esd|su
	hasRange bool    // _enumeration_range
	low      float64
	high     float64
	enum     []string // loop_ _enumeration
}

func newTypeCheck1(b *Block) typeCheck1 {
	tc := typeCheck1{}
	if list, ok := b.FindValue("_list"); ok {
		switch list {
		case "yes":
			tc.isList = yes
		case "no":
			tc.isList = no
		}
	}
	if typ, ok := b.FindValue("_type"); ok {
		if typ == "numb" {
			tc.isNumb = yes
		} else {
			tc.isNumb = no
		}
	}
	// _type_conditions could in principle be looped, but never is.
	if cond, ok := b.FindValue("_type_conditions"); ok {
		tc.hasSU = cond == "esd" || cond == "su"
	}
	if r, ok := b.FindValue("_enumeration_range"); ok {
		// Format "low:high", either side empty for an open end. A
		// range without the colon is malformed and ignored.
		if colon := strings.IndexByte(r, ':'); colon >= 0 {
			tc.hasRange = true
			low, high := r[:colon], r[colon+1:]
			tc.low = math.Inf(-1)
			tc.high = math.Inf(1)
			if low != "" {
				tc.low = AsNumber(low)
			}
			if high != "" {
				tc.high = AsNumber(high)
			}
		}
	}
	for _, e := range b.FindLoop("_enumeration") {
		tc.enum = append(tc.enum, AsString(e))
	}
	return tc
}

func (tc *typeCheck1) validate(value string) (string, bool) {
	if tc.isNumb == yes {
		if !IsNull(value) && !IsNumb(value) {
			return "expected number, got " + value, false
		}
		if tc.hasRange && !IsNull(value) {
			x := AsNumber(value)
			if x < tc.low || x > tc.high {
				return "value out of expected range: " + value, false
			}
		}
		// hasSU is recorded but not enforced; files routinely omit
		// the uncertainty even when the dictionary allows one.
	}
	return validateEnumeration(value, tc.enum)
}

// typeCheck2 applies the DDL2 defining attributes. The DDL2
// information model keeps cardinality and ranges in relational
// categories this validator does not read; only the enumeration is
// checked.
type typeCheck2 struct {
	enum []string // loop_ _item_enumeration.value
}

func newTypeCheck2(b *Block) typeCheck2 {
	tc := typeCheck2{}
	for _, e := range b.FindLoop("_item_enumeration.value") {
		tc.enum = append(tc.enum, AsString(e))
	}
	return tc
}

func (tc *typeCheck2) validate(value string) (string, bool) {
	return validateEnumeration(value, tc.enum)
}

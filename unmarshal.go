package cif

import (
	"fmt"
	"reflect"
	"strings"
)

// Unmarshal parses a one-block CIF input and stores the result in the
// value pointed to by v. If v is not a pointer to a struct, Unmarshal
// returns an error.
//
// Unmarshal uses struct tags to map CIF tags to struct fields:
//   - `cif:"_cell.length_a"` - reads the scalar value of that tag
//   - `cif:"_atom_site.label"` - slice fields read the loop column
//   - `cif:"-"` - ignores this field
//
// Fields without a tag default to "_" plus the lowercased field name.
// Numeric fields accept numb literals; the uncertainty suffix is
// discarded. Null values ("?" and ".") leave the field at its zero
// value.
//
// Example:
//
//	type Cell struct {
//	    LengthA float64  `cif:"_cell.length_a"`
//	    Group   string   `cif:"_symmetry.space_group_name_H-M"`
//	    Labels  []string `cif:"_atom_site.label"`
//	}
func Unmarshal(data []byte, v any) error {
	doc, err := NewParser().ParseBytes("input", data)
	if err != nil {
		return err
	}
	block, err := doc.SoleBlock()
	if err != nil {
		return err
	}
	return UnmarshalBlock(block, v)
}

// UnmarshalBlock unmarshals a parsed block into v.
func UnmarshalBlock(b *Block, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer")
	}

	elem := rv.Elem()
	if elem.Kind() != reflect.Struct {
		return fmt.Errorf("unmarshal target must be a pointer to struct")
	}

	t := elem.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := elem.Field(i)

		// Skip unexported fields
		if !fieldValue.CanSet() {
			continue
		}

		tag := field.Tag.Get("cif")
		if tag == "-" {
			continue
		}

		tagName, opts := parseTag(tag)
		if tagName == "" {
			tagName = "_" + strings.ToLower(field.Name)
		}

		if fieldValue.Kind() == reflect.Slice {
			column := b.FindLoop(tagName)
			if column == nil {
				if hasOption(opts, "required") {
					return fmt.Errorf("required column %s not found", tagName)
				}
				continue
			}
			if err := setColumn(fieldValue, column); err != nil {
				return fmt.Errorf("field %s: %v", field.Name, err)
			}
			continue
		}

		raw, ok := b.FindValue(tagName)
		if !ok {
			if hasOption(opts, "required") {
				return fmt.Errorf("required tag %s not found", tagName)
			}
			continue
		}
		if IsNull(raw) {
			continue
		}
		if err := setField(fieldValue, raw); err != nil {
			return fmt.Errorf("field %s: %v", field.Name, err)
		}
	}

	return nil
}

// setColumn fills a slice field from a loop column.
func setColumn(field reflect.Value, column []string) error {
	slice := reflect.MakeSlice(field.Type(), len(column), len(column))
	for i, raw := range column {
		if IsNull(raw) {
			continue
		}
		if err := setField(slice.Index(i), raw); err != nil {
			return fmt.Errorf("row %d: %v", i, err)
		}
	}
	field.Set(slice)
	return nil
}

// setField sets a reflect.Value from one raw CIF value.
func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(AsString(raw))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := AsInt(raw)
		if err != nil {
			return err
		}
		field.SetInt(int64(n))
	case reflect.Float32, reflect.Float64:
		if !IsNumb(raw) {
			return fmt.Errorf("not a number: %s", raw)
		}
		field.SetFloat(AsNumber(raw))
	case reflect.Bool:
		b, err := parseBool(AsString(raw))
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// Helper functions

func parseTag(tag string) (string, []string) {
	parts := strings.Split(tag, ",")
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}

func hasOption(opts []string, option string) bool {
	for _, opt := range opts {
		if opt == option {
			return true
		}
	}
	return false
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value: %s", s)
	}
}

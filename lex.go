package cif

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// IsNull reports whether a raw value is one of the CIF null markers:
// "?" (unknown) or "." (inapplicable). Null values are exempt from all
// dictionary type, range and enumeration checks.
func IsNull(raw string) bool {
	return raw == "?" || raw == "."
}

// IsNumb reports whether a raw value belongs to the CIF numeric
// lexical class: a number with an optional standard uncertainty in
// brackets, e.g. "12.30(4)".
func IsNumb(raw string) bool {
	_, ok := splitNumb(raw)
	return ok
}

// AsNumber converts a numb literal to a float64. The standard
// uncertainty suffix, when present, is discarded: "12.30(4)" converts
// to exactly the same value as "12.30". Returns NaN when the value is
// not a numb.
func AsNumber(raw string) float64 {
	return AsNumberOr(raw, math.NaN())
}

// AsNumberOr is AsNumber with a caller-supplied fallback.
func AsNumberOr(raw string, fallback float64) float64 {
	mantissa, ok := splitNumb(raw)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		return fallback
	}
	return f
}

// AsInt converts a plain signed integer literal.
func AsInt(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer number: %s", raw)
	}
	return n, nil
}

// AsString returns the semantic string content of a raw value: quoting
// is stripped from 'single-quoted', "double-quoted" and semicolon
// text-field values, and the null markers become the empty string.
// Any other value is returned unchanged.
func AsString(raw string) string {
	if IsNull(raw) {
		return ""
	}
	n := len(raw)
	if n >= 2 {
		if (raw[0] == '\'' && raw[n-1] == '\'') || (raw[0] == '"' && raw[n-1] == '"') {
			return raw[1 : n-1]
		}
		if raw[0] == ';' && raw[n-1] == ';' {
			s := strings.TrimSuffix(raw[1:n-1], "\n")
			return strings.TrimPrefix(s, "\n")
		}
	}
	return raw
}

// splitNumb validates the numb lexical class and returns the mantissa,
// i.e. the literal with any parenthesized uncertainty removed.
//
// Grammar: sign base [eE sign digits] [( digits )], where base is
// digits, digits '.' [digits], or '.' digits.
func splitNumb(s string) (string, bool) {
	i, n := 0, len(s)
	digits := func() int {
		start := i
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		return i - start
	}
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intLen := digits()
	fracLen := 0
	if i < n && s[i] == '.' {
		i++
		fracLen = digits()
	}
	if intLen == 0 && fracLen == 0 {
		return "", false
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if digits() == 0 {
			return "", false
		}
	}
	mantissa := s[:i]
	if i < n && s[i] == '(' {
		i++
		if digits() == 0 {
			return "", false
		}
		if i == n || s[i] != ')' {
			return "", false
		}
		i++
	}
	if i != n {
		return "", false
	}
	return mantissa, true
}

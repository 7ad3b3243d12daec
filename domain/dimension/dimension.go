// Package dimension provides pure functions over dimensionality vectors.
// A vector maps the seven base physical dimensions to exponents; any
// dimension absent from a vector is zero.
package dimension

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Symbol identifies one base physical dimension.
type Symbol string

// Base dimensions.
const (
	Length      Symbol = "[L]"
	Mass        Symbol = "[M]"
	Time        Symbol = "[T]"
	Temperature Symbol = "[K]"
	Substance   Symbol = "[mol]"
	Current     Symbol = "[A]"
	Luminosity  Symbol = "[Cd]"
)

// ZeroTolerance is the absolute tolerance under which an exponent counts as zero
// when counting nonzero dimensions.
const ZeroTolerance = 1e-8

var symbols = []Symbol{Length, Mass, Time, Temperature, Substance, Current, Luminosity}

// Symbols returns the seven base dimensions in their default order.
func Symbols() []Symbol {
	out := make([]Symbol, len(symbols))
	copy(out, symbols)
	return out
}

// ParseSymbol parses a base-dimension symbol such as "[L]".
func ParseSymbol(s string) (Symbol, error) {
	s = strings.TrimSpace(s)
	for _, sym := range symbols {
		if string(sym) == s {
			return sym, nil
		}
	}
	return "", fmt.Errorf("unknown dimension symbol %q", s)
}

// ValidateOrder checks that order lists each of the seven base dimensions exactly once.
func ValidateOrder(order []Symbol) error {
	if len(order) != len(symbols) {
		return fmt.Errorf("order must list %d dimensions, got %d", len(symbols), len(order))
	}
	seen := make(map[Symbol]bool, len(order))
	for _, s := range order {
		if _, err := ParseSymbol(string(s)); err != nil {
			return err
		}
		if seen[s] {
			return fmt.Errorf("dimension %s listed twice", s)
		}
		seen[s] = true
	}
	return nil
}

// Vector maps base dimensions to exponents.
type Vector map[Symbol]float64

// Pad returns a copy of v holding all seven base dimensions.
// Unknown keys are dropped.
func Pad(v Vector) Vector {
	out := make(Vector, len(symbols))
	for _, s := range symbols {
		out[s] = v[s]
	}
	return out
}

// Compatible reports whether a and b are equal after padding.
// Comparison is exact: exponents are small rationals, not measurements.
func Compatible(a, b Vector) bool {
	for _, s := range symbols {
		if a[s] != b[s] {
			return false
		}
	}
	return true
}

// IsDimensionless reports whether every padded exponent of v is zero.
func IsDimensionless(v Vector) bool {
	for _, s := range symbols {
		if v[s] != 0 {
			return false
		}
	}
	return true
}

// NonZero counts the base dimensions whose exponent is not close to zero.
func NonZero(v Vector) int {
	n := 0
	for _, s := range symbols {
		if math.Abs(v[s]) > ZeroTolerance {
			n++
		}
	}
	return n
}

// Array lays v out as a dense slice following order.
func Array(v Vector, order []Symbol) []float64 {
	out := make([]float64, len(order))
	for i, s := range order {
		out[i] = v[s]
	}
	return out
}

// FromArray is the inverse of Array.
func FromArray(a []float64, order []Symbol) Vector {
	out := make(Vector, len(symbols))
	for _, s := range symbols {
		out[s] = 0
	}
	for i, s := range order {
		if i < len(a) {
			out[s] = a[i]
		}
	}
	return out
}

// Clone returns an independent copy of v.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for k, e := range v {
		out[k] = e
	}
	return out
}

// String renders the nonzero exponents in default order, e.g. "[L] [T]^-1".
func (v Vector) String() string {
	var parts []string
	for _, s := range symbols {
		e := v[s]
		if e == 0 {
			continue
		}
		if e == 1 {
			parts = append(parts, string(s))
			continue
		}
		parts = append(parts, string(s)+"^"+strconv.FormatFloat(e, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return "dimensionless"
	}
	return strings.Join(parts, " ")
}

// FromStrings converts a string-keyed map, as found in configuration files
// and JSON payloads, into a Vector.
func FromStrings(m map[string]float64) (Vector, error) {
	out := make(Vector, len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, err := ParseSymbol(k)
		if err != nil {
			return nil, err
		}
		out[s] = m[k]
	}
	return out, nil
}

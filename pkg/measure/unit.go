package measure

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type term struct {
	name string
	exp  float64
}

// Unit is an immutable product of named units raised to powers.
// The zero Unit is dimensionless.
type Unit struct {
	terms  []term
	factor float64
	dims   Dimensions
}

// Dimensionless is the unit of pure numbers.
var Dimensionless = Unit{factor: 1}

func newUnit(r resolved) Unit {
	if r.name == "dimensionless" {
		return Unit{factor: r.factor, dims: r.dims}
	}
	return Unit{terms: []term{{name: r.name, exp: 1}}, factor: r.factor, dims: r.dims}
}

// Factor returns the multiplier converting one of u into SI coherent units.
func (u Unit) Factor() float64 {
	if u.factor == 0 {
		return 1
	}
	return u.factor
}

// Dimensions returns the dimension vector of u.
func (u Unit) Dimensions() Dimensions { return u.dims }

// IsDimensionless reports whether u has no dimensions, angle included.
func (u Unit) IsDimensionless() bool { return u.dims.IsZero() }

// Mul returns u*o.
func (u Unit) Mul(o Unit) Unit {
	terms := make([]term, 0, len(u.terms)+len(o.terms))
	terms = append(terms, u.terms...)
	terms = append(terms, o.terms...)
	return Unit{
		terms:  normalize(terms),
		factor: u.Factor() * o.Factor(),
		dims:   u.dims.add(o.dims),
	}
}

// Div returns u/o.
func (u Unit) Div(o Unit) Unit { return u.Mul(o.Pow(-1)) }

// Pow returns u raised to e.
func (u Unit) Pow(e float64) Unit {
	terms := make([]term, len(u.terms))
	for i, t := range u.terms {
		terms[i] = term{name: t.name, exp: t.exp * e}
	}
	return Unit{
		terms:  normalize(terms),
		factor: math.Pow(u.Factor(), e),
		dims:   u.dims.scale(e),
	}
}

// Compatible reports whether u and o measure the same dimensions.
func (u Unit) Compatible(o Unit) bool { return u.dims == o.dims }

// ConversionFactor returns the multiplier taking magnitudes in u to magnitudes in to.
func (u Unit) ConversionFactor(to Unit) (float64, error) {
	if !u.Compatible(to) {
		return 0, fmt.Errorf("%w: cannot convert from %q (%s) to %q (%s)",
			ErrIncompatible, u, u.dims, to, to.dims)
	}
	return u.Factor() / to.Factor(), nil
}

// Equal reports whether u and o are built from the same named units with the
// same exponents, regardless of order.
func (u Unit) Equal(o Unit) bool {
	if len(u.terms) != len(o.terms) {
		return false
	}
	exps := make(map[string]float64, len(u.terms))
	for _, t := range u.terms {
		exps[t.name] = t.exp
	}
	for _, t := range o.terms {
		if e, ok := exps[t.name]; !ok || e != t.exp {
			return false
		}
	}
	return true
}

// String renders u as "kilojoule / mole / nanometer ** 2".
func (u Unit) String() string {
	if len(u.terms) == 0 {
		return "dimensionless"
	}
	var num, den []string
	for _, t := range u.terms {
		if t.exp > 0 {
			num = append(num, powString(t.name, t.exp))
		} else {
			den = append(den, powString(t.name, -t.exp))
		}
	}
	return joinFraction(num, den)
}

// normalize merges repeated names and drops zero exponents, keeping the
// order in which names first appear.
func normalize(in []term) []term {
	idx := make(map[string]int, len(in))
	out := make([]term, 0, len(in))
	for _, t := range in {
		if i, ok := idx[t.name]; ok {
			out[i].exp += t.exp
			continue
		}
		idx[t.name] = len(out)
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if math.Abs(t.exp) > 1e-12 {
			kept = append(kept, t)
		}
	}
	return kept
}

func powString(name string, e float64) string {
	if e == 1 {
		return name
	}
	return name + " ** " + formatExp(e)
}

func formatExp(e float64) string {
	if e == math.Trunc(e) {
		return strconv.FormatInt(int64(e), 10)
	}
	return strings.TrimRight(strconv.FormatFloat(e, 'f', -1, 64), "0")
}

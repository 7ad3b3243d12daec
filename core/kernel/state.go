// Package kernel holds the process-wide unit configuration: default form and
// parser, dimension order and the standard-unit registries, plus scoped
// overrides that restore the previous configuration on exit.
package kernel

import (
	"fmt"

	"github.com/artpar/unitwizard/domain/dimension"
)

// DefaultDecimals is the rounding applied to least-squares exponents.
const DefaultDecimals = 4

// Standard is a registered standard unit and its dimensionality.
type Standard struct {
	Unit string
	Dims dimension.Vector
}

// State is an immutable configuration snapshot. Values returned by the
// Kernel are copies; mutating them does not affect the kernel.
type State struct {
	DefaultForm   string
	DefaultParser string

	// Order fixes the column order of the least-squares basis matrix.
	Order []dimension.Symbol

	Adimensional []string
	Fundamental  []Standard
	Combinations []Standard
	Tentative    []Standard

	Decimals int

	// Standards is the flat unit list the registries were derived from.
	Standards []string
}

// Empty returns a state with no registries, the canonical dimension order
// and default rounding.
func Empty() State {
	return State{
		Order:    dimension.Symbols(),
		Decimals: DefaultDecimals,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Order = append([]dimension.Symbol(nil), s.Order...)
	out.Adimensional = append([]string(nil), s.Adimensional...)
	out.Fundamental = cloneStandards(s.Fundamental)
	out.Combinations = cloneStandards(s.Combinations)
	out.Tentative = cloneStandards(s.Tentative)
	out.Standards = append([]string(nil), s.Standards...)
	return out
}

// HasStandards reports whether any registry is populated.
func (s State) HasStandards() bool {
	return len(s.Adimensional)+len(s.Fundamental)+len(s.Combinations)+len(s.Tentative) > 0
}

func cloneStandards(in []Standard) []Standard {
	if in == nil {
		return nil
	}
	out := make([]Standard, len(in))
	for i, st := range in {
		out[i] = Standard{Unit: st.Unit, Dims: st.Dims.Clone()}
	}
	return out
}

// Validate checks the registry invariants.
func (s State) Validate() error {
	if err := dimension.ValidateOrder(s.Order); err != nil {
		return err
	}
	if s.Decimals < 0 || s.Decimals > 15 {
		return fmt.Errorf("decimals must be between 0 and 15, got %d", s.Decimals)
	}
	if err := checkTier("fundamental", s.Fundamental, func(k int) bool { return k == 1 }); err != nil {
		return err
	}
	if err := checkTier("combination", s.Combinations, func(k int) bool { return k >= 2 }); err != nil {
		return err
	}
	return checkTier("tentative", s.Tentative, func(k int) bool { return k >= 1 })
}

func checkTier(tier string, stds []Standard, ok func(k int) bool) error {
	for _, st := range stds {
		if st.Unit == "" {
			return fmt.Errorf("%s standard with empty unit", tier)
		}
		if k := dimension.NonZero(st.Dims); !ok(k) {
			return fmt.Errorf("%s standard %q has %d nonzero dimensions", tier, st.Unit, k)
		}
	}
	return nil
}

// Classify splits a flat list of units into the four registries by the
// number of nonzero exponents: none goes to adimensional, one to fundamental,
// more to combinations. Tentative is fundamental followed by combinations.
func Classify(units []string, dims []dimension.Vector) (adim []string, fund, comb, tent []Standard) {
	for i, u := range units {
		d := dimension.Pad(dims[i])
		switch dimension.NonZero(d) {
		case 0:
			adim = append(adim, u)
		case 1:
			fund = append(fund, Standard{Unit: u, Dims: d})
		default:
			comb = append(comb, Standard{Unit: u, Dims: d})
		}
	}
	tent = append(cloneStandards(fund), cloneStandards(comb)...)
	return adim, fund, comb, tent
}

package app

import (
	"math"
	"strconv"
	"strings"

	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
	"gonum.org/v1/gonum/mat"
)

// Tiers reported to the Recorder.
const (
	TierAdimensional     = "adimensional"
	TierFundamental      = "fundamental"
	TierCombination      = "combination"
	TierLstsqFundamental = "lstsq_fundamental"
	TierLstsqTentative   = "lstsq_tentative"
)

// StandardOpts selects the input of StandardUnits: either a quantity or
// unit X, or a dimension vector Dims.
type StandardOpts struct {
	X    any
	Dims dimension.Vector
	// Form is the form of the returned unit; the default form when empty.
	Form   string
	Parser string
}

// StandardUnits returns the standard unit for a quantity, unit or
// dimension vector.
func (w *Wizard) StandardUnits(o StandardOpts) (any, error) {
	out, err := w.standardUnits(w.State(), o)
	return out, w.fail(err)
}

func (w *Wizard) standardUnits(st kernel.State, o StandardOpts) (any, error) {
	toForm := o.Form
	if toForm == "" {
		toForm = st.DefaultForm
	}

	dims := o.Dims
	if o.X != nil {
		var err error
		if dims, err = w.dimensionality(st, o.X); err != nil {
			return nil, err
		}
	}
	dims = dimension.Pad(dims)
	target := dimension.Array(dims, st.Order)

	unit, tier, err := w.solve(st, o.X, dims, target)
	if err != nil {
		return nil, err
	}
	w.rec.Standardization(tier)
	w.logger.Debug().Str("dims", dims.String()).Str("unit", unit).Str("tier", tier).Msg("standard unit resolved")

	return w.convert(st, unit, ConvertOpts{ToForm: toForm, Parser: o.Parser, ToType: ToUnit})
}

// solve returns the standard unit text for dims and the tier that produced it.
func (w *Wizard) solve(st kernel.State, x any, dims dimension.Vector, target []float64) (string, string, error) {
	switch dimension.NonZero(dims) {
	case 0:
		if len(st.Adimensional) == 0 {
			return "", "", errs.NoStandards("get_standard_units")
		}
		if x == nil {
			return st.Adimensional[0], TierAdimensional, nil
		}
		for _, u := range st.Adimensional {
			if w.matchesAdimensional(st, x, u) {
				return u, TierAdimensional, nil
			}
		}

	case 1:
		for _, s := range st.Fundamental {
			if dimension.Compatible(dims, s.Dims) {
				return s.Unit, TierFundamental, nil
			}
		}
		if len(st.Tentative) == 0 {
			return "", "", errs.NoStandards("get_standard_units")
		}
		if u, ok := w.lstsq(st, target, st.Tentative); ok {
			return u, TierLstsqTentative, nil
		}

	default:
		for _, s := range st.Combinations {
			if dimension.Compatible(dims, s.Dims) {
				return s.Unit, TierCombination, nil
			}
		}
		if len(st.Fundamental) == 0 {
			return "", "", errs.NoStandards("get_standard_units")
		}
		if u, ok := w.lstsq(st, target, st.Fundamental); ok {
			return u, TierLstsqFundamental, nil
		}
		if len(st.Tentative) == 0 {
			return "", "", errs.NoStandards("get_standard_units")
		}
		if u, ok := w.lstsq(st, target, st.Tentative); ok {
			return u, TierLstsqTentative, nil
		}
	}
	return "", "", errs.NoStandards("get_standard_units")
}

// matchesAdimensional tests a dimensionless standard against x with the
// compatibility rules of x's form (text is tested in the parser's form).
func (w *Wizard) matchesAdimensional(st kernel.State, x any, unit string) bool {
	tag, err := w.formOf(x)
	if err != nil {
		return false
	}
	if tag == form.Text {
		p, err := w.parser(st, "get_standard_units", "")
		if err != nil {
			return false
		}
		if x, err = p.ParseQuantity(x.(string)); err != nil {
			return false
		}
		tag = p.Name()
	}
	f, _ := w.forms.Get(tag)
	u, err := w.convert(st, unit, ConvertOpts{ToForm: tag, ToType: ToUnit})
	if err != nil {
		w.logger.Debug().Err(err).Str("unit", unit).Str("form", tag).Msg("adimensional standard not representable")
		return false
	}
	ok, err := f.Compatible(x, u)
	return err == nil && ok
}

// lstsq expresses target as a product of powers of the basis units. The
// least-squares exponents are rounded to st.Decimals and accepted only if
// they reconstruct target; otherwise ok is false.
func (w *Wizard) lstsq(st kernel.State, target []float64, basis []kernel.Standard) (string, bool) {
	m, n := len(st.Order), len(basis)
	if n == 0 {
		return "", false
	}
	a := mat.NewDense(m, n, nil)
	for j, b := range basis {
		for i, e := range dimension.Array(b.Dims, st.Order) {
			a.Set(i, j, e)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return "", false
	}
	rcond := math.Nextafter(1, 2) - 1
	rank := svd.Rank(rcond * float64(max(m, n)))
	if rank == 0 {
		return "", false
	}
	var x mat.VecDense
	svd.SolveVecTo(&x, mat.NewVecDense(m, append([]float64(nil), target...)), rank)

	scale := math.Pow(10, float64(st.Decimals))
	exps := make([]float64, n)
	for j := range exps {
		exps[j] = math.RoundToEven(x.AtVec(j)*scale) / scale
	}

	var got mat.VecDense
	got.MulVec(a, mat.NewVecDense(n, exps))
	if !value.AllClose(got.RawVector().Data, target, DefaultRTol, DefaultATol) {
		w.logger.Debug().Floats64("target", target).Floats64("exponents", exps).Msg("least squares rejected")
		return "", false
	}

	var parts []string
	for j, e := range exps {
		if math.Abs(e) <= dimension.ZeroTolerance {
			continue
		}
		parts = append(parts, "("+basis[j].Unit+")**"+strconv.FormatFloat(e, 'f', -1, 64))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " * "), true
}

// Standardize expresses x in its standard unit, in toForm (the default form
// when empty). A unit is replaced by its standard unit.
func (w *Wizard) Standardize(x any, toForm string) (any, error) {
	out, err := w.standardize(w.State(), x, toForm)
	return out, w.fail(err)
}

func (w *Wizard) standardize(st kernel.State, x any, toForm string) (any, error) {
	if toForm == "" {
		toForm = st.DefaultForm
	}
	if tag, err := w.formOf(x); err == nil && tag != form.Text {
		if f, _ := w.forms.Get(tag); f.IsUnit(x) && !f.IsQuantity(x) {
			return w.standardUnits(st, StandardOpts{X: x, Form: toForm})
		}
	}

	out, err := w.convert(st, x, ConvertOpts{ToForm: toForm})
	if err == nil {
		var std any
		if std, err = w.standardUnits(st, StandardOpts{X: out, Form: toForm}); err == nil {
			if out, err = w.convert(st, out, ConvertOpts{ToUnit: std}); err == nil {
				return out, nil
			}
		}
	}
	w.logger.Debug().Err(err).Str("to_form", toForm).Msg("standardize falls back to the input form")

	std, err := w.standardUnits(st, StandardOpts{X: x})
	if err != nil {
		return nil, err
	}
	return w.convert(st, x, ConvertOpts{ToUnit: std, ToForm: toForm})
}

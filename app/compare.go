package app

import (
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
)

// Default tolerances of AreClose.
const (
	DefaultRTol = 1e-5
	DefaultATol = 1e-8
)

// AreCompatible reports whether x and y measure the same dimensions.
// Two dimensionless values of different non-textual forms are compared with
// the forms' own rules, so an angle and a solid angle are incompatible.
func (w *Wizard) AreCompatible(x, y any) (bool, error) {
	ok, err := w.areCompatible(w.State(), x, y)
	return ok, w.fail(err)
}

// Compatibility is AreCompatible.
func (w *Wizard) Compatibility(x, y any) (bool, error) { return w.AreCompatible(x, y) }

func (w *Wizard) areCompatible(st kernel.State, x, y any) (bool, error) {
	fx, err := w.formOf(x)
	if err != nil {
		return false, err
	}
	fy, err := w.formOf(y)
	if err != nil {
		return false, err
	}
	dx, err := w.dimensionality(st, x)
	if err != nil {
		return false, err
	}
	dy, err := w.dimensionality(st, y)
	if err != nil {
		return false, err
	}
	if fx == form.Text || fy == form.Text || !dimension.IsDimensionless(dx) || !dimension.IsDimensionless(dy) {
		return dimension.Compatible(dx, dy), nil
	}

	if fx == fy {
		f, _ := w.forms.Get(fx)
		return f.Compatible(x, y)
	}
	if tmp, err := w.convert(st, x, ConvertOpts{ToForm: fy}); err == nil {
		f, _ := w.forms.Get(fy)
		if ok, err := f.Compatible(tmp, y); err == nil {
			return ok, nil
		}
	}
	tmp, err := w.convert(st, y, ConvertOpts{ToForm: fx})
	if err != nil {
		return false, err
	}
	f, _ := w.forms.Get(fx)
	return f.Compatible(tmp, x)
}

// commonForm picks the non-textual form two operands are compared in.
func commonForm(st kernel.State, fx, fy string) string {
	switch {
	case fx != form.Text:
		return fx
	case fy != form.Text:
		return fy
	}
	return st.DefaultForm
}

// alignedValues returns the magnitudes of x and y expressed in x's unit.
func (w *Wizard) alignedValues(st kernel.State, x, y any) (any, any, error) {
	fx, err := w.formOf(x)
	if err != nil {
		return nil, nil, err
	}
	fy, err := w.formOf(y)
	if err != nil {
		return nil, nil, err
	}
	common := commonForm(st, fx, fy)

	qx, err := w.convert(st, x, ConvertOpts{ToForm: common})
	if err != nil {
		return nil, nil, err
	}
	ux, err := w.convert(st, qx, ConvertOpts{ToType: ToUnit})
	if err != nil {
		return nil, nil, err
	}
	vx, err := w.convert(st, qx, ConvertOpts{ToType: ToValue})
	if err != nil {
		return nil, nil, err
	}
	qy, err := w.convert(st, y, ConvertOpts{ToForm: common})
	if err != nil {
		return nil, nil, err
	}
	vy, err := w.convert(st, qy, ConvertOpts{ToUnit: ux, ToType: ToValue})
	if err != nil {
		return nil, nil, err
	}
	return vx, vy, nil
}

// AreClose reports whether x and y are compatible and their magnitudes, in
// x's unit, satisfy |a-b| <= atol + rtol*|b| element-wise.
func (w *Wizard) AreClose(x, y any, rtol, atol float64) (bool, error) {
	st := w.State()
	ok, err := w.areCompatible(st, x, y)
	if err != nil || !ok {
		return false, w.fail(err)
	}
	vx, vy, err := w.alignedValues(st, x, y)
	if err != nil {
		return false, w.fail(err)
	}
	return value.AllClose(vx, vy, rtol, atol), nil
}

// Similarity is AreClose with the given relative tolerance and the default
// absolute tolerance.
func (w *Wizard) Similarity(x, y any, relTol float64) (bool, error) {
	return w.AreClose(x, y, relTol, DefaultATol)
}

// AreEqual reports whether x and y are equal quantities (identical
// magnitudes in x's unit) or equal units. With sameForm set, values of
// different forms are never equal.
func (w *Wizard) AreEqual(x, y any, sameForm bool) (bool, error) {
	st := w.State()
	ok, err := w.areEqual(st, x, y, sameForm)
	return ok, w.fail(err)
}

func (w *Wizard) areEqual(st kernel.State, x, y any, sameForm bool) (bool, error) {
	fx, err := w.formOf(x)
	if err != nil {
		return false, err
	}
	fy, err := w.formOf(y)
	if err != nil {
		return false, err
	}
	if sameForm && fx != fy {
		return false, nil
	}
	ok, err := w.areCompatible(st, x, y)
	if err != nil || !ok {
		return false, err
	}

	if w.isQuantity(st, x) && w.isQuantity(st, y) {
		vx, vy, err := w.alignedValues(st, x, y)
		if err != nil {
			return false, err
		}
		return value.Equal(vx, vy), nil
	}
	if w.isUnit(st, x) && w.isUnit(st, y) {
		common := commonForm(st, fx, fy)
		sx, err := w.unitText(st, x, common)
		if err != nil {
			return false, err
		}
		sy, err := w.unitText(st, y, common)
		if err != nil {
			return false, err
		}
		return sx == sy, nil
	}
	return false, nil
}

// unitText renders the unit of x after moving it into the common form.
func (w *Wizard) unitText(st kernel.State, x any, common string) (string, error) {
	u, err := w.convert(st, x, ConvertOpts{ToForm: common, ToType: ToUnit})
	if err != nil {
		return "", err
	}
	f, err := w.formByName("are_equal", common)
	if err != nil {
		return "", err
	}
	return f.UnitString(u)
}

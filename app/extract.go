package app

import (
	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
)

// ValueOpts parameterizes Value and ValueAndUnit.
type ValueOpts struct {
	ToUnit any
	// ToForm is the form of the unit returned by ValueAndUnit.
	ToForm       string
	Parser       string
	Standardized bool
}

// UnitOpts parameterizes UnitOf.
type UnitOpts struct {
	ToForm       string
	Parser       string
	Standardized bool
}

// Value returns the magnitude of q, optionally in another unit or in
// standard units. Text is parsed into the default form first.
func (w *Wizard) Value(q any, o ValueOpts) (any, error) {
	st := w.State()
	v, _, err := w.valueAndUnit(st, q, o, false)
	return v, w.fail(err)
}

// UnitOf returns the unit of q.
func (w *Wizard) UnitOf(q any, o UnitOpts) (any, error) {
	st := w.State()
	if o.Standardized {
		var err error
		if q, err = w.standardize(st, q, ""); err != nil {
			return nil, w.fail(err)
		}
	}
	u, err := w.convert(st, q, ConvertOpts{ToForm: o.ToForm, Parser: o.Parser, ToType: ToUnit})
	return u, w.fail(err)
}

// ValueAndUnit returns the magnitude and the unit of q.
func (w *Wizard) ValueAndUnit(q any, o ValueOpts) (any, any, error) {
	v, u, err := w.valueAndUnit(w.State(), q, o, true)
	return v, u, w.fail(err)
}

func (w *Wizard) valueAndUnit(st kernel.State, q any, o ValueOpts, withUnit bool) (any, any, error) {
	toUnit := o.ToUnit
	if o.Standardized {
		var err error
		if q, err = w.standardize(st, q, ""); err != nil {
			return nil, nil, err
		}
		toUnit = nil
	}
	v, err := w.convert(st, q, ConvertOpts{ToUnit: toUnit, Parser: o.Parser, ToType: ToValue})
	if err != nil || !withUnit {
		return v, nil, err
	}
	u, err := w.convert(st, q, ConvertOpts{ToUnit: toUnit, ToForm: o.ToForm, Parser: o.Parser, ToType: ToUnit})
	if err != nil {
		return nil, nil, err
	}
	return v, u, nil
}

// ChangeValue returns a quantity with q's unit and magnitude v.
func (w *Wizard) ChangeValue(q any, v any) (any, error) {
	st := w.State()
	tag, err := w.formOf(q)
	if err != nil {
		return nil, w.fail(err)
	}
	if tag != form.Text {
		f, _ := w.forms.Get(tag)
		out, err := f.ChangeValue(q, v)
		return out, w.fail(err)
	}
	p, err := w.parser(st, "change_value", "")
	if err != nil {
		return nil, w.fail(err)
	}
	parsed, err := p.ParseQuantity(q.(string))
	if err != nil {
		return nil, w.fail(err)
	}
	out, err := p.ChangeValue(parsed, v)
	if err != nil {
		return nil, w.fail(err)
	}
	s, err := p.QuantityString(out)
	return s, w.fail(err)
}

// QuantityOpts parameterizes Quantity.
type QuantityOpts struct {
	// Unit is text or a unit of any form. It may be omitted when the
	// magnitude is text holding both value and unit.
	Unit         any
	Form         string
	Parser       string
	Standardized bool
}

// Quantity builds a quantity from a magnitude and a unit in the requested
// form (the default form when omitted).
func (w *Wizard) Quantity(v any, o QuantityOpts) (any, error) {
	out, err := w.quantity(w.State(), v, o)
	return out, w.fail(err)
}

func (w *Wizard) quantity(st kernel.State, v any, o QuantityOpts) (any, error) {
	toForm := o.Form
	if toForm == "" {
		toForm = st.DefaultForm
	}
	f, err := w.formByName("quantity", toForm)
	if err != nil {
		return nil, err
	}

	var out any
	if s, isText := v.(string); isText {
		switch u := o.Unit.(type) {
		case nil:
			if out, err = w.convert(st, s, ConvertOpts{ToForm: toForm, Parser: o.Parser}); err != nil {
				return nil, err
			}
			if !w.isQuantity(st, out) {
				return nil, errs.Argument("quantity", "value", v)
			}
		case string:
			if out, err = w.convert(st, s+" "+u, ConvertOpts{ToForm: toForm, Parser: o.Parser}); err != nil {
				return nil, err
			}
		default:
			us, err := w.convert(st, u, ConvertOpts{ToForm: form.Text, Parser: o.Parser, ToType: ToUnit})
			if err != nil {
				return nil, err
			}
			if out, err = w.convert(st, s+" "+us.(string), ConvertOpts{ToForm: toForm, Parser: o.Parser}); err != nil {
				return nil, err
			}
		}
	} else {
		if o.Unit == nil {
			return nil, errs.Argument("quantity", "unit", nil)
		}
		u, err := w.convert(st, o.Unit, ConvertOpts{ToForm: toForm, Parser: o.Parser, ToType: ToUnit})
		if err != nil {
			return nil, err
		}
		if out, err = f.MakeQuantity(v, u); err != nil {
			return nil, errs.NotImplementedMethod("quantity").Wrap(err)
		}
	}

	if o.Standardized {
		return w.standardize(st, out, toForm)
	}
	return out, nil
}

// Unit parses or translates a unit into the requested form.
func (w *Wizard) Unit(u any, o UnitOpts) (any, error) {
	st := w.State()
	out, err := w.convert(st, u, ConvertOpts{ToForm: o.ToForm, Parser: o.Parser, ToType: ToUnit})
	return out, w.fail(err)
}

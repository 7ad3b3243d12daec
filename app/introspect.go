package app

import (
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
)

// IsQuantity reports whether x is a quantity of a loaded form. Text is a
// quantity when the default parser accepts it. Never fails.
func (w *Wizard) IsQuantity(x any) bool {
	return w.isQuantity(w.State(), x)
}

func (w *Wizard) isQuantity(st kernel.State, x any) bool {
	tag, err := w.formOf(x)
	if err != nil {
		w.identifyMiss("is_quantity", x, err)
		return false
	}
	if tag == form.Text {
		out, err := w.convert(st, x, ConvertOpts{ToForm: st.DefaultForm})
		if err != nil {
			w.identifyMiss("is_quantity", x, err)
			return false
		}
		f, ok := w.forms.Get(st.DefaultForm)
		return ok && f.IsQuantity(out)
	}
	f, _ := w.forms.Get(tag)
	return form.Probe(f.IsQuantity, x)
}

// IsUnit reports whether x is a unit of a loaded form. Text is a unit when
// it parses to a magnitude of one. Never fails.
func (w *Wizard) IsUnit(x any) bool {
	return w.isUnit(w.State(), x)
}

func (w *Wizard) isUnit(st kernel.State, x any) bool {
	tag, err := w.formOf(x)
	if err != nil {
		w.identifyMiss("is_unit", x, err)
		return false
	}
	if tag == form.Text {
		v, err := w.convert(st, x, ConvertOpts{ToType: ToValue})
		if err != nil {
			w.identifyMiss("is_unit", x, err)
			return false
		}
		return value.Equal(v, 1)
	}
	f, _ := w.forms.Get(tag)
	return form.Probe(f.IsUnit, x)
}

func (w *Wizard) identifyMiss(op string, x any, err error) {
	w.logger.Debug().Err(err).Str("op", op).Type("input", x).Msg("identification miss")
}

// Dimensionality returns the padded dimension vector of x.
func (w *Wizard) Dimensionality(x any) (dimension.Vector, error) {
	d, err := w.dimensionality(w.State(), x)
	return d, w.fail(err)
}

func (w *Wizard) dimensionality(st kernel.State, x any) (dimension.Vector, error) {
	tag, err := w.formOf(x)
	if err != nil {
		return nil, err
	}
	f, _ := w.forms.Get(tag)
	if tag == form.Text {
		p, err := w.parser(st, "get_dimensionality", "")
		if err != nil {
			return nil, err
		}
		if x, err = p.ParseQuantity(x.(string)); err != nil {
			return nil, err
		}
		f = p
	}
	d, err := f.Dimensionality(x)
	if err != nil {
		return nil, err
	}
	return dimension.Pad(d), nil
}

// IsDimensionless reports whether every exponent of x is zero.
func (w *Wizard) IsDimensionless(x any) (bool, error) {
	d, err := w.dimensionality(w.State(), x)
	if err != nil {
		return false, w.fail(err)
	}
	return dimension.IsDimensionless(d), nil
}

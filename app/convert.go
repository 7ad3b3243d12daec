package app

import (
	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/value"
)

// ToType selects what Convert returns.
type ToType string

const (
	ToQuantity ToType = "quantity"
	ToUnit     ToType = "unit"
	ToValue    ToType = "value"
)

// ConvertOpts parameterizes Convert. Zero fields take their defaults: the
// input form (or the default form for text), the default parser and
// ToQuantity.
type ConvertOpts struct {
	// ToUnit is a unit in any form, or text.
	ToUnit any
	ToForm string
	Parser string
	ToType ToType
}

// Convert changes the unit, form and/or representation of x.
func (w *Wizard) Convert(x any, o ConvertOpts) (any, error) {
	out, err := w.convert(w.State(), x, o)
	return out, w.fail(err)
}

// ToString renders x as text, optionally in another unit.
func (w *Wizard) ToString(x any, toUnit any, parser string) (string, error) {
	out, err := w.convert(w.State(), x, ConvertOpts{ToUnit: toUnit, ToForm: form.Text, Parser: parser})
	if err != nil {
		return "", w.fail(err)
	}
	return out.(string), nil
}

func (w *Wizard) convert(st kernel.State, x any, o ConvertOpts) (any, error) {
	switch o.ToType {
	case "":
		o.ToType = ToQuantity
	case ToQuantity, ToUnit, ToValue:
	default:
		return nil, errs.Argument("convert", "to_type", o.ToType)
	}

	formIn, err := w.formOf(x)
	if err != nil {
		return nil, err
	}
	toForm := o.ToForm
	if toForm == "" {
		toForm = formIn
		if formIn == form.Text {
			toForm = st.DefaultForm
		}
	}
	target, err := w.formByName("convert", toForm)
	if err != nil {
		return nil, err
	}

	switch {
	case formIn == form.Text && toForm == form.Text:
		return w.convertTextToText(st, x.(string), o)
	case formIn == form.Text:
		return w.convertTextToObject(st, x.(string), target, o)
	case toForm == form.Text:
		src, _ := w.forms.Get(formIn)
		return w.convertObjectToText(st, x, src, o)
	default:
		src, _ := w.forms.Get(formIn)
		return w.convertObjects(st, x, src, target, o)
	}
}

// text -> text: parse with the parser, work there, render back.
func (w *Wizard) convertTextToText(st kernel.State, s string, o ConvertOpts) (any, error) {
	p, err := w.parser(st, "convert", o.Parser)
	if err != nil {
		return nil, err
	}
	out, err := p.ParseQuantity(s)
	if err != nil {
		return nil, err
	}
	if o.ToUnit != nil {
		if out, err = w.changeUnit(st, p, out, o.ToUnit, o.Parser); err != nil {
			return nil, err
		}
	}
	w.rec.Conversion(form.Text, form.Text, "parse")
	return w.narrow(p, out, o.ToType, true)
}

// text -> object: parse into the target form.
func (w *Wizard) convertTextToObject(st kernel.State, s string, target form.Form, o ConvertOpts) (any, error) {
	asUnit := o.ToType == ToUnit && o.ToUnit == nil && !hasMagnitude(s)
	out, err := w.parseInto(st, s, target, o.Parser, asUnit)
	if err != nil {
		return nil, err
	}
	if o.ToUnit != nil {
		if out, err = w.changeUnit(st, target, out, o.ToUnit, o.Parser); err != nil {
			return nil, err
		}
	}
	w.rec.Conversion(form.Text, target.Name(), "parse")
	return w.narrow(target, out, o.ToType, false)
}

// object -> text: optionally change unit in the source form, then render.
func (w *Wizard) convertObjectToText(st kernel.State, x any, src form.Form, o ConvertOpts) (any, error) {
	out := x
	if o.ToUnit != nil {
		var err error
		if out, err = w.changeUnit(st, src, out, o.ToUnit, o.Parser); err != nil {
			return nil, err
		}
	}
	w.rec.Conversion(src.Name(), form.Text, "render")
	return w.narrow(src, out, o.ToType, true)
}

// object -> object: reuse, bridge or pivot, then change unit in the target.
func (w *Wizard) convertObjects(st kernel.State, x any, src, target form.Form, o ConvertOpts) (any, error) {
	out, err := w.translate(st, x, src, target, src.IsUnit(x) && !src.IsQuantity(x), o.Parser)
	if err != nil {
		return nil, err
	}
	if o.ToUnit != nil {
		if out, err = w.changeUnit(st, target, out, o.ToUnit, o.Parser); err != nil {
			return nil, err
		}
	}
	return w.narrow(target, out, o.ToType, false)
}

// translate moves a value between two non-textual forms, or renders it
// when the target is text.
func (w *Wizard) translate(st kernel.State, x any, src, target form.Form, isUnit bool, parser string) (any, error) {
	from, to := src.Name(), target.Name()
	if from == to {
		w.rec.Conversion(from, to, "same")
		return x, nil
	}
	if br, ok := w.forms.Bridge(from, to); ok {
		fn := br.Quantity
		if isUnit {
			fn = br.Unit
		}
		if fn != nil {
			w.rec.Conversion(from, to, "bridge")
			return fn(x)
		}
	}

	text, err := render(src, x, isUnit)
	if err != nil {
		return nil, err
	}
	if to == form.Text {
		w.rec.Conversion(from, to, "render")
		return text, nil
	}
	w.rec.Conversion(from, to, "pivot")
	if target.HasParser() {
		return parseWith(target, text, isUnit)
	}

	// The target cannot parse: parse with the active parser and bridge.
	p, err := w.parser(st, "convert", parser)
	if err != nil {
		return nil, err
	}
	if p.Name() == from {
		return nil, missingTranslator(from, to)
	}
	br, ok := w.forms.Bridge(p.Name(), to)
	if !ok {
		return nil, missingTranslator(from, to)
	}
	parsed, err := parseWith(p, text, isUnit)
	if err != nil {
		return nil, err
	}
	if isUnit {
		if br.Unit == nil {
			return nil, missingTranslator(from, to)
		}
		return br.Unit(parsed)
	}
	if br.Quantity == nil {
		return nil, missingTranslator(from, to)
	}
	return br.Quantity(parsed)
}

func missingTranslator(from, to string) error {
	return errs.NotImplementedMethod("convert").WithDetail("no translator from %q to %q", from, to)
}

// parseInto parses text with the parser and moves the result into target.
func (w *Wizard) parseInto(st kernel.State, s string, target form.Form, parser string, asUnit bool) (any, error) {
	p, err := w.parser(st, "convert", parser)
	if err != nil {
		return nil, err
	}
	parsed, err := parseWith(p, s, asUnit)
	if err != nil {
		return nil, err
	}
	return w.translate(st, parsed, p, target, asUnit, parser)
}

// changeUnit converts q into unit within f. A bare unit is first turned into
// a quantity of one.
func (w *Wizard) changeUnit(st kernel.State, f form.Form, q any, unit any, parser string) (any, error) {
	u, err := w.unitIn(st, f, unit, parser)
	if err != nil {
		return nil, err
	}
	if f.IsUnit(q) && !f.IsQuantity(q) {
		if q, err = f.MakeQuantity(1, q); err != nil {
			return nil, err
		}
	}
	return f.Convert(q, u)
}

// unitIn expresses unit, given as text or in any form, as a unit of f.
func (w *Wizard) unitIn(st kernel.State, f form.Form, unit any, parser string) (any, error) {
	if s, ok := unit.(string); ok {
		if f.Name() == form.Text {
			return s, nil
		}
		return w.parseInto(st, s, f, parser, true)
	}
	return w.convert(st, unit, ConvertOpts{ToForm: f.Name(), Parser: parser, ToType: ToUnit})
}

// narrow applies the requested ToType to out, a value of f. With text set
// the result is rendered.
func (w *Wizard) narrow(f form.Form, out any, t ToType, text bool) (any, error) {
	isUnit := f.IsUnit(out) && !f.IsQuantity(out)
	switch t {
	case ToUnit:
		u := out
		if !isUnit {
			var err error
			if u, err = f.Unit(out); err != nil {
				return nil, err
			}
		}
		if text {
			return f.UnitString(u)
		}
		return u, nil
	case ToValue:
		var v any = 1
		if !isUnit {
			var err error
			if v, err = f.Value(out); err != nil {
				return nil, err
			}
		}
		if text {
			return value.Format(v), nil
		}
		return v, nil
	}
	if text {
		return render(f, out, isUnit)
	}
	return out, nil
}

// hasMagnitude reports whether s starts with a number or array literal.
func hasMagnitude(s string) bool {
	_, _, ok, err := value.ParseLeading(s)
	return ok || err != nil
}

func render(f form.Form, x any, isUnit bool) (string, error) {
	if isUnit {
		return f.UnitString(x)
	}
	return f.QuantityString(x)
}

func parseWith(f form.Form, s string, asUnit bool) (any, error) {
	if asUnit {
		return f.ParseUnit(s)
	}
	return f.ParseQuantity(s)
}

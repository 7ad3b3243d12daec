package backend

import (
	"fmt"
	"strings"

	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
)

// Text is the textual form. It owns every Go string; interpreting the text
// needs a parser form, so the operations that look inside a value are
// resolved by the caller through the active parser.
type Text struct{}

// NewText creates the textual form.
func NewText() (form.Form, error) { return Text{}, nil }

func (Text) Name() string { return form.Text }

func (Text) IsQuantity(x any) bool {
	_, ok := x.(string)
	return ok
}

func (Text) IsUnit(x any) bool {
	_, ok := x.(string)
	return ok
}

func (Text) Dimensionality(any) (dimension.Vector, error) {
	return nil, errs.NotImplementedMethod("string.dimensionality")
}

func (Text) Compatible(any, any) (bool, error) {
	return false, errs.NotImplementedMethod("string.compatible")
}

// MakeQuantity renders "<value> <unit>".
func (Text) MakeQuantity(v any, u any) (any, error) {
	s, ok := u.(string)
	if !ok {
		return nil, fmt.Errorf("string: %T is not a unit", u)
	}
	return strings.TrimSpace(value.Format(v) + " " + s), nil
}

func (Text) Value(any) (any, error) { return nil, errs.NotImplementedMethod("string.value") }

func (Text) Unit(any) (any, error) { return nil, errs.NotImplementedMethod("string.unit") }

func (Text) ChangeValue(any, any) (any, error) {
	return nil, errs.NotImplementedMethod("string.change_value")
}

func (Text) Convert(any, any) (any, error) { return nil, errs.NotImplementedMethod("string.convert") }

// HasParser is false: text is parsed by another form, never by itself.
func (Text) HasParser() bool { return false }

func (Text) ParseQuantity(s string) (any, error) { return strings.TrimSpace(s), nil }

func (Text) ParseUnit(s string) (any, error) { return strings.TrimSpace(s), nil }

func (Text) QuantityString(q any) (string, error) { return asString(q) }

func (Text) UnitString(u any) (string, error) { return asString(u) }

func asString(x any) (string, error) {
	s, ok := x.(string)
	if !ok {
		return "", fmt.Errorf("string: %T is not text", x)
	}
	return s, nil
}

// Catalog lists the forms this build can provide, in identification order.
func Catalog() form.Catalog {
	return form.Catalog{
		{Tag: MeasureName, New: NewMeasure},
		{Tag: GonumName, New: NewGonum},
		{Tag: form.Text, New: NewText},
	}
}

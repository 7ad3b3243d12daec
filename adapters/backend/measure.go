// Package backend provides the quantity forms: the measure library, the
// gonum unit package and the textual representation.
package backend

import (
	"fmt"

	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/pkg/measure"
)

// MeasureName is the tag of the measure form.
const MeasureName = "measure"

// Measure is the form backed by pkg/measure. Quantities are
// *measure.Quantity and units are measure.Unit.
type Measure struct {
	reg *measure.Registry
}

// NewMeasure creates the measure form over the default unit registry.
func NewMeasure() (form.Form, error) {
	return &Measure{reg: measure.Default()}, nil
}

// NewMeasureWithRegistry creates the measure form over reg.
func NewMeasureWithRegistry(reg *measure.Registry) *Measure {
	return &Measure{reg: reg}
}

func (m *Measure) Name() string { return MeasureName }

func (m *Measure) IsQuantity(x any) bool {
	q, ok := x.(*measure.Quantity)
	return ok && q != nil
}

func (m *Measure) IsUnit(x any) bool {
	_, ok := x.(measure.Unit)
	return ok
}

func (m *Measure) unitOf(x any) (measure.Unit, error) {
	switch v := x.(type) {
	case *measure.Quantity:
		return v.Unit(), nil
	case measure.Unit:
		return v, nil
	}
	return measure.Unit{}, fmt.Errorf("measure: %T is neither quantity nor unit", x)
}

func (m *Measure) quantity(x any) (*measure.Quantity, error) {
	q, ok := x.(*measure.Quantity)
	if !ok || q == nil {
		return nil, fmt.Errorf("measure: %T is not a quantity", x)
	}
	return q, nil
}

func (m *Measure) Dimensionality(x any) (dimension.Vector, error) {
	u, err := m.unitOf(x)
	if err != nil {
		return nil, err
	}
	return fromMeasureDims(u.Dimensions()), nil
}

// Compatible compares full dimensions, so radian and steradian differ even
// though both are dimensionless as vectors.
func (m *Measure) Compatible(a, b any) (bool, error) {
	ua, err := m.unitOf(a)
	if err != nil {
		return false, err
	}
	ub, err := m.unitOf(b)
	if err != nil {
		return false, err
	}
	return ua.Compatible(ub), nil
}

func (m *Measure) MakeQuantity(v any, unit any) (any, error) {
	u, ok := unit.(measure.Unit)
	if !ok {
		return nil, fmt.Errorf("measure: %T is not a unit", unit)
	}
	return measure.NewQuantity(v, u)
}

func (m *Measure) Value(q any) (any, error) {
	mq, err := m.quantity(q)
	if err != nil {
		return nil, err
	}
	return mq.Value(), nil
}

func (m *Measure) Unit(q any) (any, error) {
	mq, err := m.quantity(q)
	if err != nil {
		return nil, err
	}
	return mq.Unit(), nil
}

func (m *Measure) ChangeValue(q any, v any) (any, error) {
	mq, err := m.quantity(q)
	if err != nil {
		return nil, err
	}
	return mq.WithValue(v)
}

func (m *Measure) Convert(q any, unit any) (any, error) {
	mq, err := m.quantity(q)
	if err != nil {
		return nil, err
	}
	u, ok := unit.(measure.Unit)
	if !ok {
		return nil, fmt.Errorf("measure: %T is not a unit", unit)
	}
	return mq.To(u)
}

func (m *Measure) HasParser() bool { return true }

func (m *Measure) ParseQuantity(s string) (any, error) { return m.reg.ParseQuantity(s) }

func (m *Measure) ParseUnit(s string) (any, error) { return m.reg.ParseUnit(s) }

func (m *Measure) QuantityString(q any) (string, error) {
	mq, err := m.quantity(q)
	if err != nil {
		return "", err
	}
	return mq.String(), nil
}

func (m *Measure) UnitString(u any) (string, error) {
	mu, ok := u.(measure.Unit)
	if !ok {
		return "", fmt.Errorf("measure: %T is not a unit", u)
	}
	return mu.String(), nil
}

// Bridges translates measure values into gonum values.
func (m *Measure) Bridges() []form.Bridge {
	return []form.Bridge{{
		To:       GonumName,
		Quantity: measureQuantityToGonum,
		Unit:     func(u any) (any, error) { return measureUnitToGonum(u) },
	}}
}

var measureToVector = [...]struct {
	idx int
	sym dimension.Symbol
}{
	{measure.Length, dimension.Length},
	{measure.Mass, dimension.Mass},
	{measure.Time, dimension.Time},
	{measure.Temperature, dimension.Temperature},
	{measure.Substance, dimension.Substance},
	{measure.Current, dimension.Current},
	{measure.Luminosity, dimension.Luminosity},
}

func fromMeasureDims(d measure.Dimensions) dimension.Vector {
	out := make(dimension.Vector, len(measureToVector))
	for _, m := range measureToVector {
		out[m.sym] = d[m.idx]
	}
	return out
}

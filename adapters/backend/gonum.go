package backend

import (
	"fmt"
	"math"
	"strings"

	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
	"github.com/artpar/unitwizard/pkg/measure"
	"gonum.org/v1/gonum/unit"
)

// GonumName is the tag of the gonum form.
const GonumName = "gonum"

// Gonum is the form backed by gonum.org/v1/gonum/unit. Quantities are any
// unit.Uniter and units are unit.Dimensions. gonum stores scalar magnitudes
// in SI coherent units with integer exponents and has no parser.
type Gonum struct{}

// NewGonum creates the gonum form.
func NewGonum() (form.Form, error) { return Gonum{}, nil }

// gonumDims pairs gonum base dimensions with measure indexes and the SI
// coherent unit names used to render them.
var gonumDims = [...]struct {
	dim  unit.Dimension
	idx  int
	name string
}{
	{unit.LengthDim, measure.Length, "meter"},
	{unit.MassDim, measure.Mass, "kilogram"},
	{unit.TimeDim, measure.Time, "second"},
	{unit.TemperatureDim, measure.Temperature, "kelvin"},
	{unit.MoleDim, measure.Substance, "mole"},
	{unit.CurrentDim, measure.Current, "ampere"},
	{unit.LuminousIntensityDim, measure.Luminosity, "candela"},
	{unit.AngleDim, measure.Angle, "radian"},
}

func (Gonum) Name() string { return GonumName }

func (Gonum) IsQuantity(x any) bool {
	if _, ok := x.(unit.Dimensions); ok {
		return false
	}
	u, ok := x.(unit.Uniter)
	if !ok {
		return false
	}
	return u.Unit() != nil
}

func (Gonum) IsUnit(x any) bool {
	_, ok := x.(unit.Dimensions)
	return ok
}

func (g Gonum) dimsOf(x any) (unit.Dimensions, error) {
	switch v := x.(type) {
	case unit.Dimensions:
		return v, nil
	case unit.Uniter:
		return v.Unit().Dimensions(), nil
	}
	return nil, fmt.Errorf("gonum: %T is neither quantity nor unit", x)
}

func (g Gonum) Dimensionality(x any) (dimension.Vector, error) {
	d, err := g.dimsOf(x)
	if err != nil {
		return nil, err
	}
	return fromMeasureDims(gonumToMeasureDims(d)), nil
}

func (g Gonum) Compatible(a, b any) (bool, error) {
	da, err := g.dimsOf(a)
	if err != nil {
		return false, err
	}
	db, err := g.dimsOf(b)
	if err != nil {
		return false, err
	}
	return unit.DimensionsMatch(unit.New(1, da), unit.New(1, db)), nil
}

func (g Gonum) MakeQuantity(v any, u any) (any, error) {
	d, ok := u.(unit.Dimensions)
	if !ok {
		return nil, fmt.Errorf("gonum: %T is not a unit", u)
	}
	f, err := value.Float(v)
	if err != nil {
		return nil, fmt.Errorf("gonum quantities hold scalars only: %w", err)
	}
	return unit.New(f, copyDims(d)), nil
}

func (g Gonum) uniter(q any) (unit.Uniter, error) {
	if !g.IsQuantity(q) {
		return nil, fmt.Errorf("gonum: %T is not a quantity", q)
	}
	return q.(unit.Uniter), nil
}

func (g Gonum) Value(q any) (any, error) {
	u, err := g.uniter(q)
	if err != nil {
		return nil, err
	}
	return u.Unit().Value(), nil
}

func (g Gonum) Unit(q any) (any, error) {
	u, err := g.uniter(q)
	if err != nil {
		return nil, err
	}
	return copyDims(u.Unit().Dimensions()), nil
}

func (g Gonum) ChangeValue(q any, v any) (any, error) {
	u, err := g.uniter(q)
	if err != nil {
		return nil, err
	}
	return g.MakeQuantity(v, u.Unit().Dimensions())
}

// Convert only relabels: every gonum unit is SI coherent, so a compatible
// target never changes the magnitude.
func (g Gonum) Convert(q any, to any) (any, error) {
	u, err := g.uniter(q)
	if err != nil {
		return nil, err
	}
	d, ok := to.(unit.Dimensions)
	if !ok {
		return nil, fmt.Errorf("gonum: %T is not a unit", to)
	}
	if !unit.DimensionsMatch(u, unit.New(1, d)) {
		return nil, fmt.Errorf("%w: gonum cannot convert %v to %v", measure.ErrIncompatible, u.Unit().Dimensions(), d)
	}
	return unit.New(u.Unit().Value(), copyDims(d)), nil
}

func (Gonum) HasParser() bool { return false }

func (Gonum) ParseQuantity(string) (any, error) {
	return nil, errs.LibraryWithoutParser("string_to_quantity", GonumName)
}

func (Gonum) ParseUnit(string) (any, error) {
	return nil, errs.LibraryWithoutParser("string_to_unit", GonumName)
}

func (g Gonum) QuantityString(q any) (string, error) {
	u, err := g.uniter(q)
	if err != nil {
		return "", err
	}
	return value.Format(u.Unit().Value()) + " " + gonumUnitString(u.Unit().Dimensions()), nil
}

func (g Gonum) UnitString(u any) (string, error) {
	d, ok := u.(unit.Dimensions)
	if !ok {
		return "", fmt.Errorf("gonum: %T is not a unit", u)
	}
	return gonumUnitString(d), nil
}

// Bridges translates gonum values into measure values.
func (g Gonum) Bridges() []form.Bridge {
	return []form.Bridge{{
		To: MeasureName,
		Quantity: func(q any) (any, error) {
			u, err := g.uniter(q)
			if err != nil {
				return nil, err
			}
			mu, err := gonumToMeasureUnit(u.Unit().Dimensions())
			if err != nil {
				return nil, err
			}
			return measure.NewQuantity(u.Unit().Value(), mu)
		},
		Unit: func(u any) (any, error) {
			d, ok := u.(unit.Dimensions)
			if !ok {
				return nil, fmt.Errorf("gonum: %T is not a unit", u)
			}
			return gonumToMeasureUnit(d)
		},
	}}
}

func gonumToMeasureDims(d unit.Dimensions) measure.Dimensions {
	var out measure.Dimensions
	for _, g := range gonumDims {
		out[g.idx] = float64(d[g.dim])
	}
	return out
}

// gonumExpression writes d as a product of SI coherent unit names.
func gonumExpression(d unit.Dimensions) string {
	var parts []string
	for _, g := range gonumDims {
		e := d[g.dim]
		switch {
		case e == 0:
		case e == 1:
			parts = append(parts, g.name)
		default:
			parts = append(parts, fmt.Sprintf("%s**%d", g.name, e))
		}
	}
	return strings.Join(parts, " * ")
}

func gonumToMeasureUnit(d unit.Dimensions) (measure.Unit, error) {
	return measure.ParseUnit(gonumExpression(d))
}

func gonumUnitString(d unit.Dimensions) string {
	u, err := gonumToMeasureUnit(d)
	if err != nil {
		return d.String()
	}
	return u.String()
}

// measureUnitToGonum maps a measure unit onto gonum dimensions. Only SI
// coherent units with integer exponents are representable.
func measureUnitToGonum(u any) (unit.Dimensions, error) {
	mu, ok := u.(measure.Unit)
	if !ok {
		return nil, fmt.Errorf("measure: %T is not a unit", u)
	}
	if f := mu.Factor(); math.Abs(f-1) > 1e-12 {
		return nil, errs.NotImplementedMethod("unit_to_gonum").
			WithDetail("unit %q is not SI coherent (factor %g) and has no gonum equivalent", mu, f)
	}
	return measureDimsToGonum(mu.Dimensions())
}

func measureDimsToGonum(md measure.Dimensions) (unit.Dimensions, error) {
	d := make(unit.Dimensions)
	for _, g := range gonumDims {
		e := md[g.idx]
		if e == 0 {
			continue
		}
		if e != math.Trunc(e) {
			return nil, errs.NotImplementedMethod("unit_to_gonum").
				WithDetail("gonum dimensions need integer exponents, got %g", e)
		}
		d[g.dim] = int(e)
	}
	return d, nil
}

// measureQuantityToGonum expresses q in SI coherent units.
func measureQuantityToGonum(q any) (any, error) {
	mq, ok := q.(*measure.Quantity)
	if !ok || mq == nil {
		return nil, fmt.Errorf("measure: %T is not a quantity", q)
	}
	d, err := measureDimsToGonum(mq.Unit().Dimensions())
	if err != nil {
		return nil, err
	}
	f, err := value.Float(mq.Value())
	if err != nil {
		return nil, errs.NotImplementedMethod("quantity_to_gonum").
			WithDetail("gonum quantities hold scalars only").Wrap(err)
	}
	return unit.New(f*mq.Unit().Factor(), d), nil
}

func copyDims(d unit.Dimensions) unit.Dimensions {
	out := make(unit.Dimensions, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

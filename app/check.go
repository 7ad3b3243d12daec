package app

import (
	"reflect"

	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/domain/value"
)

// CheckOpts lists the constraints Check verifies. Zero fields are skipped.
type CheckOpts struct {
	Dimensionality dimension.Vector
	// ValueType must be assignable from the magnitude's type.
	ValueType reflect.Type
	// Shape is compared when non-nil; an empty non-nil slice means scalar.
	Shape     []int
	Unit      any
	DTypeName string
}

// Check reports whether x is a quantity or unit satisfying every constraint
// in o. Magnitude constraints are ignored for units.
func (w *Wizard) Check(x any, o CheckOpts) (bool, error) {
	st := w.State()

	switch {
	case w.isQuantity(st, x):
		if o.Unit != nil {
			u, err := w.convert(st, x, ConvertOpts{ToType: ToUnit})
			if err != nil {
				return false, w.fail(err)
			}
			if ok, err := w.areEqual(st, u, o.Unit, false); err != nil || !ok {
				return false, w.fail(err)
			}
		}
		if o.ValueType != nil || o.Shape != nil || o.DTypeName != "" {
			v, err := w.convert(st, x, ConvertOpts{ToType: ToValue})
			if err != nil {
				return false, w.fail(err)
			}
			if o.ValueType != nil && !reflect.TypeOf(v).AssignableTo(o.ValueType) {
				return false, nil
			}
			if o.Shape != nil {
				shape, err := value.Shape(v)
				if err != nil || !equalInts(shape, o.Shape) {
					return false, nil
				}
			}
			if o.DTypeName != "" {
				if name, ok := value.DTypeName(v); !ok || name != o.DTypeName {
					return false, nil
				}
			}
		}
	case w.isUnit(st, x):
		if o.Unit != nil {
			if ok, err := w.areEqual(st, x, o.Unit, false); err != nil || !ok {
				return false, w.fail(err)
			}
		}
	default:
		return false, nil
	}

	if o.Dimensionality != nil {
		d, err := w.dimensionality(st, x)
		if err != nil {
			return false, w.fail(err)
		}
		if !dimension.Compatible(d, o.Dimensionality) {
			return false, nil
		}
	}
	return true, nil
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

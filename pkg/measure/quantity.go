package measure

import (
	"fmt"

	"github.com/artpar/unitwizard/domain/value"
)

// Quantity is a magnitude paired with a Unit. It is immutable.
type Quantity struct {
	value any
	unit  Unit
}

// NewQuantity pairs v with u. v must be a scalar or array magnitude.
func NewQuantity(v any, u Unit) (*Quantity, error) {
	if _, _, err := value.Flatten(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValue, err)
	}
	return &Quantity{value: v, unit: u}, nil
}

// Value returns the magnitude.
func (q *Quantity) Value() any { return q.value }

// Unit returns the unit.
func (q *Quantity) Unit() Unit { return q.unit }

// To returns q expressed in u.
func (q *Quantity) To(u Unit) (*Quantity, error) {
	f, err := q.unit.ConversionFactor(u)
	if err != nil {
		return nil, err
	}
	v, err := value.Scale(q.value, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValue, err)
	}
	return &Quantity{value: v, unit: u}, nil
}

// WithValue returns a quantity holding v in the same unit.
func (q *Quantity) WithValue(v any) (*Quantity, error) { return NewQuantity(v, q.unit) }

func (q *Quantity) String() string {
	return value.Format(q.value) + " " + q.unit.String()
}

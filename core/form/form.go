// Package form defines the capability contract every quantity representation
// implements and the registry that routes values to their owning form.
package form

import "github.com/artpar/unitwizard/domain/dimension"

// Text is the tag of the textual representation ("5 meter").
const Text = "string"

// Form is the capability bundle of one quantity representation.
// Quantities and units are opaque values owned by the form.
type Form interface {
	// Name returns the form tag, e.g. "measure".
	Name() string

	// IsQuantity and IsUnit are total predicates; they must not panic on
	// foreign values, but the registry recovers if they do.
	IsQuantity(x any) bool
	IsUnit(x any) bool

	Dimensionality(x any) (dimension.Vector, error)

	// Compatible reports whether a and b can be converted into each other,
	// using the form's own rules for dimensionless values.
	Compatible(a, b any) (bool, error)

	MakeQuantity(v any, unit any) (any, error)
	Value(q any) (any, error)
	Unit(q any) (any, error)
	ChangeValue(q any, v any) (any, error)

	// Convert changes the unit of q within the form.
	Convert(q any, unit any) (any, error)

	// HasParser reports whether the form can parse text.
	HasParser() bool
	ParseQuantity(s string) (any, error)
	ParseUnit(s string) (any, error)

	QuantityString(q any) (string, error)
	UnitString(u any) (string, error)
}

// Bridge translates quantities and units from one form directly into
// another without pivoting through text.
type Bridge struct {
	To       string
	Quantity func(q any) (any, error)
	Unit     func(u any) (any, error)
}

// Bridger is implemented by forms that provide direct translators.
type Bridger interface {
	Bridges() []Bridge
}

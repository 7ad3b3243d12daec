package measure

import "strings"

// Base dimension indexes into Dimensions.
const (
	Length = iota
	Mass
	Time
	Temperature
	Substance
	Current
	Luminosity
	Angle
	NumDims
)

var dimSymbols = [NumDims]string{"[length]", "[mass]", "[time]", "[temperature]", "[substance]", "[current]", "[luminosity]", "[angle]"}

// Dimensions is the exponent vector of a unit over the base dimensions.
type Dimensions [NumDims]float64

func (d Dimensions) add(o Dimensions) Dimensions {
	for i := range d {
		d[i] += o[i]
	}
	return d
}

func (d Dimensions) scale(e float64) Dimensions {
	for i := range d {
		d[i] *= e
	}
	return d
}

// IsZero reports whether every exponent is zero.
func (d Dimensions) IsZero() bool {
	return d == Dimensions{}
}

// String renders the vector like "[length] / [time] ** 2".
func (d Dimensions) String() string {
	var num, den []string
	for i, e := range d {
		switch {
		case e > 0:
			num = append(num, powString(dimSymbols[i], e))
		case e < 0:
			den = append(den, powString(dimSymbols[i], -e))
		}
	}
	if len(num) == 0 && len(den) == 0 {
		return "dimensionless"
	}
	return joinFraction(num, den)
}

func joinFraction(num, den []string) string {
	var b strings.Builder
	if len(num) == 0 {
		b.WriteString("1")
	} else {
		b.WriteString(strings.Join(num, " * "))
	}
	for _, d := range den {
		b.WriteString(" / ")
		b.WriteString(d)
	}
	return b.String()
}

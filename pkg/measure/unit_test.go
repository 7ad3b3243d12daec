package measure_test

import (
	"errors"
	"math"
	"testing"

	"github.com/artpar/unitwizard/pkg/measure"
)

func TestParseUnit_Canonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"nm", "nanometer"},
		{"meters", "meter"},
		{"kJ/mol", "kilojoule / mole"},
		{"kJ/(mol*nm**2)", "kilojoule / mole / nanometer ** 2"},
		{"kilojoule / mole / nanometer", "kilojoule / mole / nanometer"},
		{"1/ps", "1 / picosecond"},
		{"m^2", "meter ** 2"},
		{"nm**-2", "1 / nanometer ** 2"},
		{"kcal mol^-1", "kilocalorie / mole"},
		{"m/m", "dimensionless"},
		{"", "dimensionless"},
		{"dimensionless", "dimensionless"},
		{"(nanometer)**-1 * (kilojoule)**1", "kilojoule / nanometer"},
		{"meter ** 0.5", "meter ** 0.5"},
		{"Å", "angstrom"},
		{"picoseconds", "picosecond"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := measure.ParseUnit(tt.in)
			if err != nil {
				t.Fatalf("ParseUnit(%q) error = %v", tt.in, err)
			}
			if got := u.String(); got != tt.want {
				t.Errorf("ParseUnit(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseUnit_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{"furlong", measure.ErrUndefinedUnit},
		{"m**", measure.ErrSyntax},
		{"2 m", measure.ErrSyntax},
		{"(m", measure.ErrSyntax},
		{"m)", measure.ErrSyntax},
		{"m % s", measure.ErrSyntax},
		{"m**(1/0)", measure.ErrSyntax},
		{"m**(1/)", measure.ErrSyntax},
	}
	for _, tt := range tests {
		if _, err := measure.ParseUnit(tt.in); !errors.Is(err, tt.want) {
			t.Errorf("ParseUnit(%q) error = %v, want %v", tt.in, err, tt.want)
		}
	}
}

func TestUnit_ConversionFactor(t *testing.T) {
	tests := []struct {
		from, to string
		want     float64
	}{
		{"nm", "angstrom", 10},
		{"kJ/mol", "J/mol", 1000},
		{"kcal/mol", "kJ/mol", 4.184},
		{"hour", "s", 3600},
		{"kg", "g", 1000},
		{"bar", "Pa", 1e5},
	}
	for _, tt := range tests {
		from := measure.Default().MustUnit(tt.from)
		to := measure.Default().MustUnit(tt.to)
		got, err := from.ConversionFactor(to)
		if err != nil {
			t.Fatalf("ConversionFactor(%s -> %s) error = %v", tt.from, tt.to, err)
		}
		if math.Abs(got-tt.want) > 1e-9*tt.want {
			t.Errorf("ConversionFactor(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestUnit_Incompatible(t *testing.T) {
	m := measure.Default().MustUnit("m")
	s := measure.Default().MustUnit("s")
	if m.Compatible(s) {
		t.Error("m.Compatible(s) = true, want false")
	}
	if _, err := m.ConversionFactor(s); !errors.Is(err, measure.ErrIncompatible) {
		t.Errorf("ConversionFactor() error = %v, want ErrIncompatible", err)
	}
	rad := measure.Default().MustUnit("rad")
	if rad.IsDimensionless() {
		t.Error("rad.IsDimensionless() = true, want false")
	}
}

func TestUnit_Dimensions(t *testing.T) {
	u := measure.Default().MustUnit("kJ/(mol*nm**2)")
	d := u.Dimensions()
	want := measure.Dimensions{}
	want[measure.Mass] = 1
	want[measure.Time] = -2
	want[measure.Substance] = -1
	if d != want {
		t.Errorf("Dimensions() = %v, want %v", d, want)
	}
	if got := d.String(); got != "[mass] / [time] ** 2 / [substance]" {
		t.Errorf("Dimensions().String() = %q", got)
	}
}

func TestUnit_EqualIgnoresOrder(t *testing.T) {
	a := measure.Default().MustUnit("kJ/mol")
	b := measure.Default().MustUnit("1/mol * kJ")
	if !a.Equal(b) {
		t.Errorf("%q.Equal(%q) = false, want true", a, b)
	}
	if a.Equal(measure.Default().MustUnit("J/mol")) {
		t.Error("kJ/mol equal to J/mol, want false")
	}
}

func TestParseUnit_RationalExponent(t *testing.T) {
	tests := []struct {
		in, same string
	}{
		{"m**(1/2)", "m**0.5"},
		{"m^(-3/2)", "m**-1.5"},
		{"s**(2/-4)", "s**-0.5"},
		{"nm**((2))", "nm**2"},
	}
	for _, tt := range tests {
		got, err := measure.ParseUnit(tt.in)
		if err != nil {
			t.Fatalf("ParseUnit(%q) error = %v", tt.in, err)
		}
		if want := measure.Default().MustUnit(tt.same); !got.Equal(want) {
			t.Errorf("ParseUnit(%q) = %q, want %q", tt.in, got, want)
		}
	}
}

func TestRegistry_Define(t *testing.T) {
	r := measure.NewRegistry()
	err := r.Define(measure.Definition{Name: "furlong", Symbol: "fur", Factor: 201.168, Dims: measure.Dimensions{1}})
	if err != nil {
		t.Fatalf("Define() error = %v", err)
	}
	u, err := r.ParseUnit("furlongs")
	if err != nil {
		t.Fatalf("ParseUnit(furlongs) error = %v", err)
	}
	if u.String() != "furlong" {
		t.Errorf("String() = %q, want furlong", u.String())
	}
	if err := r.Define(measure.Definition{Name: "meter", Factor: 1}); err == nil {
		t.Error("Define(meter) error = nil, want duplicate error")
	}
	if _, err := measure.ParseUnit("furlong"); err == nil {
		t.Error("Define() leaked into the default registry")
	}
}

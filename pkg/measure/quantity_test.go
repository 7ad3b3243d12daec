package measure_test

import (
	"errors"
	"testing"

	"github.com/artpar/unitwizard/domain/value"
	"github.com/artpar/unitwizard/pkg/measure"
	"gonum.org/v1/gonum/mat"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"5 meter", "5 meter"},
		{"1.5 nm", "1.5 nanometer"},
		{"meter", "1 meter"},
		{"3", "3 dimensionless"},
		{"2 / ps", "2 1 / picosecond"},
		{"[2, 5, 7] kJ/mol", "[2 5 7] kilojoule / mole"},
		{"[[2 5 7] [7 8 9]] joule", "[[2 5 7] [7 8 9]] joule"},
	}
	for _, tt := range tests {
		q, err := measure.ParseQuantity(tt.in)
		if err != nil {
			t.Fatalf("ParseQuantity(%q) error = %v", tt.in, err)
		}
		if got := q.String(); got != tt.want {
			t.Errorf("ParseQuantity(%q).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuantity_To(t *testing.T) {
	q, _ := measure.ParseQuantity("5 nm")
	got, err := q.To(measure.Default().MustUnit("angstrom"))
	if err != nil {
		t.Fatalf("To() error = %v", err)
	}
	if !value.AllClose(got.Value(), 50.0, 1e-9, 0) {
		t.Errorf("To(angstrom).Value() = %v, want 50", got.Value())
	}
	if got.Unit().String() != "angstrom" {
		t.Errorf("To(angstrom).Unit() = %q", got.Unit())
	}
	if q.Value() != 5 {
		t.Error("To() mutated the receiver")
	}

	if _, err := q.To(measure.Default().MustUnit("s")); !errors.Is(err, measure.ErrIncompatible) {
		t.Errorf("To(s) error = %v, want ErrIncompatible", err)
	}
}

func TestQuantity_ToArray(t *testing.T) {
	m := mat.NewDense(1, 2, []float64{1, 2})
	q, err := measure.NewQuantity(m, measure.Default().MustUnit("kJ"))
	if err != nil {
		t.Fatal(err)
	}
	got, err := q.To(measure.Default().MustUnit("J"))
	if err != nil {
		t.Fatal(err)
	}
	if !value.AllClose(got.Value(), mat.NewDense(1, 2, []float64{1000, 2000}), 1e-9, 0) {
		t.Errorf("To(J).Value() = %v", got.Value())
	}
}

func TestNewQuantity_RejectsBadValue(t *testing.T) {
	if _, err := measure.NewQuantity("five", measure.Dimensionless); !errors.Is(err, measure.ErrValue) {
		t.Errorf("NewQuantity(string) error = %v, want ErrValue", err)
	}
}

func TestParseQuantity_OutOfRange(t *testing.T) {
	for _, in := range []string{"1e309 m", "-1e309 m", "[1, 1e309] m"} {
		if _, err := measure.ParseQuantity(in); !errors.Is(err, measure.ErrValue) {
			t.Errorf("ParseQuantity(%q) error = %v, want ErrValue", in, err)
		}
	}
}

package app_test

import (
	"errors"
	"testing"

	"github.com/artpar/unitwizard/app"
	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/artpar/unitwizard/pkg/measure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/unit"
)

func TestScenario_RoundTripAcrossForms(t *testing.T) {
	w := newWizard(t)

	q := mustQ(t, "3 m/s")
	g, err := w.Convert(q, app.ConvertOpts{ToForm: "gonum"})
	require.NoError(t, err)
	back, err := w.Convert(g, app.ConvertOpts{ToForm: "measure"})
	require.NoError(t, err)
	ok, err := w.AreClose(q, back, app.DefaultRTol, app.DefaultATol)
	require.NoError(t, err)
	assert.True(t, ok, "measure -> gonum -> measure")

	s, err := w.ToString(mustQ(t, "5 nm"), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "5 nanometer", s)
	parsed, err := w.Convert(s, app.ConvertOpts{ToForm: "measure"})
	require.NoError(t, err)
	eq, err := w.AreEqual(mustQ(t, "5 nm"), parsed, true)
	require.NoError(t, err)
	assert.True(t, eq, "measure -> string -> measure")

	length := unit.Length(2)
	m, err := w.Convert(length, app.ConvertOpts{ToForm: "measure"})
	require.NoError(t, err)
	g2, err := w.Convert(m, app.ConvertOpts{ToForm: "gonum"})
	require.NoError(t, err)
	tag, err := w.Form(g2)
	require.NoError(t, err)
	assert.Equal(t, "gonum", tag)
	ok, err = w.AreClose(length, g2, app.DefaultRTol, app.DefaultATol)
	require.NoError(t, err)
	assert.True(t, ok, "gonum -> measure -> gonum")
}

func TestScenario_Transitivity(t *testing.T) {
	w := newWizard(t)
	x := mustQ(t, "5 nm")

	viaAngstrom, err := w.Convert(x, app.ConvertOpts{ToUnit: "angstrom"})
	require.NoError(t, err)
	indirect, err := w.Convert(viaAngstrom, app.ConvertOpts{ToForm: "gonum"})
	require.NoError(t, err)
	direct, err := w.Convert(x, app.ConvertOpts{ToForm: "gonum"})
	require.NoError(t, err)

	ok, err := w.AreClose(indirect, direct, app.DefaultRTol, app.DefaultATol)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestScenario_Padding(t *testing.T) {
	w := newWizard(t)

	d, err := w.Dimensionality("3")
	require.NoError(t, err)
	assert.Len(t, d, len(dimension.Symbols()))
	assert.True(t, dimension.IsDimensionless(d))

	ok, err := w.Check(mustQ(t, "3"), app.CheckOpts{Dimensionality: dimension.Vector{}})
	require.NoError(t, err)
	assert.True(t, ok, "empty vector matches a dimensionless quantity")

	ok, err = w.Check(mustQ(t, "3 nm"), app.CheckOpts{Dimensionality: dimension.Vector{dimension.Length: 1, dimension.Mass: 0}})
	require.NoError(t, err)
	assert.True(t, ok, "partial vector is padded with zeros")
}

func TestScenario_SingleDimensionBasis(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps"}))

	u, err := w.StandardUnits(app.StandardOpts{X: "3 nm", Form: "string"})
	require.NoError(t, err)
	assert.Equal(t, "nanometer", u)

	u, err = w.StandardUnits(app.StandardOpts{Dims: dimension.Vector{dimension.Length: 1, dimension.Time: -1}, Form: "string"})
	require.NoError(t, err)
	assert.Equal(t, "nanometer / picosecond", u)

	_, err = w.StandardUnits(app.StandardOpts{Dims: dimension.Vector{dimension.Mass: 1}})
	assert.ErrorIs(t, err, errs.ErrNoStandards, "mass cannot be built from length and time")

	std, err := w.Standardize("2 m/s", "")
	require.NoError(t, err)
	want := mustQ(t, "0.002 nm/ps")
	ok, err := w.AreClose(std, want, app.DefaultRTol, app.DefaultATol)
	require.NoError(t, err)
	assert.True(t, ok, "1 nm/ps is 1000 m/s")
}

func TestScenario_StandardTiers(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps", "kJ/mol", "radian", "dimensionless"}))

	st := w.State()
	assert.Equal(t, []string{"radian", "dimensionless"}, st.Adimensional)
	require.Len(t, st.Fundamental, 2)
	require.Len(t, st.Combinations, 1)
	assert.Equal(t, "kJ/mol", st.Combinations[0].Unit)

	tests := []struct {
		name string
		opts app.StandardOpts
		want string
	}{
		{"angle", app.StandardOpts{X: "3 rad"}, "radian"},
		{"pure number", app.StandardOpts{X: mustQ(t, "3")}, "dimensionless"},
		{"no input picks first adimensional", app.StandardOpts{Dims: dimension.Vector{}}, "radian"},
		{"fundamental", app.StandardOpts{X: "2 angstrom"}, "nanometer"},
		{"combination", app.StandardOpts{X: "2 kcal/mol"}, "kilojoule / mole"},
		{"fundamental least squares", app.StandardOpts{X: "3 m/s"}, "nanometer / picosecond"},
		{"tentative least squares", app.StandardOpts{X: "4 m**2"}, "nanometer ** 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Form = "string"
			got, err := w.StandardUnits(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := w.StandardUnits(app.StandardOpts{X: "2 kg"})
	assert.ErrorIs(t, err, errs.ErrNoStandards)
	_, err = w.StandardUnits(app.StandardOpts{X: "2 A"})
	assert.ErrorIs(t, err, errs.ErrNoStandards)
}

func TestScenario_StandardizeIdempotent(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps", "kJ/mol"}))

	once, err := w.Standardize("2 kcal/mol", "")
	require.NoError(t, err)
	twice, err := w.Standardize(once, "")
	require.NoError(t, err)

	eq, err := w.AreEqual(once, twice, true)
	require.NoError(t, err)
	assert.True(t, eq)

	u, err := w.UnitOf(once, app.UnitOpts{ToForm: "string"})
	require.NoError(t, err)
	assert.Equal(t, "kilojoule / mole", u)

	want := mustQ(t, "8.368 kJ/mol")
	ok, err := w.AreClose(once, want, app.DefaultRTol, app.DefaultATol)
	require.NoError(t, err)
	assert.True(t, ok)

	su, err := w.Standardize(measure.Default().MustUnit("angstrom"), "string")
	require.NoError(t, err)
	assert.Equal(t, "nanometer", su, "a unit standardizes to its standard unit")

	v, err := w.Value("20 angstrom", app.ValueOpts{Standardized: true})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, v, 1e-12)
}

func TestScenario_StandardizeIntoGonum(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"m", "s"}))

	out, err := w.Standardize("3 km/s", "gonum")
	require.NoError(t, err)
	u, ok := out.(unit.Uniter)
	require.True(t, ok, "got %T, want a gonum quantity", out)
	assert.InDelta(t, 3000.0, u.Unit().Value(), 1e-9)

	// gonum only holds SI coherent units, so nanometer / picosecond has no
	// gonum rendering and the standardization must fail rather than return
	// an unstandardized SI quantity.
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps"}))
	_, err = w.Standardize("3 m/s", "gonum")
	assert.ErrorIs(t, err, errs.ErrNotImplementedMethod)

	s, err := w.Standardize("3 m/s", "string")
	require.NoError(t, err)
	u2, err := w.UnitOf(s, app.UnitOpts{ToForm: "string"})
	require.NoError(t, err)
	assert.Equal(t, "nanometer / picosecond", u2)
}

func TestScenario_NoStandardsLoaded(t *testing.T) {
	w := newWizard(t)
	_, err := w.StandardUnits(app.StandardOpts{X: "3 nm"})
	assert.ErrorIs(t, err, errs.ErrNoStandards)
	_, err = w.StandardUnits(app.StandardOpts{X: "3 nm/ps"})
	assert.ErrorIs(t, err, errs.ErrNoStandards)
	_, err = w.StandardUnits(app.StandardOpts{Dims: dimension.Vector{}})
	assert.ErrorIs(t, err, errs.ErrNoStandards)
}

func TestScenario_SetStandardUnitsIsAtomic(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps"}))
	before := w.State()

	err := w.SetStandardUnits([]string{"angstrom", "furlong"})
	require.Error(t, err)
	after := w.State()
	assert.Equal(t, before.Fundamental, after.Fundamental)
	assert.Equal(t, before.Tentative, after.Tentative)

	require.NoError(t, w.Reset())
	assert.False(t, w.State().HasStandards())
	assert.Equal(t, "measure", w.State().DefaultForm)
}

func TestScenario_ContextIsolation(t *testing.T) {
	w := newWizard(t)
	require.NoError(t, w.SetStandardUnits([]string{"nm", "ps"}))
	boom := errors.New("boom")

	err := w.Context(app.ContextOpts{DefaultForm: "gonum", StandardUnits: []string{"m", "s"}}, func() error {
		q, err := w.Quantity(5, app.QuantityOpts{Unit: "m"})
		require.NoError(t, err)
		tag, err := w.Form(q)
		require.NoError(t, err)
		assert.Equal(t, "gonum", tag)

		u, err := w.StandardUnits(app.StandardOpts{X: "3 nm", Form: "string"})
		require.NoError(t, err)
		assert.Equal(t, "meter", u)
		assert.Equal(t, 1, w.Kernel().Depth())
		return boom
	})
	require.ErrorIs(t, err, boom)

	st := w.State()
	assert.Equal(t, "measure", st.DefaultForm)
	assert.Equal(t, "nm", st.Fundamental[0].Unit)
	assert.Equal(t, 0, w.Kernel().Depth())

	assert.Panics(t, func() {
		_ = w.Context(app.ContextOpts{DefaultForm: "gonum"}, func() error {
			panic("inside scope")
		})
	})
	assert.Equal(t, "measure", w.State().DefaultForm)
	assert.Equal(t, 0, w.Kernel().Depth())

	err = w.Context(app.ContextOpts{DefaultForm: "udunits"}, func() error {
		t.Fatal("scope body ran with an unknown form")
		return nil
	})
	assert.ErrorIs(t, err, errs.ErrLibraryNotFound)

	scope, err := w.EnterContext(app.ContextOpts{DefaultParser: "measure", DefaultForm: "string"})
	require.NoError(t, err)
	q, err := w.Quantity(2, app.QuantityOpts{Unit: "nm"})
	require.NoError(t, err)
	assert.Equal(t, "2 nanometer", q)
	scope.Close()
	scope.Close()
	assert.Equal(t, "measure", w.State().DefaultForm)
}

func TestScenario_UnknownType(t *testing.T) {
	w := newWizard(t)
	type opaque struct{ v float64 }

	_, err := w.Form(opaque{1})
	assert.ErrorIs(t, err, errs.ErrNotImplementedForm)
	var e *errs.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "UW-ERR-FORM-001", e.Code)

	assert.False(t, w.IsQuantity(opaque{1}))
	assert.False(t, w.IsUnit(opaque{1}))

	_, err = w.Dimensionality(opaque{1})
	assert.ErrorIs(t, err, errs.ErrNotImplementedForm)
	ok, err := w.Check(opaque{1}, app.CheckOpts{})
	require.NoError(t, err)
	assert.False(t, ok)
}

package kernel_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/dimension"
	"github.com/rs/zerolog"
)

// fakeDims resolves a handful of unit names without a backend.
func fakeDims(_ kernel.State, unit string) (dimension.Vector, error) {
	switch unit {
	case "nm":
		return dimension.Vector{dimension.Length: 1}, nil
	case "ps":
		return dimension.Vector{dimension.Time: 1}, nil
	case "kJ/mol":
		return dimension.Vector{dimension.Mass: 1, dimension.Length: 2, dimension.Time: -2, dimension.Substance: -1}, nil
	case "rad":
		return dimension.Vector{}, nil
	}
	return nil, fmt.Errorf("unknown unit %q", unit)
}

func newKernel(t *testing.T) *kernel.Kernel {
	t.Helper()
	k, err := kernel.New(kernel.Empty(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return k
}

func TestKernel_SetStandardUnitsClassifies(t *testing.T) {
	k := newKernel(t)
	if err := k.SetStandardUnits([]string{"nm", "ps", "kJ/mol", "rad"}, fakeDims); err != nil {
		t.Fatalf("SetStandardUnits() error = %v", err)
	}
	st := k.Current()

	if len(st.Adimensional) != 1 || st.Adimensional[0] != "rad" {
		t.Errorf("Adimensional = %v, want [rad]", st.Adimensional)
	}
	if len(st.Fundamental) != 2 || st.Fundamental[0].Unit != "nm" || st.Fundamental[1].Unit != "ps" {
		t.Errorf("Fundamental = %v, want [nm ps]", st.Fundamental)
	}
	if len(st.Combinations) != 1 || st.Combinations[0].Unit != "kJ/mol" {
		t.Errorf("Combinations = %v, want [kJ/mol]", st.Combinations)
	}
	if len(st.Tentative) != 3 || st.Tentative[2].Unit != "kJ/mol" {
		t.Errorf("Tentative = %v, want fundamental then combinations", st.Tentative)
	}
	if len(st.Fundamental[0].Dims) != 7 {
		t.Errorf("Fundamental dims not padded: %v", st.Fundamental[0].Dims)
	}
}

func TestKernel_SetStandardUnitsIsAtomic(t *testing.T) {
	k := newKernel(t)
	k.SetStandardUnits([]string{"nm"}, fakeDims)

	if err := k.SetStandardUnits([]string{"ps", "furlong"}, fakeDims); err == nil {
		t.Fatal("SetStandardUnits(unknown) error = nil, want error")
	}
	st := k.Current()
	if len(st.Fundamental) != 1 || st.Fundamental[0].Unit != "nm" {
		t.Errorf("Fundamental after failed update = %v, want [nm]", st.Fundamental)
	}
}

func TestKernel_LoadValidatesTiers(t *testing.T) {
	k := newKernel(t)
	both := kernel.Standard{Unit: "nm/ps", Dims: dimension.Vector{dimension.Length: 1, dimension.Time: -1}}

	if err := k.LoadFundamental([]kernel.Standard{both}); err == nil {
		t.Error("LoadFundamental(two dimensions) error = nil, want error")
	}
	if err := k.LoadCombinations([]kernel.Standard{both}); err != nil {
		t.Errorf("LoadCombinations() error = %v", err)
	}
	if err := k.SetOrder([]dimension.Symbol{dimension.Length}); err == nil {
		t.Error("SetOrder(partial) error = nil, want error")
	}
	if err := k.SetDecimals(-1); err == nil {
		t.Error("SetDecimals(-1) error = nil, want error")
	}
}

func TestKernel_CurrentIsACopy(t *testing.T) {
	k := newKernel(t)
	k.LoadAdimensional([]string{"rad"})

	st := k.Current()
	st.Adimensional[0] = "mutated"
	if got := k.Current().Adimensional[0]; got != "rad" {
		t.Errorf("Adimensional[0] = %q after mutating a copy, want rad", got)
	}
}

func TestKernel_WithRestoresOnError(t *testing.T) {
	k := newKernel(t)
	k.SetDefaultForm("measure")

	errBoom := errors.New("boom")
	err := k.With(kernel.Overrides{DefaultForm: "gonum"}, func() error {
		if got := k.Current().DefaultForm; got != "gonum" {
			t.Errorf("DefaultForm inside scope = %q, want gonum", got)
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("With() error = %v, want boom", err)
	}
	if got := k.Current().DefaultForm; got != "measure" {
		t.Errorf("DefaultForm after scope = %q, want measure", got)
	}
	if k.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", k.Depth())
	}
}

func TestKernel_WithRestoresOnPanic(t *testing.T) {
	k := newKernel(t)
	k.SetDefaultForm("measure")

	func() {
		defer func() { recover() }()
		k.With(kernel.Overrides{DefaultForm: "gonum"}, func() error {
			panic("boom")
		})
	}()

	if got := k.Current().DefaultForm; got != "measure" {
		t.Errorf("DefaultForm after panic = %q, want measure", got)
	}
}

func TestKernel_NestedScopesRestoreTheirOwnEntry(t *testing.T) {
	k := newKernel(t)
	k.SetDefaultForm("a")

	outer, _ := k.Enter(kernel.Overrides{DefaultForm: "b"})
	k.SetDefaultParser("changed-in-outer")
	inner, _ := k.Enter(kernel.Overrides{DefaultForm: "c", StandardUnits: []string{"nm"}, Resolve: fakeDims})

	if got := k.Current(); got.DefaultForm != "c" || len(got.Fundamental) != 1 {
		t.Errorf("inner state = %+v", got)
	}
	inner.Close()
	if got := k.Current(); got.DefaultForm != "b" || got.DefaultParser != "changed-in-outer" || len(got.Fundamental) != 0 {
		t.Errorf("state after inner exit = %+v, want outer state", got)
	}
	outer.Close()
	if got := k.Current(); got.DefaultForm != "a" || got.DefaultParser != "" {
		t.Errorf("state after outer exit = %+v, want initial state", got)
	}

	outer.Close()
	if got := k.Current().DefaultForm; got != "a" {
		t.Errorf("second Close() changed state to %q", got)
	}
}

func TestKernel_EnterFailureLeavesStateAlone(t *testing.T) {
	k := newKernel(t)
	if _, err := k.Enter(kernel.Overrides{DefaultForm: "x", StandardUnits: []string{"furlong"}, Resolve: fakeDims}); err == nil {
		t.Fatal("Enter() error = nil, want error")
	}
	if got := k.Current().DefaultForm; got != "" {
		t.Errorf("DefaultForm = %q after failed Enter, want empty", got)
	}
	if k.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", k.Depth())
	}
}

func TestKernel_DepthObserver(t *testing.T) {
	k := newKernel(t)
	var depths []int
	k.SetDepthObserver(func(d int) { depths = append(depths, d) })

	k.With(kernel.Overrides{}, func() error {
		return k.With(kernel.Overrides{}, func() error { return nil })
	})
	want := []int{1, 2, 1, 0}
	if fmt.Sprint(depths) != fmt.Sprint(want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}
}

func TestKernel_ConcurrentReadsAndScopes(t *testing.T) {
	k := newKernel(t)
	k.SetDefaultForm("measure")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			k.With(kernel.Overrides{DefaultParser: "measure"}, func() error { return nil })
		}()
		go func() {
			defer wg.Done()
			_ = k.Current().DefaultForm
		}()
	}
	wg.Wait()
	if k.Depth() != 0 {
		t.Errorf("Depth() = %d after all scopes exited, want 0", k.Depth())
	}
}

func TestKernel_Reset(t *testing.T) {
	k := newKernel(t)
	k.SetDefaultForm("measure")
	k.SetStandardUnits([]string{"nm"}, fakeDims)
	k.Reset()
	st := k.Current()
	if st.DefaultForm != "" || st.HasStandards() {
		t.Errorf("state after Reset = %+v, want empty", st)
	}
	if st.Decimals != kernel.DefaultDecimals {
		t.Errorf("Decimals after Reset = %d, want %d", st.Decimals, kernel.DefaultDecimals)
	}
}

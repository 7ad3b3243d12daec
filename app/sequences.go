package app

import (
	"github.com/artpar/unitwizard/core/errs"
	"github.com/artpar/unitwizard/core/form"
	"github.com/artpar/unitwizard/core/kernel"
	"github.com/artpar/unitwizard/domain/value"
	"gonum.org/v1/gonum/mat"
)

// ValueType selects the Go container of a sequence result.
type ValueType string

const (
	// ValueNatural holds one axis as []float64 and two as *mat.Dense.
	ValueNatural ValueType = ""
	// ValueSlice holds one axis as []float64 and two as [][]float64.
	ValueSlice ValueType = "slice"
	// ValueDense holds one axis as *mat.VecDense and two as *mat.Dense.
	ValueDense ValueType = "dense"
)

// SequenceOpts parameterizes the sequence operations. The result is built
// in ToUnit, or in the unit of the first element when ToUnit is nil, and in
// ToForm, or the default form.
type SequenceOpts struct {
	ToUnit       any
	ToForm       string
	ValueType    ValueType
	Standardized bool
}

// array is a magnitude of at most two axes in row-major order.
type array struct {
	data  []float64
	shape []int
}

func (a array) ndim() int { return len(a.shape) }

// rows and cols view a as a matrix; one axis is a single row.
func (a array) rows() int {
	if a.ndim() == 2 {
		return a.shape[0]
	}
	return 1
}

func (a array) cols() int {
	switch a.ndim() {
	case 2:
		return a.shape[1]
	case 1:
		return a.shape[0]
	}
	return 1
}

func (a array) at(i, j int) float64 { return a.data[i*a.cols()+j] }

func vector(data []float64) array { return array{data: data, shape: []int{len(data)}} }

func matrix(r, c int, data []float64) array { return array{data: data, shape: []int{r, c}} }

// sequence carries the state shared by one sequence operation.
type sequence struct {
	w      *Wizard
	st     kernel.State
	caller string
	unit   any
}

func (w *Wizard) newSequence(st kernel.State, caller string, o SequenceOpts) (*sequence, error) {
	switch o.ValueType {
	case ValueNatural, ValueSlice, ValueDense:
	default:
		return nil, errs.Argument(caller, "value_type", o.ValueType)
	}
	s := &sequence{w: w, st: st, caller: caller}
	if o.ToUnit != nil {
		u, err := w.convert(st, o.ToUnit, ConvertOpts{ToForm: form.Text, ToType: ToUnit})
		if err != nil {
			return nil, err
		}
		s.unit = u
	}
	return s, nil
}

// leaf reads the magnitude of q in the sequence unit, which the first leaf
// fixes when none was requested.
func (s *sequence) leaf(q any) (array, error) {
	if s.unit == nil {
		u, err := s.w.convert(s.st, q, ConvertOpts{ToForm: form.Text, ToType: ToUnit})
		if err != nil {
			return array{}, err
		}
		s.unit = u
	}
	v, err := s.w.convert(s.st, q, ConvertOpts{ToUnit: s.unit, ToType: ToValue})
	if err != nil {
		return array{}, err
	}
	data, shape, err := value.Flatten(v)
	if err != nil {
		return array{}, errs.Argument(s.caller, "sequence", q).Wrap(err)
	}
	return array{data: data, shape: shape}, nil
}

// item reads one element of a sequence: a quantity, or a nested []any
// joined end to end.
func (s *sequence) item(x any) (array, error) {
	if sub, ok := x.([]any); ok {
		parts, err := s.items(sub)
		if err != nil {
			return array{}, err
		}
		return s.joinRows(parts)
	}
	return s.leaf(x)
}

func (s *sequence) items(seq []any) ([]array, error) {
	if len(seq) == 0 {
		return nil, errs.Argument(s.caller, "sequence", seq)
	}
	out := make([]array, len(seq))
	for i, x := range seq {
		a, err := s.item(x)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}

// joinRows concatenates along the first axis. Scalars and vectors join into
// one vector; matrices with equal column counts stack their rows.
func (s *sequence) joinRows(parts []array) (array, error) {
	if parts[0].ndim() < 2 {
		var data []float64
		for _, p := range parts {
			if p.ndim() == 2 {
				return array{}, errs.Argument(s.caller, "sequence", "mixed vectors and matrices")
			}
			data = append(data, p.data...)
		}
		return vector(data), nil
	}
	cols, rows := parts[0].cols(), 0
	var data []float64
	for _, p := range parts {
		if p.ndim() != 2 || p.cols() != cols {
			return array{}, errs.Argument(s.caller, "sequence", "column counts differ")
		}
		rows += p.rows()
		data = append(data, p.data...)
	}
	return matrix(rows, cols, data), nil
}

// joinCols concatenates matrices along the second axis.
func (s *sequence) joinCols(parts []array) (array, error) {
	rows, cols := parts[0].rows(), 0
	for _, p := range parts {
		if p.rows() != rows {
			return array{}, errs.Argument(s.caller, "sequence", "row counts differ")
		}
		cols += p.cols()
	}
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for _, p := range parts {
			for j := 0; j < p.cols(); j++ {
				data = append(data, p.at(i, j))
			}
		}
	}
	return matrix(rows, cols, data), nil
}

// asRow and asColumn promote scalars and vectors to matrices.
func asRow(a array) array {
	if a.ndim() == 2 {
		return a
	}
	return matrix(1, len(a.data), a.data)
}

func asColumn(a array) array {
	if a.ndim() == 2 {
		return a
	}
	return matrix(len(a.data), 1, a.data)
}

func transpose(a array) array {
	r, c := a.rows(), a.cols()
	data := make([]float64, 0, r*c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			data = append(data, a.at(i, j))
		}
	}
	return matrix(c, r, data)
}

func (s *sequence) result(a array, o SequenceOpts) (any, error) {
	var v any
	switch {
	case a.ndim() < 2 && o.ValueType == ValueDense:
		v = mat.NewVecDense(len(a.data), a.data)
	case a.ndim() < 2:
		v = a.data
	case o.ValueType == ValueSlice:
		rows := make([][]float64, a.rows())
		for i := range rows {
			rows[i] = a.data[i*a.cols() : (i+1)*a.cols()]
		}
		v = rows
	default:
		v = mat.NewDense(a.rows(), a.cols(), a.data)
	}
	return s.w.quantity(s.st, v, QuantityOpts{Unit: s.unit, Form: o.ToForm, Standardized: o.Standardized})
}

// Concatenate joins the quantities of seq along the first axis. Elements
// are quantities of any form or nested []any sequences; scalars and
// vectors give a vector, matrices with equal column counts give a matrix.
func (w *Wizard) Concatenate(seq []any, o SequenceOpts) (any, error) {
	out, err := w.joinSequence(w.State(), "concatenate", seq, o, (*sequence).joinRows)
	return out, w.fail(err)
}

// HStack joins seq horizontally: vectors end to end, matrices side by side.
func (w *Wizard) HStack(seq []any, o SequenceOpts) (any, error) {
	out, err := w.joinSequence(w.State(), "hstack", seq, o, func(s *sequence, parts []array) (array, error) {
		if parts[0].ndim() < 2 {
			return s.joinRows(parts)
		}
		return s.joinCols(parts)
	})
	return out, w.fail(err)
}

// VStack stacks seq vertically; every vector becomes one row.
func (w *Wizard) VStack(seq []any, o SequenceOpts) (any, error) {
	out, err := w.joinSequence(w.State(), "vstack", seq, o, func(s *sequence, parts []array) (array, error) {
		for i := range parts {
			parts[i] = asRow(parts[i])
		}
		return s.joinRows(parts)
	})
	return out, w.fail(err)
}

// ColumnStack places the vectors of seq side by side as columns.
func (w *Wizard) ColumnStack(seq []any, o SequenceOpts) (any, error) {
	out, err := w.joinSequence(w.State(), "column_stack", seq, o, func(s *sequence, parts []array) (array, error) {
		for i := range parts {
			parts[i] = asColumn(parts[i])
		}
		return s.joinCols(parts)
	})
	return out, w.fail(err)
}

// Stack joins equally long vectors along a new axis: axis 0 makes them
// rows, axis 1 (or -1) columns. Scalars stack into a vector.
func (w *Wizard) Stack(seq []any, axis int, o SequenceOpts) (any, error) {
	out, err := w.joinSequence(w.State(), "stack", seq, o, func(s *sequence, parts []array) (array, error) {
		scalars := true
		for _, p := range parts {
			if p.ndim() == 2 {
				return array{}, errs.Argument(s.caller, "sequence", "matrices cannot be stacked")
			}
			scalars = scalars && p.ndim() == 0
		}
		if scalars {
			if axis != 0 && axis != -1 {
				return array{}, errs.Argument(s.caller, "axis", axis)
			}
			return s.joinRows(parts)
		}
		n := len(parts[0].data)
		for _, p := range parts {
			if p.ndim() != 1 || len(p.data) != n {
				return array{}, errs.Argument(s.caller, "sequence", "vector lengths differ")
			}
		}
		rows, err := s.joinRows(mapArrays(parts, asRow))
		if err != nil {
			return array{}, err
		}
		switch axis {
		case 0, -2:
			return rows, nil
		case 1, -1:
			return transpose(rows), nil
		}
		return array{}, errs.Argument(s.caller, "axis", axis)
	})
	return out, w.fail(err)
}

func (w *Wizard) joinSequence(st kernel.State, caller string, seq []any, o SequenceOpts, join func(*sequence, []array) (array, error)) (any, error) {
	s, err := w.newSequence(st, caller, o)
	if err != nil {
		return nil, err
	}
	parts, err := s.items(seq)
	if err != nil {
		return nil, err
	}
	a, err := join(s, parts)
	if err != nil {
		return nil, err
	}
	return s.result(a, o)
}

// Repeat repeats the elements of q. With a nil axis the magnitude is
// flattened first; axis 0 repeats vector elements or matrix rows, axis 1
// matrix columns.
func (w *Wizard) Repeat(q any, repeats int, axis *int, o SequenceOpts) (any, error) {
	out, err := w.repeat(w.State(), q, repeats, axis, o)
	return out, w.fail(err)
}

func (w *Wizard) repeat(st kernel.State, q any, repeats int, axis *int, o SequenceOpts) (any, error) {
	if repeats < 0 {
		return nil, errs.Argument("repeat", "repeats", repeats)
	}
	s, err := w.newSequence(st, "repeat", o)
	if err != nil {
		return nil, err
	}
	a, err := s.leaf(q)
	if err != nil {
		return nil, err
	}

	switch {
	case axis == nil || (a.ndim() < 2 && (*axis == 0 || *axis == -1)):
		data := make([]float64, 0, len(a.data)*repeats)
		for _, x := range a.data {
			for k := 0; k < repeats; k++ {
				data = append(data, x)
			}
		}
		a = vector(data)
	case a.ndim() == 2 && (*axis == 0 || *axis == -2):
		data := make([]float64, 0, len(a.data)*repeats)
		for i := 0; i < a.rows(); i++ {
			row := a.data[i*a.cols() : (i+1)*a.cols()]
			for k := 0; k < repeats; k++ {
				data = append(data, row...)
			}
		}
		a = matrix(a.rows()*repeats, a.cols(), data)
	case a.ndim() == 2 && (*axis == 1 || *axis == -1):
		a = transpose(a)
		data := make([]float64, 0, len(a.data)*repeats)
		for i := 0; i < a.rows(); i++ {
			row := a.data[i*a.cols() : (i+1)*a.cols()]
			for k := 0; k < repeats; k++ {
				data = append(data, row...)
			}
		}
		a = transpose(matrix(a.rows()*repeats, a.cols(), data))
	default:
		return nil, errs.Argument("repeat", "axis", *axis)
	}
	return s.result(a, o)
}

// IsQuantityValueSequence reports whether x is a quantity whose magnitude
// is an array. Never fails.
func (w *Wizard) IsQuantityValueSequence(x any) bool {
	st := w.State()
	if !w.isQuantity(st, x) {
		return false
	}
	v, err := w.convert(st, x, ConvertOpts{ToType: ToValue})
	if err != nil {
		w.identifyMiss("is_quantity_value_sequence", x, err)
		return false
	}
	shape, err := value.Shape(v)
	return err == nil && len(shape) > 0
}

func mapArrays(in []array, fn func(array) array) []array {
	out := make([]array, len(in))
	for i, a := range in {
		out[i] = fn(a)
	}
	return out
}

// Package value provides pure helpers over quantity magnitudes.
//
// A magnitude is either a scalar (int, int64, float32, float64) or a
// homogeneous array ([]float64, []int, [][]float64, *mat.VecDense,
// *mat.Dense). All functions are deterministic and never mutate their input.
package value

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrUnsupported is returned for magnitudes of an unsupported Go type.
var ErrUnsupported = errors.New("unsupported value type")

// Flatten returns the elements of v in row-major order together with its shape.
// Scalars have an empty shape.
func Flatten(v any) ([]float64, []int, error) {
	switch x := v.(type) {
	case int:
		return []float64{float64(x)}, []int{}, nil
	case int64:
		return []float64{float64(x)}, []int{}, nil
	case float32:
		return []float64{float64(x)}, []int{}, nil
	case float64:
		return []float64{x}, []int{}, nil
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return out, []int{len(x)}, nil
	case []int:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e)
		}
		return out, []int{len(x)}, nil
	case [][]float64:
		cols := 0
		if len(x) > 0 {
			cols = len(x[0])
		}
		out := make([]float64, 0, len(x)*cols)
		for _, row := range x {
			if len(row) != cols {
				return nil, nil, fmt.Errorf("ragged array: %w", ErrUnsupported)
			}
			out = append(out, row...)
		}
		return out, []int{len(x), cols}, nil
	case *mat.VecDense:
		out := make([]float64, x.Len())
		for i := range out {
			out[i] = x.AtVec(i)
		}
		return out, []int{x.Len()}, nil
	case *mat.Dense:
		r, c := x.Dims()
		out := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			out = append(out, mat.Row(nil, i, x)...)
		}
		return out, []int{r, c}, nil
	}
	return nil, nil, fmt.Errorf("%T: %w", v, ErrUnsupported)
}

// IsScalar reports whether v is a supported scalar.
func IsScalar(v any) bool {
	switch v.(type) {
	case int, int64, float32, float64:
		return true
	}
	return false
}

// Float returns a scalar magnitude as float64.
func Float(v any) (float64, error) {
	if !IsScalar(v) {
		return 0, fmt.Errorf("%T is not a scalar: %w", v, ErrUnsupported)
	}
	data, _, err := Flatten(v)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// Shape returns the array shape of v; scalars have an empty shape.
func Shape(v any) ([]int, error) {
	_, shape, err := Flatten(v)
	return shape, err
}

// DTypeName returns the element type name of an array magnitude.
// Scalars carry no dtype and report false.
func DTypeName(v any) (string, bool) {
	switch v.(type) {
	case []int:
		return "int64", true
	case []float64, [][]float64, *mat.VecDense, *mat.Dense:
		return "float64", true
	}
	return "", false
}

// Scale multiplies every element of v by factor, keeping the container kind.
// Integer magnitudes stay integers only when factor is exactly 1.
func Scale(v any, factor float64) (any, error) {
	switch x := v.(type) {
	case int:
		if factor == 1 {
			return x, nil
		}
		return float64(x) * factor, nil
	case int64:
		if factor == 1 {
			return x, nil
		}
		return float64(x) * factor, nil
	case float32:
		return float64(x) * factor, nil
	case float64:
		return x * factor, nil
	case []float64:
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = e * factor
		}
		return out, nil
	case []int:
		if factor == 1 {
			out := make([]int, len(x))
			copy(out, x)
			return out, nil
		}
		out := make([]float64, len(x))
		for i, e := range x {
			out[i] = float64(e) * factor
		}
		return out, nil
	case [][]float64:
		out := make([][]float64, len(x))
		for i, row := range x {
			out[i] = make([]float64, len(row))
			for j, e := range row {
				out[i][j] = e * factor
			}
		}
		return out, nil
	case *mat.VecDense:
		out := mat.NewVecDense(x.Len(), nil)
		out.ScaleVec(factor, x)
		return out, nil
	case *mat.Dense:
		var out mat.Dense
		out.Scale(factor, x)
		return &out, nil
	}
	return nil, fmt.Errorf("%T: %w", v, ErrUnsupported)
}

// Equal reports whether a and b have the same shape and identical elements.
func Equal(a, b any) bool {
	da, sa, err := Flatten(a)
	if err != nil {
		return false
	}
	db, sb, err := Flatten(b)
	if err != nil || !sameShape(sa, sb) {
		return false
	}
	for i := range da {
		if da[i] != db[i] {
			return false
		}
	}
	return true
}

// AllClose reports whether a and b have the same shape and every pair of
// elements satisfies |a-b| <= atol + rtol*|b|.
func AllClose(a, b any, rtol, atol float64) bool {
	da, sa, err := Flatten(a)
	if err != nil {
		return false
	}
	db, sb, err := Flatten(b)
	if err != nil || !sameShape(sa, sb) {
		return false
	}
	for i := range da {
		if !Close(da[i], db[i], rtol, atol) {
			return false
		}
	}
	return true
}

// Close is the scalar form of AllClose.
func Close(a, b, rtol, atol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}

func sameShape(a, b []int) bool {
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

// Format renders v the way quantities print it: scalars as plain numbers,
// arrays as space separated bracketed lists, e.g. "[[2 5 7] [7 8 9]]".
func Format(v any) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return formatFloat(float64(x))
	case float64:
		return formatFloat(x)
	}
	data, shape, err := Flatten(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if _, isInt := v.([]int); isInt {
		parts := make([]string, len(data))
		for i, e := range data {
			parts[i] = strconv.FormatInt(int64(e), 10)
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	if len(shape) == 1 {
		return formatRow(data)
	}
	rows := make([]string, shape[0])
	for i := range rows {
		rows[i] = formatRow(data[i*shape[1] : (i+1)*shape[1]])
	}
	return "[" + strings.Join(rows, " ") + "]"
}

func formatRow(data []float64) string {
	parts := make([]string, len(data))
	for i, e := range data {
		parts[i] = formatFloat(e)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

package matrix

import (
	"fmt"
	"math"

	"github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MaxAbs returns the largest absolute value of m elements.
// It panics if m is nil.
func MaxAbs(m mat.Matrix) float64 {
	d := mat.DenseCopyOf(m)
	rows, _ := d.Dims()

	var max float64
	for i := 0; i < rows; i++ {
		max = math.Max(max, floats.Norm(d.RawRowView(i), math.Inf(1)))
	}

	return max
}

// Asymmetry returns the largest absolute difference between m and its transpose.
// It returns error if m is not a square matrix.
func Asymmetry(m mat.Matrix) (float64, error) {
	rows, cols := m.Dims()
	if rows != cols {
		return 0, fmt.Errorf("non-square matrix: [%d x %d]", rows, cols)
	}

	diff := &mat.Dense{}
	diff.Sub(m, m.T())

	return MaxAbs(diff), nil
}

// Symmetrize returns a symmetric copy of m built as (m + m')/2.
// The asymmetry of m is checked against tol scaled by the magnitude of m
// (never less than tol itself).
// It returns error if m is not square, has non-finite elements or is not symmetric within tolerance.
func Symmetrize(m mat.Matrix, tol float64) (*mat.SymDense, error) {
	asym, err := Asymmetry(m)
	if err != nil {
		return nil, err
	}

	if limit := tol * math.Max(1, MaxAbs(m)); asym > limit || math.IsNaN(asym) {
		return nil, fmt.Errorf("asymmetry %g exceeds tolerance %g", asym, limit)
	}

	n, _ := m.Dims()
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := 0.5 * (m.At(i, j) + m.At(j, i))
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("non-finite element at [%d, %d]", i, j)
			}
			sym.SetSym(i, j, v)
		}
	}

	return sym, nil
}

// Identity returns n x n identity matrix.
// It returns error if n is not a positive integer.
func Identity(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid identity size: %d", n)
	}

	eye, err := matrix.NewDenseValIdentity(n, 1.0)
	if err != nil {
		return nil, err
	}

	return mat.DenseCopyOf(eye), nil
}

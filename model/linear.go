package model

import (
	"fmt"

	filter "github.com/lkf-go/lkf"
	"gonum.org/v1/gonum/mat"
)

var _ filter.LinearModel = (*Linear)(nil)

// Linear is a linear, discrete-time model of a dynamical system
//
//	x[k+1] = F*x[k] + B*u[k] + q[k]
//	y[k]   = H*x[k] + r[k]
type Linear struct {
	// F is state transition matrix
	F *mat.Dense
	// B is control matrix
	B *mat.Dense
	// H is observation matrix
	H *mat.Dense
}

// NewLinear creates new linear model and returns it.
// B is optional: if it is nil the model has no control input.
// It returns error if either of the following conditions is met:
//   - F or H is nil
//   - F is not a square matrix
//   - H column count does not match F dimension
//   - B row count does not match F dimension
func NewLinear(F, B, H mat.Matrix) (*Linear, error) {
	if F == nil || H == nil {
		return nil, fmt.Errorf("state transition and observation matrices must be defined")
	}

	rows, cols := F.Dims()
	if rows != cols {
		return nil, fmt.Errorf("invalid state transition matrix dimensions: [%d x %d]", rows, cols)
	}
	nx := rows

	if rows, cols := H.Dims(); cols != nx {
		return nil, fmt.Errorf("invalid observation matrix dimensions: [%d x %d]", rows, cols)
	}

	m := &Linear{
		F: mat.DenseCopyOf(F),
		H: mat.DenseCopyOf(H),
	}

	if B != nil {
		if rows, cols := B.Dims(); rows != nx {
			return nil, fmt.Errorf("invalid control matrix dimensions: [%d x %d]", rows, cols)
		}
		m.B = mat.DenseCopyOf(B)
	}

	return m, nil
}

// Propagate returns the next internal state given state x, control input u and process noise q.
// u is ignored if the model has no control matrix; q is ignored if it is nil.
func (l *Linear) Propagate(x, u, q mat.Vector) (mat.Vector, error) {
	nx, nu, _ := l.SystemDims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(l.F, x)

	if l.B != nil && u != nil {
		if u.Len() != nu {
			return nil, fmt.Errorf("invalid input vector length: %d", u.Len())
		}
		outU := mat.NewVecDense(nx, nil)
		outU.MulVec(l.B, u)
		out.AddVec(out, outU)
	}

	if q != nil {
		if q.Len() != nx {
			return nil, fmt.Errorf("invalid process noise length: %d", q.Len())
		}
		out.AddVec(out, q)
	}

	return out, nil
}

// Observe returns system output given internal state x and measurement noise r.
// r is ignored if it is nil.
func (l *Linear) Observe(x, r mat.Vector) (mat.Vector, error) {
	nx, _, ny := l.SystemDims()
	if x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector length: %d", x.Len())
	}

	out := mat.NewVecDense(ny, nil)
	out.MulVec(l.H, x)

	if r != nil {
		if r.Len() != ny {
			return nil, fmt.Errorf("invalid measurement noise length: %d", r.Len())
		}
		out.AddVec(out, r)
	}

	return out, nil
}

// SystemDims returns state vector length (nx), control input length (nu)
// and output vector length (ny). nu is 0 if the model has no control matrix.
func (l *Linear) SystemDims() (nx, nu, ny int) {
	nx, _ = l.F.Dims()
	if l.B != nil {
		_, nu = l.B.Dims()
	}
	ny, _ = l.H.Dims()

	return nx, nu, ny
}

// StateMatrix returns state transition matrix F
func (l *Linear) StateMatrix() mat.Matrix {
	return mat.DenseCopyOf(l.F)
}

// ControlMatrix returns control matrix B or nil if the model has none
func (l *Linear) ControlMatrix() mat.Matrix {
	if l.B == nil {
		return nil
	}

	return mat.DenseCopyOf(l.B)
}

// OutputMatrix returns observation matrix H
func (l *Linear) OutputMatrix() mat.Matrix {
	return mat.DenseCopyOf(l.H)
}

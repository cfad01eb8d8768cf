// Package control provides the control input fed to the state propagation.
//
// A control input is either Fixed, i.e. the same vector applied at every step,
// or TimeVarying, i.e. a function of the elapsed time. Use At to resolve the
// vector for a given time.
package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Input is a control input. It is implemented by *Fixed and *TimeVarying only.
type Input interface {
	input()
}

// Fixed is a control input which does not change over time
type Fixed struct {
	u *mat.VecDense
}

// NewFixed creates new Fixed control input holding a copy of u.
// It returns error if u is nil or empty.
func NewFixed(u mat.Vector) (*Fixed, error) {
	if u == nil || u.Len() == 0 {
		return nil, fmt.Errorf("invalid control vector: %v", u)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(u)

	return &Fixed{u: v}, nil
}

// Vec returns a copy of the control vector
func (f *Fixed) Vec() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(f.u)

	return v
}

// Len returns control vector length
func (f *Fixed) Len() int {
	return f.u.Len()
}

func (f *Fixed) input() {}

// Func maps elapsed time to a control vector
type Func func(t float64) mat.Vector

// TimeVarying is a control input evaluated at the elapsed time of each step
type TimeVarying struct {
	fn Func
}

// NewTimeVarying creates new TimeVarying control input.
// It returns error if fn is nil.
func NewTimeVarying(fn Func) (*TimeVarying, error) {
	if fn == nil {
		return nil, fmt.Errorf("invalid control function")
	}

	return &TimeVarying{fn: fn}, nil
}

func (tv *TimeVarying) input() {}

// At returns the control vector of in at time t.
// Fixed input returns the same vector regardless of t.
// It returns error if in is nil or if a TimeVarying input evaluates to nil.
func At(in Input, t float64) (mat.Vector, error) {
	switch c := in.(type) {
	case *Fixed:
		return c.Vec(), nil
	case *TimeVarying:
		u := c.fn(t)
		if u == nil {
			return nil, fmt.Errorf("control function returned nil at time %g", t)
		}
		v := &mat.VecDense{}
		v.CloneFromVec(u)
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported control input: %T", in)
	}
}

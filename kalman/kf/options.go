package kf

import (
	"fmt"
	"math"

	"github.com/lkf-go/lkf/control"
)

// DefaultSymmetryTolerance is the default relative tolerance of the covariance symmetry check.
const DefaultSymmetryTolerance = 1e-9

// Option configures KF
type Option func(*KF) error

// WithControl sets KF control input.
// Without it the control contribution to the state propagation is zero.
func WithControl(u control.Input) Option {
	return func(k *KF) error {
		if u == nil {
			return fmt.Errorf("invalid control input: %v", u)
		}
		k.u = u
		return nil
	}
}

// WithTimeStep sets the time step used to compute the elapsed time
// passed to a time-varying control input. It defaults to 1.
func WithTimeStep(dt float64) Option {
	return func(k *KF) error {
		if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidTimeStep, dt)
		}
		k.dt = dt
		return nil
	}
}

// WithJosephForm makes KF use the Joseph form of the covariance update:
//
//	P = (I - K*H)*P*(I - K*H)' + K*R*K'
func WithJosephForm() Option {
	return func(k *KF) error {
		k.joseph = true
		return nil
	}
}

// WithSymmetryTolerance sets the relative tolerance of the covariance symmetry check.
func WithSymmetryTolerance(tol float64) Option {
	return func(k *KF) error {
		if tol < 0 || math.IsNaN(tol) {
			return fmt.Errorf("invalid symmetry tolerance: %v", tol)
		}
		k.tol = tol
		return nil
	}
}

// Package sim simulates linear discrete-time systems driven by process and
// measurement noise. It produces ground truth state trajectories along with
// the noisy measurements a filter would observe.
package sim

import (
	"fmt"
	"math"

	filter "github.com/lkf-go/lkf"
	"github.com/lkf-go/lkf/control"
	"gonum.org/v1/gonum/mat"
)

// System is a simulated linear dynamical system
//
//	x[k+1] = F*x[k] + B*u(k*dt) + q[k]
//	z[k]   = H*x[k+1] + r[k]
type System struct {
	// m is system model
	m filter.LinearModel
	// q is process noise; nil means no noise
	q filter.Noise
	// r is measurement noise; nil means no noise
	r filter.Noise
	// u is control input; nil means no input
	u control.Input
	// dt is time step
	dt float64
}

// Result is the outcome of a simulation of n steps.
// States holds n+1 true states starting with the initial state.
// Measurements holds n measurements, Measurements[k] observing States[k+1].
type Result struct {
	States       []*mat.VecDense
	Measurements []mat.Vector
}

// New creates new simulated System and returns it.
// It returns error if the noise dimensions do not match the model or if dt is not a positive number.
func New(m filter.LinearModel, q, r filter.Noise, u control.Input, dt float64) (*System, error) {
	if m == nil {
		return nil, fmt.Errorf("invalid model")
	}

	nx, _, ny := m.SystemDims()
	if q != nil && q.Cov().SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid process noise dimension: %d", q.Cov().SymmetricDim())
	}

	if r != nil && r.Cov().SymmetricDim() != ny {
		return nil, fmt.Errorf("invalid measurement noise dimension: %d", r.Cov().SymmetricDim())
	}

	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("invalid time step: %v", dt)
	}

	return &System{
		m:  m,
		q:  q,
		r:  r,
		u:  u,
		dt: dt,
	}, nil
}

// Simulate runs the system for n steps starting from state x0 and returns the result.
// It returns error if n is not positive or if the state can not be propagated or observed.
func (s *System) Simulate(x0 mat.Vector, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid number of steps: %d", n)
	}

	res := &Result{
		States:       make([]*mat.VecDense, 0, n+1),
		Measurements: make([]mat.Vector, 0, n),
	}
	res.States = append(res.States, mat.VecDenseCopyOf(x0))

	x := x0
	for k := 0; k < n; k++ {
		var u mat.Vector
		if s.u != nil {
			var err error
			if u, err = control.At(s.u, float64(k)*s.dt); err != nil {
				return nil, fmt.Errorf("step %d: %v", k, err)
			}
		}

		var q, r mat.Vector
		if s.q != nil {
			q = s.q.Sample()
		}
		if s.r != nil {
			r = s.r.Sample()
		}

		next, err := s.m.Propagate(x, u, q)
		if err != nil {
			return nil, fmt.Errorf("step %d: state propagation failed: %v", k, err)
		}

		z, err := s.m.Observe(next, r)
		if err != nil {
			return nil, fmt.Errorf("step %d: failed to observe system output: %v", k, err)
		}

		x = next
		res.States = append(res.States, mat.VecDenseCopyOf(next))
		res.Measurements = append(res.Measurements, z)
	}

	return res, nil
}

// Reset resets system noise sources.
func (s *System) Reset() error {
	for _, n := range []filter.Noise{s.q, s.r} {
		if n == nil {
			continue
		}
		if err := n.Reset(); err != nil {
			return err
		}
	}

	return nil
}

package kf

import (
	"fmt"

	filter "github.com/lkf-go/lkf"
	"github.com/lkf-go/lkf/control"
	"github.com/lkf-go/lkf/estimate"
	"github.com/lkf-go/lkf/kalman"
	"github.com/lkf-go/lkf/matrix"
	"gonum.org/v1/gonum/mat"
)

var _ kalman.Kalman = (*KF)(nil)

// KF is linear Kalman Filter.
// KF is not safe for concurrent use: each goroutine must own its own KF.
type KF struct {
	// m is KF system model
	m filter.LinearModel
	// init is the initial condition KF starts each run from
	init filter.InitCond
	// f is state transition matrix
	f *mat.Dense
	// b is control matrix; nil if the model has none
	b *mat.Dense
	// h is observation matrix
	h *mat.Dense
	// q is process noise covariance
	q *mat.SymDense
	// r is measurement noise covariance
	r *mat.SymDense
	// u is control input; nil if there is none
	u control.Input
	// dt is time step
	dt float64
	// joseph enables Joseph form covariance update
	joseph bool
	// tol is covariance symmetry tolerance
	tol float64
	// x is current state estimate
	x *mat.VecDense
	// p is current state covariance
	p *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// step is the index of the next measurement
	step int
}

// New creates new KF and returns it.
// It accepts the following parameters:
//   - m:      linear system model (F, B and H matrices)
//   - init:   initial condition of the filter (x0 and P0)
//   - q:      process noise covariance Q; nil means zero covariance
//   - r:      measurement noise covariance R; nil means zero covariance
//   - opts:   optional control input, time step and covariance update settings
//
// It returns error wrapping ErrDimensionMismatch if any of the supplied
// matrices or vectors are not conformable with the model dimensions.
func New(m filter.LinearModel, init filter.InitCond, q, r mat.Symmetric, opts ...Option) (*KF, error) {
	if m == nil || init == nil {
		return nil, fmt.Errorf("invalid model or initial condition")
	}

	nx, nu, ny := m.SystemDims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("%w: invalid model dimensions: [%d x %d]", ErrDimensionMismatch, nx, ny)
	}

	if m.StateMatrix() == nil || m.OutputMatrix() == nil {
		return nil, fmt.Errorf("state transition and observation matrices must be defined")
	}

	f := mat.DenseCopyOf(m.StateMatrix())
	if rows, cols := f.Dims(); rows != nx || cols != nx {
		return nil, fmt.Errorf("%w: invalid state transition matrix dimensions: [%d x %d]", ErrDimensionMismatch, rows, cols)
	}

	h := mat.DenseCopyOf(m.OutputMatrix())
	if rows, cols := h.Dims(); rows != ny || cols != nx {
		return nil, fmt.Errorf("%w: invalid observation matrix dimensions: [%d x %d]", ErrDimensionMismatch, rows, cols)
	}

	var b *mat.Dense
	if ctl := m.ControlMatrix(); ctl != nil {
		b = mat.DenseCopyOf(ctl)
		if rows, cols := b.Dims(); rows != nx || cols != nu {
			return nil, fmt.Errorf("%w: invalid control matrix dimensions: [%d x %d]", ErrDimensionMismatch, rows, cols)
		}
	}

	if x0 := init.State(); x0 == nil || x0.Len() != nx {
		return nil, fmt.Errorf("%w: invalid initial state for state dimension %d", ErrDimensionMismatch, nx)
	}

	if p0 := init.Cov(); p0 == nil || p0.SymmetricDim() != nx {
		return nil, fmt.Errorf("%w: invalid initial covariance for state dimension %d", ErrDimensionMismatch, nx)
	}

	qCov, err := noiseCov(q, nx)
	if err != nil {
		return nil, fmt.Errorf("invalid process noise covariance: %w", err)
	}

	rCov, err := noiseCov(r, ny)
	if err != nil {
		return nil, fmt.Errorf("invalid measurement noise covariance: %w", err)
	}

	k := &KF{
		m:    m,
		init: init,
		f:    f,
		b:    b,
		h:    h,
		q:    qCov,
		r:    rCov,
		dt:   1.0,
		tol:  DefaultSymmetryTolerance,
	}

	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}

	if fixed, ok := k.u.(*control.Fixed); ok && k.b != nil && fixed.Len() != nu {
		return nil, fmt.Errorf("%w: control vector length %d, control matrix columns %d", ErrDimensionMismatch, fixed.Len(), nu)
	}

	k.Reset()

	return k, nil
}

// noiseCov returns a copy of cov or zero covariance of size n if cov is nil.
func noiseCov(cov mat.Symmetric, n int) (*mat.SymDense, error) {
	c := mat.NewSymDense(n, nil)
	if cov == nil {
		return c, nil
	}

	if cov.SymmetricDim() != n {
		return nil, fmt.Errorf("%w: [%d x %d], expected [%d x %d]", ErrDimensionMismatch,
			cov.SymmetricDim(), cov.SymmetricDim(), n, n)
	}
	c.CopySym(cov)

	return c, nil
}

// Reset resets KF state and covariance to the initial condition and rewinds its step counter.
func (k *KF) Reset() {
	nx, _, ny := k.m.SystemDims()

	k.x = &mat.VecDense{}
	k.x.CloneFromVec(k.init.State())

	p0 := k.init.Cov()
	k.p = mat.NewSymDense(p0.SymmetricDim(), nil)
	k.p.CopySym(p0)

	k.inn = mat.NewVecDense(ny, nil)
	k.k = mat.NewDense(nx, ny, nil)
	k.step = 0
}

// controlInput returns the control vector of the current step.
// It returns nil if KF has either no control input or no control matrix.
func (k *KF) controlInput() (mat.Vector, error) {
	if k.u == nil || k.b == nil {
		return nil, nil
	}

	u, err := control.At(k.u, float64(k.step)*k.dt)
	if err != nil {
		return nil, err
	}

	if _, nu := k.b.Dims(); u.Len() != nu {
		return nil, fmt.Errorf("%w: control vector length %d at step %d, expected %d", ErrDimensionMismatch, u.Len(), k.step, nu)
	}

	return u, nil
}

// Predict propagates KF state and covariance to the next step and returns the prior estimate:
//
//	x = F*x + B*u
//	P = F*P*F' + Q
//
// It returns error if the control input can not be resolved or if the predicted covariance is not symmetric.
func (k *KF) Predict() (filter.Estimate, error) {
	u, err := k.controlInput()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve control input: %w", err)
	}

	nx, _ := k.f.Dims()
	x := mat.NewVecDense(nx, nil)
	x.MulVec(k.f, k.x)

	if u != nil {
		bu := mat.NewVecDense(nx, nil)
		bu.MulVec(k.b, u)
		x.AddVec(x, bu)
	}

	// F*P*F' + Q
	fp := &mat.Dense{}
	fp.Mul(k.f, k.p)
	cov := &mat.Dense{}
	cov.Mul(fp, k.f.T())
	cov.Add(cov, k.q)

	p, err := matrix.Symmetrize(cov, k.tol)
	if err != nil {
		return nil, fmt.Errorf("%w: predicted covariance: %v", ErrAsymmetricCovariance, err)
	}

	k.x = x
	k.p = p

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Update corrects KF state using the measurement z and returns the posterior estimate:
//
//	S = H*P*H' + R
//	K = P*H' * inv(S)
//	y = z - H*x
//	x = x + K*y
//	P = P - K*H*P
//
// It returns error if z length does not match the model output dimension,
// if S can not be inverted or if the corrected covariance is not symmetric.
// KF state is left untouched when Update fails.
func (k *KF) Update(z mat.Vector) (filter.Estimate, error) {
	nx, _ := k.f.Dims()
	ny, _ := k.h.Dims()

	if z == nil {
		return nil, fmt.Errorf("%w: nil measurement", ErrDimensionMismatch)
	}

	if z.Len() != ny {
		return nil, fmt.Errorf("%w: measurement length %d, expected %d", ErrDimensionMismatch, z.Len(), ny)
	}

	// P*H'
	pht := &mat.Dense{}
	pht.Mul(k.p, k.h.T())

	// Note: pht = P * H' so we reuse the result here
	// H*P*H' + R
	s := &mat.Dense{}
	s.Mul(k.h, pht)
	s.Add(s, k.r)

	sInv := &mat.Dense{}
	if err := sInv.Inverse(s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularInnovationCovariance, err)
	}

	gain := &mat.Dense{}
	gain.Mul(pht, sInv)

	// innovation vector
	hx := mat.NewVecDense(ny, nil)
	hx.MulVec(k.h, k.x)
	inn := mat.NewVecDense(ny, nil)
	inn.SubVec(z, hx)

	// update state x
	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(gain, inn)
	x := mat.NewVecDense(nx, nil)
	x.AddVec(k.x, corr)

	cov, err := k.correctCov(gain)
	if err != nil {
		return nil, err
	}

	p, err := matrix.Symmetrize(cov, k.tol)
	if err != nil {
		return nil, fmt.Errorf("%w: corrected covariance: %v", ErrAsymmetricCovariance, err)
	}

	k.x = x
	k.p = p
	k.inn = inn
	k.k = gain
	k.step++

	return estimate.NewBaseWithCov(k.x, k.p)
}

// correctCov returns the corrected state covariance given Kalman gain.
func (k *KF) correctCov(gain *mat.Dense) (*mat.Dense, error) {
	// K*H
	kh := &mat.Dense{}
	kh.Mul(gain, k.h)

	if !k.joseph {
		// P - K*H*P
		khp := &mat.Dense{}
		khp.Mul(kh, k.p)
		cov := &mat.Dense{}
		cov.Sub(k.p, khp)
		return cov, nil
	}

	nx, _ := k.f.Dims()
	eye, err := matrix.Identity(nx)
	if err != nil {
		return nil, err
	}

	// I - K*H
	a := &mat.Dense{}
	a.Sub(eye, kh)

	// (I - K*H)*P*(I - K*H)'
	ap := &mat.Dense{}
	ap.Mul(a, k.p)
	cov := &mat.Dense{}
	cov.Mul(ap, a.T())

	// K*R*K'
	kr := &mat.Dense{}
	kr.Mul(gain, k.r)
	krk := &mat.Dense{}
	krk.Mul(kr, gain.T())

	cov.Add(cov, krk)

	return cov, nil
}

// Step runs one predict/update cycle of KF for measurement z and returns the posterior estimate.
// It returns error if it either fails to propagate or correct the state.
// KF state is left untouched when Step fails.
func (k *KF) Step(z mat.Vector) (filter.Estimate, error) {
	x, p := k.x, k.p

	if _, err := k.Predict(); err != nil {
		return nil, err
	}

	est, err := k.Update(z)
	if err != nil {
		k.x, k.p = x, p
		return nil, err
	}

	return est, nil
}

// Run resets KF to its initial condition and runs it over all measurements in zs in order.
// It returns the full trajectory of state estimates, covariances and Kalman gains.
// It returns error if zs is empty or if any step fails; the error reports the failed step.
func (k *KF) Run(zs []mat.Vector) (*Trajectory, error) {
	if len(zs) == 0 {
		return nil, ErrNoMeasurements
	}

	k.Reset()

	traj := newTrajectory(len(zs))
	traj.add(k.x, k.p, nil)

	for i, z := range zs {
		if _, err := k.Step(z); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		traj.add(k.x, k.p, k.k)
	}

	return traj, nil
}

// RunScalar runs KF over scalar measurements zs.
// It returns error wrapping ErrDimensionMismatch if the model output is not one-dimensional.
func (k *KF) RunScalar(zs []float64) (*Trajectory, error) {
	if ny, _ := k.h.Dims(); ny != 1 {
		return nil, fmt.Errorf("%w: scalar measurements for output dimension %d", ErrDimensionMismatch, ny)
	}

	vecs := make([]mat.Vector, len(zs))
	for i := range zs {
		vecs[i] = mat.NewVecDense(1, []float64{zs[i]})
	}

	return k.Run(vecs)
}

// Model returns KF model
func (k *KF) Model() filter.LinearModel {
	return k.m
}

// Steps returns the number of measurements KF has processed since the last reset
func (k *KF) Steps() int {
	return k.step
}

// State returns KF state estimate
func (k *KF) State() mat.Vector {
	x := &mat.VecDense{}
	x.CloneFromVec(k.x)

	return x
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if cov == nil {
		return fmt.Errorf("invalid covariance matrix: %v", cov)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("%w: invalid covariance matrix dims: [%d x %d]", ErrDimensionMismatch, cov.SymmetricDim(), cov.SymmetricDim())
	}

	k.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns the innovation vector of the last update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}

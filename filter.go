package filter

import "gonum.org/v1/gonum/mat"

// Filter is a dynamical system filter which owns its state estimate.
type Filter interface {
	// Predict propagates the internal state estimate to the next step
	Predict() (Estimate, error)
	// Update corrects the predicted state using an external measurement
	Update(mat.Vector) (Estimate, error)
}

// Propagator propagates internal state of the system to the next step
type Propagator interface {
	// Propagate propagates state x to the next step given control input u and process noise q
	Propagate(x, u, q mat.Vector) (mat.Vector, error)
}

// Observer observes external state (output) of the system
type Observer interface {
	// Observe observes system output given state x and measurement noise r
	Observe(x, r mat.Vector) (mat.Vector, error)
}

// LinearModel is a linear, discrete-time model of a dynamical system
//
//	x[k+1] = F*x[k] + B*u[k]
//	y[k]   = H*x[k]
type LinearModel interface {
	// Propagator is system propagator
	Propagator
	// Observer is system observer
	Observer
	// SystemDims returns state (nx), control input (nu) and output (ny) dimensions
	SystemDims() (nx, nu, ny int)
	// StateMatrix returns state transition matrix F
	StateMatrix() mat.Matrix
	// ControlMatrix returns control matrix B or nil if the model has no control input
	ControlMatrix() mat.Matrix
	// OutputMatrix returns observation matrix H
	OutputMatrix() mat.Matrix
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is dynamical system filter estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}

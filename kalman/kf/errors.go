package kf

import "errors"

var (
	// ErrDimensionMismatch is returned when matrices, vectors or measurements are not conformable.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSingularInnovationCovariance is returned when the innovation covariance can not be inverted.
	ErrSingularInnovationCovariance = errors.New("singular innovation covariance")
	// ErrAsymmetricCovariance is returned when the state covariance loses its symmetry.
	ErrAsymmetricCovariance = errors.New("asymmetric state covariance")
	// ErrInvalidTimeStep is returned for non-positive or non-finite time steps.
	ErrInvalidTimeStep = errors.New("invalid time step")
	// ErrNoMeasurements is returned when a run is given no measurements.
	ErrNoMeasurements = errors.New("no measurements")
)

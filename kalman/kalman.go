// Package kalman defines the interface shared by Kalman filter implementations.
package kalman

import (
	filter "github.com/lkf-go/lkf"
	"gonum.org/v1/gonum/mat"
)

// Kalman is a linear Kalman filter which owns its state estimate.
type Kalman interface {
	// filter.Filter is dynamical system filter
	filter.Filter
	// State returns the current state estimate
	State() mat.Vector
	// Cov returns the current state covariance
	Cov() mat.Symmetric
	// Gain returns the Kalman gain applied by the last update
	Gain() mat.Matrix
	// Innovation returns the measurement residual of the last update
	Innovation() mat.Vector
}

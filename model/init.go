package model

import (
	"fmt"

	filter "github.com/lkf-go/lkf"
	"gonum.org/v1/gonum/mat"
)

var _ filter.InitCond = (*InitCond)(nil)

// InitCond implements filter.InitCond
type InitCond struct {
	state *mat.VecDense
	cov   *mat.SymDense
}

// NewInitCond creates new InitCond from copies of state and cov and returns it.
// It returns error if state is empty or if cov dimension does not match state length.
func NewInitCond(state mat.Vector, cov mat.Symmetric) (*InitCond, error) {
	if state == nil || state.Len() == 0 {
		return nil, fmt.Errorf("invalid initial state: %v", state)
	}

	if cov == nil || cov.SymmetricDim() != state.Len() {
		return nil, fmt.Errorf("invalid initial covariance for state of length %d", state.Len())
	}

	s := &mat.VecDense{}
	s.CloneFromVec(state)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &InitCond{
		state: s,
		cov:   c,
	}, nil
}

// State returns initial state
func (c *InitCond) State() mat.Vector {
	state := &mat.VecDense{}
	state.CloneFromVec(c.state)

	return state
}

// Cov returns initial covariance
func (c *InitCond) Cov() mat.Symmetric {
	cov := mat.NewSymDense(c.cov.SymmetricDim(), nil)
	cov.CopySym(c.cov)

	return cov
}

package kf

import (
	"fmt"

	filter "github.com/lkf-go/lkf"
	"github.com/lkf-go/lkf/estimate"
	"github.com/lkf-go/lkf/model"
	"gonum.org/v1/gonum/mat"
)

// Trajectory is the result of a KF run over N measurements.
// States and Covs hold N+1 elements: the initial condition followed by the
// posterior after each measurement. Gains holds the N Kalman gains, Gains[i]
// being the gain used to fold in the i-th measurement.
type Trajectory struct {
	States []*mat.VecDense
	Covs   []*mat.SymDense
	Gains  []*mat.Dense
}

func newTrajectory(n int) *Trajectory {
	return &Trajectory{
		States: make([]*mat.VecDense, 0, n+1),
		Covs:   make([]*mat.SymDense, 0, n+1),
		Gains:  make([]*mat.Dense, 0, n),
	}
}

// add appends copies of x, p and gain; gain is skipped if it is nil.
func (t *Trajectory) add(x mat.Vector, p mat.Symmetric, gain mat.Matrix) {
	xc := &mat.VecDense{}
	xc.CloneFromVec(x)
	t.States = append(t.States, xc)

	pc := mat.NewSymDense(p.SymmetricDim(), nil)
	pc.CopySym(p)
	t.Covs = append(t.Covs, pc)

	if gain != nil {
		t.Gains = append(t.Gains, mat.DenseCopyOf(gain))
	}
}

// Len returns the number of measurements in the trajectory
func (t *Trajectory) Len() int {
	return len(t.Gains)
}

// Estimate returns the estimate at index i: 0 is the initial condition, i > 0 the posterior after the i-th measurement.
// It returns error if i is out of range.
func (t *Trajectory) Estimate(i int) (filter.Estimate, error) {
	if i < 0 || i >= len(t.States) {
		return nil, fmt.Errorf("estimate index out of range: %d", i)
	}

	return estimate.NewBaseWithCov(t.States[i], t.Covs[i])
}

// Final returns the last posterior as an initial condition so that it can seed the next run.
func (t *Trajectory) Final() (filter.InitCond, error) {
	if len(t.States) == 0 {
		return nil, fmt.Errorf("empty trajectory")
	}
	last := len(t.States) - 1

	return model.NewInitCond(t.States[last], t.Covs[last])
}

// StateMatrix returns the state estimates stacked in rows of a matrix.
func (t *Trajectory) StateMatrix() *mat.Dense {
	if len(t.States) == 0 {
		return &mat.Dense{}
	}

	out := mat.NewDense(len(t.States), t.States[0].Len(), nil)
	for i, x := range t.States {
		out.SetRow(i, x.RawVector().Data)
	}

	return out
}

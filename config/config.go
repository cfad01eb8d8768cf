// Package config loads filter run descriptions.
//
// A run description holds the model matrices, the initial condition, the
// optional control settings and the measurements. It is read from YAML;
// JSON documents are accepted as well. Q and R default to zero matrices.
// Matrices are given as lists of rows:
//
//	F: [[1, 1], [0, 1]]
//	H: [[1, 0]]
//	Q: [[0.01, 0], [0, 0.01]]
//	R: [[0.25]]
//	x0: [0, 0]
//	P0: [[1, 0], [0, 1]]
//	B: [[0.5], [1]]
//	u: [-1]
//	dt: 1
//	zs: [1.1, 2.3, 2.9]
//
// Measurements are either a list of vectors or, for one-dimensional
// output, a flat list of scalars.
package config

import (
	"fmt"
	"os"

	"github.com/lkf-go/lkf/control"
	"github.com/lkf-go/lkf/kalman/kf"
	"github.com/lkf-go/lkf/matrix"
	"github.com/lkf-go/lkf/model"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// symmetryTolerance is the relative tolerance of covariance symmetry checks.
const symmetryTolerance = 1e-9

// Run is a filter run description
type Run struct {
	// F is state transition matrix
	F [][]float64 `yaml:"F"`
	// B is optional control matrix
	B [][]float64 `yaml:"B,omitempty"`
	// H is observation matrix
	H [][]float64 `yaml:"H"`
	// Q is optional process noise covariance
	Q [][]float64 `yaml:"Q,omitempty"`
	// R is optional measurement noise covariance
	R [][]float64 `yaml:"R,omitempty"`
	// X0 is initial state
	X0 []float64 `yaml:"x0"`
	// P0 is initial state covariance
	P0 [][]float64 `yaml:"P0"`
	// U is optional fixed control input
	U []float64 `yaml:"u,omitempty"`
	// Dt is optional time step
	Dt *float64 `yaml:"dt,omitempty"`
	// Joseph enables Joseph form covariance update
	Joseph bool `yaml:"joseph,omitempty"`
	// Zs are measurements
	Zs Measurements `yaml:"zs"`
}

// Measurements is an ordered sequence of measurement vectors
type Measurements [][]float64

// UnmarshalYAML implements yaml.Unmarshaler.
// It accepts either a list of vectors or a flat list of scalars.
func (m *Measurements) UnmarshalYAML(value *yaml.Node) error {
	var flat []float64
	if err := value.Decode(&flat); err == nil {
		out := make(Measurements, len(flat))
		for i, z := range flat {
			out[i] = []float64{z}
		}
		*m = out
		return nil
	}

	var nested [][]float64
	if err := value.Decode(&nested); err != nil {
		return fmt.Errorf("line %d: measurements must be a list of numbers or a list of vectors: %v", value.Line, err)
	}
	*m = nested

	return nil
}

// Load reads run description from file at path.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run description: %w", err)
	}

	return Parse(data)
}

// Parse parses run description from data.
// It returns error if data is not valid YAML or if required fields are missing.
func Parse(data []byte) (*Run, error) {
	r := &Run{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to parse run description: %w", err)
	}

	for name, v := range map[string]int{
		"F":  len(r.F),
		"H":  len(r.H),
		"x0": len(r.X0),
		"P0": len(r.P0),
		"zs": len(r.Zs),
	} {
		if v == 0 {
			return nil, fmt.Errorf("missing required field: %s", name)
		}
	}

	for i, z := range r.Zs {
		if len(z) == 0 {
			return nil, fmt.Errorf("empty measurement: %d", i)
		}
	}

	if len(r.U) > 0 && len(r.B) == 0 {
		return nil, fmt.Errorf("control input u given without control matrix B")
	}

	return r, nil
}

// dense returns rows as a dense matrix.
// It returns error if rows are empty or of uneven length.
func dense(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%s: empty matrix", name)
	}

	cols := len(rows[0])
	m := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%s: row %d has %d columns, expected %d", name, i, len(row), cols)
		}
		m.SetRow(i, row)
	}

	return m, nil
}

// sym returns rows as a symmetric matrix.
// It returns error if rows do not form a symmetric matrix.
func sym(name string, rows [][]float64) (*mat.SymDense, error) {
	m, err := dense(name, rows)
	if err != nil {
		return nil, err
	}

	s, err := matrix.Symmetrize(m, symmetryTolerance)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}

	return s, nil
}

// Model returns linear model built from F, B and H.
func (r *Run) Model() (*model.Linear, error) {
	F, err := dense("F", r.F)
	if err != nil {
		return nil, err
	}

	H, err := dense("H", r.H)
	if err != nil {
		return nil, err
	}

	if len(r.B) == 0 {
		return model.NewLinear(F, nil, H)
	}

	B, err := dense("B", r.B)
	if err != nil {
		return nil, err
	}

	return model.NewLinear(F, B, H)
}

// InitCond returns initial condition built from x0 and P0.
func (r *Run) InitCond() (*model.InitCond, error) {
	P0, err := sym("P0", r.P0)
	if err != nil {
		return nil, err
	}

	return model.NewInitCond(mat.NewVecDense(len(r.X0), r.X0), P0)
}

// optionalSym returns rows as a symmetric matrix or nil if rows are empty.
func optionalSym(name string, rows [][]float64) (mat.Symmetric, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	s, err := sym(name, rows)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Noise returns process and measurement noise covariances.
// Missing covariances are returned as nil which the filter treats as zero.
func (r *Run) Noise() (q, rc mat.Symmetric, err error) {
	if q, err = optionalSym("Q", r.Q); err != nil {
		return nil, nil, err
	}

	if rc, err = optionalSym("R", r.R); err != nil {
		return nil, nil, err
	}

	return q, rc, nil
}

// Options returns filter options set by the run description.
func (r *Run) Options() ([]kf.Option, error) {
	var opts []kf.Option

	if len(r.U) > 0 {
		u, err := control.NewFixed(mat.NewVecDense(len(r.U), r.U))
		if err != nil {
			return nil, err
		}
		opts = append(opts, kf.WithControl(u))
	}

	if r.Dt != nil {
		opts = append(opts, kf.WithTimeStep(*r.Dt))
	}

	if r.Joseph {
		opts = append(opts, kf.WithJosephForm())
	}

	return opts, nil
}

// Filter creates new filter from the run description.
func (r *Run) Filter() (*kf.KF, error) {
	m, err := r.Model()
	if err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}

	init, err := r.InitCond()
	if err != nil {
		return nil, fmt.Errorf("invalid initial condition: %w", err)
	}

	q, rc, err := r.Noise()
	if err != nil {
		return nil, fmt.Errorf("invalid noise: %w", err)
	}

	opts, err := r.Options()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return kf.New(m, init, q, rc, opts...)
}

// Measurements returns run measurements as vectors.
func (r *Run) Measurements() []mat.Vector {
	zs := make([]mat.Vector, len(r.Zs))
	for i, z := range r.Zs {
		zs[i] = mat.NewVecDense(len(z), z)
	}

	return zs
}

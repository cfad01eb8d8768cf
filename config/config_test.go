package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lkf-go/lkf/kalman/kf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const constPosition = `
F: [[1]]
H: [[1]]
Q: [[0]]
R: [[1]]
x0: [0]
P0: [[1]]
zs: [1, 1, 1]
`

func TestParse(t *testing.T) {
	assert := assert.New(t)

	r, err := Parse([]byte(constPosition))
	require.NoError(t, err)

	want := &Run{
		F:  [][]float64{{1}},
		H:  [][]float64{{1}},
		Q:  [][]float64{{0}},
		R:  [][]float64{{1}},
		X0: []float64{0},
		P0: [][]float64{{1}},
		Zs: Measurements{{1}, {1}, {1}},
	}
	assert.Empty(cmp.Diff(want, r))
}

func TestParseJSON(t *testing.T) {
	assert := assert.New(t)

	doc := `{
  "F": [[1, 1], [0, 1]],
  "B": [[0.5], [1]],
  "H": [[1, 0]],
  "Q": [[0.01, 0], [0, 0.01]],
  "R": [[0.25]],
  "x0": [100, 0],
  "P0": [[1, 0], [0, 1]],
  "u": [-1],
  "dt": 0.5,
  "joseph": true,
  "zs": [[99.4], [98.1], [95.3]]
}`

	r, err := Parse([]byte(doc))
	require.NoError(t, err)

	dt := 0.5
	want := &Run{
		F:      [][]float64{{1, 1}, {0, 1}},
		B:      [][]float64{{0.5}, {1}},
		H:      [][]float64{{1, 0}},
		Q:      [][]float64{{0.01, 0}, {0, 0.01}},
		R:      [][]float64{{0.25}},
		X0:     []float64{100, 0},
		P0:     [][]float64{{1, 0}, {0, 1}},
		U:      []float64{-1},
		Dt:     &dt,
		Joseph: true,
		Zs:     Measurements{{99.4}, {98.1}, {95.3}},
	}
	assert.Empty(cmp.Diff(want, r))

	opts, err := r.Options()
	require.NoError(t, err)
	assert.Len(opts, 3)

	f, err := r.Filter()
	require.NoError(t, err)

	traj, err := f.Run(r.Measurements())
	require.NoError(t, err)
	assert.Equal(3, traj.Len())
}

func TestParseErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"invalid yaml":        "F: [[1]",
		"missing measurement": "F: [[1]]\nH: [[1]]\nQ: [[0]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\n",
		"missing model":       "H: [[1]]\nQ: [[0]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\nzs: [1]\n",
		"invalid measurement": "F: [[1]]\nH: [[1]]\nQ: [[0]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\nzs: [a, b]\n",
		"empty measurement":   "F: [[1]]\nH: [[1]]\nQ: [[0]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\nzs: [[1], []]\n",
		"control without B":   "F: [[1]]\nH: [[1]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\nu: [1]\nzs: [1]\n",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := Parse([]byte(doc))
			require.Nil(t, r)
			require.Error(t, err)
		})
	}
}

func TestRunFilter(t *testing.T) {
	assert := assert.New(t)

	r, err := Parse([]byte(constPosition))
	require.NoError(t, err)

	f, err := r.Filter()
	require.NoError(t, err)

	traj, err := f.Run(r.Measurements())
	require.NoError(t, err)

	final := traj.States[len(traj.States)-1]
	assert.InDelta(0.75, final.AtVec(0), 1e-9)
	assert.InDelta(0.25, traj.Covs[len(traj.Covs)-1].At(0, 0), 1e-9)
}

func TestRunFilterZeroNoise(t *testing.T) {
	assert := assert.New(t)

	// Q defaults to zero
	r, err := Parse([]byte("F: [[1]]\nH: [[1]]\nR: [[1]]\nx0: [0]\nP0: [[1]]\nzs: [1, 1, 1]\n"))
	require.NoError(t, err)

	q, rc, err := r.Noise()
	require.NoError(t, err)
	assert.Nil(q)
	assert.NotNil(rc)

	f, err := r.Filter()
	require.NoError(t, err)

	traj, err := f.Run(r.Measurements())
	require.NoError(t, err)
	assert.InDelta(0.75, traj.States[3].AtVec(0), 1e-9)
	assert.InDelta(0.25, traj.Covs[3].At(0, 0), 1e-9)

	// R defaults to zero: every update snaps to the measurement
	r, err = Parse([]byte("F: [[1]]\nH: [[1]]\nQ: [[1]]\nx0: [0]\nP0: [[1]]\nzs: [2, 3]\n"))
	require.NoError(t, err)

	f, err = r.Filter()
	require.NoError(t, err)

	traj, err = f.Run(r.Measurements())
	require.NoError(t, err)
	assert.InDelta(2.0, traj.States[1].AtVec(0), 1e-12)
	assert.InDelta(3.0, traj.States[2].AtVec(0), 1e-12)
	assert.InDelta(0.0, traj.Covs[2].At(0, 0), 1e-12)
}

func TestRunFilterErrors(t *testing.T) {
	base := func() *Run {
		r, err := Parse([]byte(constPosition))
		require.NoError(t, err)
		return r
	}

	for name, test := range map[string]struct {
		edit func(*Run)
		want error
	}{
		"ragged F":       {edit: func(r *Run) { r.F = [][]float64{{1, 0}, {1}} }},
		"non-square F":   {edit: func(r *Run) { r.F = [][]float64{{1, 0}} }},
		"asymmetric Q":   {edit: func(r *Run) { r.Q = [][]float64{{1, 2}, {3, 4}} }},
		"asymmetric P0":  {edit: func(r *Run) { r.P0 = [][]float64{{1, 2}, {3, 4}} }},
		"R dimension":    {edit: func(r *Run) { r.R = [][]float64{{1, 0}, {0, 1}} }, want: kf.ErrDimensionMismatch},
		"B rows":         {edit: func(r *Run) { r.B = [][]float64{{1}, {1}} }},
		"u length":       {edit: func(r *Run) { r.B = [][]float64{{1}}; r.U = []float64{1, 2} }, want: kf.ErrDimensionMismatch},
		"zero time step": {edit: func(r *Run) { dt := 0.0; r.Dt = &dt }, want: kf.ErrInvalidTimeStep},
	} {
		t.Run(name, func(t *testing.T) {
			r := base()
			test.edit(r)

			f, err := r.Filter()
			require.Nil(t, f)
			require.Error(t, err)
			if test.want != nil {
				require.ErrorIs(t, err, test.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(constPosition), 0o600))

	r, err := Load(path)
	assert.NoError(err)
	assert.NotNil(r)

	r, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Nil(r)
	assert.ErrorIs(err, os.ErrNotExist)
}

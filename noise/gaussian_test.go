package noise

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestNewGaussian(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		mean []float64
		cov  *mat.SymDense
	}{
		{
			mean: []float64{2, 3},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
		},
		{
			// positive semi-definite covariance
			mean: []float64{0, 0},
			cov:  mat.NewSymDense(2, []float64{1, 1, 1, 1}),
		},
		{
			mean: []float64{0},
			cov:  mat.NewSymDense(1, nil),
		},
	} {
		g, err := NewGaussian(test.mean, test.cov, 1)
		assert.NotNil(g)
		assert.NoError(err)
	}

	g, err := NewGaussian([]float64{1, 2, 3}, mat.NewSymDense(2, nil), 1)
	assert.Nil(g)
	assert.Error(err)

	g, err = NewGaussian(nil, nil, 1)
	assert.Nil(g)
	assert.Error(err)
}

func TestGaussianMeanCov(t *testing.T) {
	assert := assert.New(t)

	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, 1)
	assert.NotNil(g)
	assert.NoError(err)

	gCov := g.Cov()
	assert.Equal(cov.SymmetricDim(), gCov.SymmetricDim())
	assert.True(mat.Equal(cov, gCov))
	assert.EqualValues(mean, g.Mean())

	// noise keeps its own copies
	mean[0] = 100
	cov.SetSym(0, 1, 0.5)
	assert.Equal(2.0, g.Mean()[0])
	assert.Equal(0.1, g.Cov().At(1, 0))
}

func TestGaussianSample(t *testing.T) {
	assert := assert.New(t)

	for _, test := range []struct {
		mean []float64
		cov  *mat.SymDense
	}{
		{
			mean: []float64{2, 3},
			cov:  mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
		},
		{
			mean: []float64{-1, 4},
			cov:  mat.NewSymDense(2, []float64{0.5, 0.5, 0.5, 0.5}),
		},
	} {
		g, err := NewGaussian(test.mean, test.cov, 3)
		assert.NotNil(g)
		assert.NoError(err)

		n := 4000
		first := make([]float64, n)
		for i := range first {
			sample := g.Sample()
			assert.Equal(len(test.mean), sample.Len())
			first[i] = sample.AtVec(0)
		}

		assert.InDelta(test.mean[0], stat.Mean(first, nil), 0.1)
		assert.InDelta(test.cov.At(0, 0), stat.Variance(first, nil), 0.1)
	}
}

func TestGaussianReset(t *testing.T) {
	assert := assert.New(t)

	for _, cov := range []*mat.SymDense{
		mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1}),
		mat.NewSymDense(2, []float64{1, 1, 1, 1}),
	} {
		g, err := NewGaussian([]float64{2, 3}, cov, 11)
		assert.NotNil(g)
		assert.NoError(err)

		sample1 := g.Sample()
		sample2 := g.Sample()
		assert.False(mat.Equal(sample1, sample2))

		err = g.Reset()
		assert.NoError(err)

		// reset replays the sequence
		assert.True(mat.Equal(sample1, g.Sample()))
		assert.True(mat.Equal(sample2, g.Sample()))
	}
}

func TestGaussianString(t *testing.T) {
	assert := assert.New(t)

	str := `Gaussian{
Mean=[2 3]
Cov=⎡  1  0.1⎤
    ⎣0.1    1⎦
}`
	mean := []float64{2, 3}
	cov := mat.NewSymDense(2, []float64{1, 0.1, 0.1, 1})

	g, err := NewGaussian(mean, cov, 1)
	assert.NotNil(g)
	assert.NoError(err)
	assert.Equal(str, g.String())
}

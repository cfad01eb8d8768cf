package noise

import (
	"fmt"

	"github.com/lkf-go/lkf/rnd"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise drawn from a seeded source.
// Covariance may be positive semi-definite: samples are then drawn via SVD
// of the covariance instead of its Cholesky factorization.
type Gaussian struct {
	// dist is a multivariate normal distribution; nil if cov is not positive definite
	dist *distmv.Normal
	// rng is the source of samples
	rng *rand.Rand
	// seed is the seed of rng
	seed uint64
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
}

// NewGaussian creates new Gaussian noise with given mean and covariance whose samples are drawn from a source seeded with seed.
// It returns error if mean length does not match cov dimension.
func NewGaussian(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || len(mean) == 0 || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid gaussian noise dimensions: mean %d", len(mean))
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	g := &Gaussian{
		seed: seed,
		mean: m,
		cov:  c,
	}

	if err := g.Reset(); err != nil {
		return nil, err
	}

	return g, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	if g.dist != nil {
		r := g.dist.Rand(nil)
		return mat.NewVecDense(len(r), r)
	}

	// cov was validated by Reset so the SVD does not fail here
	s, _ := rnd.WithCovN(g.cov, 1, g.rng)
	sample := mat.VecDenseCopyOf(s.ColView(0))
	sample.AddVec(sample, mat.NewVecDense(len(g.mean), g.mean))

	return sample
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset reseeds Gaussian noise so that it replays the same sequence of samples.
// It returns error if the covariance can not be factorized.
func (g *Gaussian) Reset() error {
	src := rand.NewSource(g.seed)
	g.rng = rand.New(src)

	if dist, ok := distmv.NewNormal(g.mean, g.cov, src); ok {
		g.dist = dist
		return nil
	}
	g.dist = nil

	if _, err := rnd.WithCovN(g.cov, 1, rand.New(rand.NewSource(g.seed))); err != nil {
		return fmt.Errorf("failed to reset gaussian noise: %v", err)
	}

	return nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}

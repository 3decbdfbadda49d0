package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov mat.Symmetric
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// It returns error if cov is not positive definite or if the dimensions
// of mean and cov do not match.
func NewGaussian(mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	dist, err := newGaussianDist(mean, cov)
	if err != nil {
		return nil, err
	}

	return &Gaussian{
		dist: dist,
		mean: mean,
		cov:  cov,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	return g.cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	return g.mean
}

// Reset re-seeds the Gaussian noise source.
// It returns error if it fails to recreate the underlying distribution.
func (g *Gaussian) Reset() error {
	dist, err := newGaussianDist(g.mean, g.cov)
	if err != nil {
		return fmt.Errorf("failed to reset Gaussian noise: %v", err)
	}
	g.dist = dist

	return nil
}

func newGaussianDist(mean []float64, cov mat.Symmetric) (*distmv.Normal, error) {
	size := cov.SymmetricDim()
	if len(mean) != size {
		return nil, fmt.Errorf("invalid Gaussian dimensions: mean %d, cov %d x %d", len(mean), size, size)
	}

	seed := rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	dist, ok := distmv.NewNormal(mean, cov, seed)
	if !ok {
		return nil, fmt.Errorf("failed to create Gaussian distribution")
	}

	return dist, nil
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}

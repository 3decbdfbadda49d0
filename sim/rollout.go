package sim

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	filter "github.com/milosgajdos/go-adaptive"
	"github.com/milosgajdos/go-adaptive/rnd"
)

// Rollout simulates steps of the model m starting from the initial condition
// ic, driving it with the constant input u (which may be nil). Process and
// measurement noise are drawn from zero-mean Gaussians with covariances qCov
// and rCov.
//
// It returns the truth states and the noisy measurements with one row per
// step. It returns error if steps is not positive, if either covariance
// fails to be sampled or if the model fails to propagate.
func Rollout(m *Discrete, ic filter.InitCond, u mat.Vector, qCov, rCov mat.Symmetric, steps int) (states, measurements *mat.Dense, err error) {
	if steps <= 0 {
		return nil, nil, fmt.Errorf("invalid number of steps: %d", steps)
	}

	if qCov == nil || rCov == nil {
		return nil, nil, fmt.Errorf("invalid noise covariance supplied")
	}

	nx, _, ny := m.SystemDims()

	wd, err := rnd.WithCovN(qCov, steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sample process noise: %v", err)
	}

	wn, err := rnd.WithCovN(rCov, steps)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sample measurement noise: %v", err)
	}

	states = mat.NewDense(steps, nx, nil)
	measurements = mat.NewDense(steps, ny, nil)

	x := ic.State()
	for i := 0; i < steps; i++ {
		x, err = m.Propagate(x, u, wd.ColView(i))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to propagate system state: %v", err)
		}

		y, err := m.Observe(x, u, wn.ColView(i))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to observe system output: %v", err)
		}

		for j := 0; j < nx; j++ {
			states.Set(i, j, x.AtVec(j))
		}
		for j := 0; j < ny; j++ {
			measurements.Set(i, j, y.AtVec(j))
		}
	}

	return states, measurements, nil
}

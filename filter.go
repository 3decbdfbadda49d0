package filter

import "gonum.org/v1/gonum/mat"

// Filter is a discrete-time measurement filter.
// Each call advances the filter by exactly one time step.
type Filter interface {
	// Filter runs one filter cycle using measurement z
	Filter(z mat.Vector) (Estimate, error)
	// FilterWithInput runs one filter cycle using control input u and measurement z
	FilterWithInput(u, z mat.Vector) (Estimate, error)
}

// InitCond is initial state condition of the filter
type InitCond interface {
	// State returns initial filter state
	State() mat.Vector
	// Cov returns initial state covariance
	Cov() mat.Symmetric
}

// Estimate is a filter state estimate
type Estimate interface {
	// Val returns estimate value
	Val() mat.Vector
	// Cov returns estimate covariance
	Cov() mat.Symmetric
}

// Noise is dynamical system noise
type Noise interface {
	// Mean returns noise mean
	Mean() []float64
	// Cov returns covariance matrix of the noise
	Cov() mat.Symmetric
	// Sample returns a sample of the noise
	Sample() mat.Vector
	// Reset resets the noise
	Reset() error
}

package kalman

import (
	filter "github.com/milosgajdos/go-adaptive"
	"gonum.org/v1/gonum/mat"
)

// Kalman is a Kalman-family filter
type Kalman interface {
	// filter.Filter is a discrete-time measurement filter
	filter.Filter
	// Cov returns Kalman filter state covariance
	Cov() mat.Symmetric
	// Gain returns Kalman filter gain
	Gain() mat.Matrix
}

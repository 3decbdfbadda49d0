package estimate

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Base is base filter estimate
type Base struct {
	// val is estimated value
	val *mat.VecDense
	// cov is estimate covariance
	cov *mat.SymDense
	// inn is the innovation which produced the estimate
	inn *mat.VecDense
}

// New returns base estimate given val.
// Its covariance is zero and it carries no innovation.
func New(val mat.Vector) (*Base, error) {
	v := &mat.VecDense{}
	if val != nil {
		v.CloneFromVec(val)
	}

	c := mat.NewSymDense(v.Len(), nil)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewWithCov returns base estimate given val and its covariance cov.
// It returns error if the dimensions of val and cov do not match.
func NewWithCov(val mat.Vector, cov mat.Symmetric) (*Base, error) {
	rv, _ := val.Dims()
	rc := cov.SymmetricDim()

	if rv != rc {
		return nil, fmt.Errorf("invalid dimensions, val: %d, cov: %d x %d", rv, rc, rc)
	}

	v := &mat.VecDense{}
	v.CloneFromVec(val)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	return &Base{
		val: v,
		cov: c,
	}, nil
}

// NewWithInnovation returns base estimate given val, its covariance cov and
// the innovation inn which produced it.
// It returns error if the dimensions of val and cov do not match.
func NewWithInnovation(val mat.Vector, cov mat.Symmetric, inn mat.Vector) (*Base, error) {
	b, err := NewWithCov(val, cov)
	if err != nil {
		return nil, err
	}

	i := &mat.VecDense{}
	if inn != nil {
		i.CloneFromVec(inn)
	}
	b.inn = i

	return b, nil
}

// Val returns estimated value
func (b *Base) Val() mat.Vector {
	v := &mat.VecDense{}
	v.CloneFromVec(b.val)

	return v
}

// Cov returns estimate covariance
func (b *Base) Cov() mat.Symmetric {
	cov := mat.NewSymDense(b.cov.SymmetricDim(), nil)
	cov.CopySym(b.cov)

	return cov
}

// Innovation returns the innovation which produced the estimate.
// It returns nil if the estimate carries no innovation.
func (b *Base) Innovation() mat.Vector {
	if b.inn == nil {
		return nil
	}

	inn := &mat.VecDense{}
	inn.CloneFromVec(b.inn)

	return inn
}

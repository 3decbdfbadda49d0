package matrix

import (
	"gonum.org/v1/gonum/mat"
)

// Outer returns the outer product x*y'.
// It panics if either x or y is nil.
func Outer(x, y mat.Vector) *mat.Dense {
	out := mat.NewDense(x.Len(), y.Len(), nil)
	out.Outer(1.0, x, y)

	return out
}

// ToSym returns a symmetric copy of m: the returned matrix is (m + m')/2.
// Matrices which are symmetric up to floating point round-off, such as
// covariance products, come out exactly symmetric.
// It panics if m is not square.
func ToSym(m mat.Matrix) *mat.SymDense {
	r, c := m.Dims()
	if r != c {
		panic("matrix: non-square matrix")
	}

	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return s
}

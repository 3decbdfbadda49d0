package akf

import (
	"github.com/milosgajdos/go-adaptive/matrix"
	"gonum.org/v1/gonum/mat"
)

// innWindow is a fixed capacity ring buffer of the most recent innovation
// vectors. It maintains cov, the window-weighted running average of the outer
// products of its entries, incrementally: each push costs O(dim^2) regardless
// of the window size.
type innWindow struct {
	// size is the ring capacity
	size int
	// dim is innovation vector dimension
	dim int
	// buf stores the retained innovations, oldest at head
	buf  []*mat.VecDense
	head int
	// n is the number of innovations currently retained
	n int
	// count is the total number of innovations ever pushed
	count int
	// cov is the running average of innovation outer products
	cov *mat.Dense
}

func newInnWindow(size, dim int) *innWindow {
	return &innWindow{
		size: size,
		dim:  dim,
		buf:  make([]*mat.VecDense, size),
		cov:  mat.NewDense(dim, dim, nil),
	}
}

// push appends innovation dz to the window, evicting the oldest entry once
// the window is full, and updates the running average.
//
// The update is two-phase and order matters: the evicted entry's contribution
// is subtracted under the previous window weight before the average is
// rescaled to the new weight and the newest entry folded in.
func (w *innWindow) push(dz mat.Vector) {
	w.count++
	newWin := min(w.count, w.size)
	prevWin := min(w.count-1, w.size)

	v := mat.VecDenseCopyOf(dz)

	if w.n == w.size {
		old := w.buf[w.head]
		outer := matrix.Outer(old, old)
		outer.Scale(1.0/float64(prevWin), outer)
		w.cov.Sub(w.cov, outer)

		w.buf[w.head] = v
		w.head = (w.head + 1) % w.size
	} else {
		w.buf[(w.head+w.n)%w.size] = v
		w.n++
	}

	// rescale the remaining average to the new denominator and add the
	// newest entry's contribution
	w.cov.Scale(float64(prevWin)/float64(newWin), w.cov)
	outer := matrix.Outer(v, v)
	outer.Scale(1.0/float64(newWin), outer)
	w.cov.Add(w.cov, outer)
}

// len returns the number of innovations currently retained.
func (w *innWindow) len() int {
	return w.n
}

// full reports whether enough history has accumulated to cover the whole window.
func (w *innWindow) full() bool {
	return w.count >= w.size
}

// entries returns the retained innovations ordered oldest first.
func (w *innWindow) entries() []*mat.VecDense {
	out := make([]*mat.VecDense, 0, w.n)
	for i := 0; i < w.n; i++ {
		out = append(out, w.buf[(w.head+i)%w.size])
	}

	return out
}

package noise

import filter "github.com/milosgajdos/go-adaptive"

var (
	_ filter.Noise = (*Gaussian)(nil)
	_ filter.Noise = (*Zero)(nil)
	_ filter.Noise = (*None)(nil)
)

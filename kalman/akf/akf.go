package akf

import (
	"errors"
	"fmt"

	filter "github.com/milosgajdos/go-adaptive"
	"github.com/milosgajdos/go-adaptive/estimate"
	"github.com/milosgajdos/go-adaptive/kalman"
	"github.com/milosgajdos/go-adaptive/matrix"
	mtx "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

var _ kalman.Kalman = (*AKF)(nil)

var (
	// ErrNotInitialized is returned when a filter cycle is run before
	// the initial condition has been set.
	ErrNotInitialized = errors.New("filter not initialized")
	// ErrSingularInnovationCov is returned when the innovation covariance
	// H*P*H'+R is singular or too ill-conditioned to invert reliably.
	ErrSingularInnovationCov = errors.New("singular innovation covariance")
)

// EstimationMode selects how process and measurement noise covariances
// evolve over the life of the filter. It is chosen once at construction.
type EstimationMode int

const (
	// FixedNoise keeps the configured Q and R in force for every cycle.
	FixedNoise EstimationMode = iota
	// InnovationAdaptive re-derives Q and R from windowed innovation
	// statistics once enough history has accumulated.
	InnovationAdaptive
)

// String implements the Stringer interface.
func (m EstimationMode) String() string {
	switch m {
	case FixedNoise:
		return "FixedNoise"
	case InnovationAdaptive:
		return "InnovationAdaptive"
	}
	return "Unknown"
}

// Snapshot is a read-only copy of the filter state after a cycle.
type Snapshot struct {
	// Iteration is the number of cycles run so far
	Iteration int
	// State is the corrected state estimate
	State mat.Vector
	// Cov is the corrected state covariance
	Cov mat.Symmetric
	// Gain is the Kalman gain of the cycle
	Gain mat.Matrix
	// InnovationCov is the windowed innovation covariance
	InnovationCov mat.Symmetric
}

// Observer is an optional hook invoked with a Snapshot after every cycle.
type Observer func(Snapshot)

// Config is AKF configuration
type Config struct {
	// StateDim is the state vector dimension
	StateDim int
	// MeasurementDim is the measurement vector dimension
	MeasurementDim int
	// ControlDim is the control vector dimension; zero when the model has no control input
	ControlDim int
	// WindowSize is the number of past innovations retained for adaptive estimation
	WindowSize int
	// Mode selects fixed or innovation-adaptive noise estimation
	Mode EstimationMode
	// Observer is an optional post-cycle hook
	Observer Observer
}

// AKF is an adaptive multivariate Kalman filter. It fuses a linear dynamics
// model with noisy measurements and, in InnovationAdaptive mode, re-derives
// its noise covariances from a sliding window of innovations.
//
// AKF is not safe for concurrent use: cycle operations mutate the filter
// state non-atomically. Every estimation task must own its own instance.
type AKF struct {
	// nx, nu, ny are state, control and measurement dimensions
	nx, nu, ny int
	// mode is the noise estimation strategy
	mode EstimationMode
	// obs is the post-cycle hook
	obs Observer
	// a, b are state propagation and control matrices
	a, b *mat.Dense
	// h is the measurement matrix
	h *mat.Dense
	// q, r are process and measurement noise covariances
	q, r *mat.Dense
	// x is the state estimate
	x *mat.VecDense
	// p is the state covariance
	p *mat.Dense
	// k is the Kalman gain of the most recent correction
	k *mat.Dense
	// eye is cached identity, set together with the initial condition
	eye *mat.Dense
	// win is the innovation window
	win *innWindow
	// iter counts the filter cycles run so far
	iter int
}

// New creates new AKF from cfg and returns it.
// It returns error if either of the state, measurement or window dimensions
// is not a positive integer or if the control dimension is negative.
func New(cfg *Config) (*AKF, error) {
	if cfg.StateDim <= 0 || cfg.MeasurementDim <= 0 {
		return nil, fmt.Errorf("invalid filter dimensions: [%d x %d]", cfg.StateDim, cfg.MeasurementDim)
	}

	if cfg.ControlDim < 0 {
		return nil, fmt.Errorf("invalid control dimension: %d", cfg.ControlDim)
	}

	if cfg.WindowSize <= 0 {
		return nil, fmt.Errorf("invalid window size: %d", cfg.WindowSize)
	}

	return &AKF{
		nx:   cfg.StateDim,
		nu:   cfg.ControlDim,
		ny:   cfg.MeasurementDim,
		mode: cfg.Mode,
		obs:  cfg.Observer,
		k:    mat.NewDense(cfg.StateDim, cfg.MeasurementDim, nil),
		win:  newInnWindow(cfg.WindowSize, cfg.MeasurementDim),
	}, nil
}

// SetDynamicsModel sets the state propagation matrix A, the control matrix B
// and the process noise covariance Q. B may be nil for models without
// control input. The last value set wins.
// It returns error if any of the supplied matrix dimensions do not match the
// filter dimensions.
func (f *AKF) SetDynamicsModel(A mat.Matrix, B mat.Matrix, Q mat.Symmetric) error {
	if r, c := A.Dims(); r != f.nx || c != f.nx {
		return fmt.Errorf("invalid state matrix dimensions: [%d x %d]", r, c)
	}

	if B != nil {
		if f.nu == 0 {
			return fmt.Errorf("control matrix given to a filter with no control input")
		}
		if r, c := B.Dims(); r != f.nx || c != f.nu {
			return fmt.Errorf("invalid control matrix dimensions: [%d x %d]", r, c)
		}
	}

	if Q.SymmetricDim() != f.nx {
		return fmt.Errorf("invalid process noise dimension: %d", Q.SymmetricDim())
	}

	f.a = mat.DenseCopyOf(A)
	if B != nil {
		f.b = mat.DenseCopyOf(B)
	}
	f.q = mat.DenseCopyOf(Q)

	return nil
}

// SetMeasurementModel sets the measurement matrix H and the measurement
// noise covariance R. The last value set wins.
// It returns error if the supplied matrix dimensions do not match the filter
// dimensions.
func (f *AKF) SetMeasurementModel(H mat.Matrix, R mat.Symmetric) error {
	if r, c := H.Dims(); r != f.ny || c != f.nx {
		return fmt.Errorf("invalid measurement matrix dimensions: [%d x %d]", r, c)
	}

	if R.SymmetricDim() != f.ny {
		return fmt.Errorf("invalid measurement noise dimension: %d", R.SymmetricDim())
	}

	f.h = mat.DenseCopyOf(H)
	f.r = mat.DenseCopyOf(R)

	return nil
}

// SetModels sets both the dynamics and the measurement model in one call.
func (f *AKF) SetModels(A, B mat.Matrix, Q mat.Symmetric, H mat.Matrix, R mat.Symmetric) error {
	if err := f.SetDynamicsModel(A, B, Q); err != nil {
		return err
	}

	return f.SetMeasurementModel(H, R)
}

// UpdateStateMatrix replaces the state propagation matrix A between cycles.
// It supports time-varying dynamics without reconstructing the filter.
func (f *AKF) UpdateStateMatrix(A mat.Matrix) error {
	if r, c := A.Dims(); r != f.nx || c != f.nx {
		return fmt.Errorf("invalid state matrix dimensions: [%d x %d]", r, c)
	}

	f.a = mat.DenseCopyOf(A)

	return nil
}

// UpdateMeasurementNoise replaces the measurement noise covariance R between
// cycles. It supports time-varying sensors without reconstructing the filter.
func (f *AKF) UpdateMeasurementNoise(R mat.Symmetric) error {
	if R.SymmetricDim() != f.ny {
		return fmt.Errorf("invalid measurement noise dimension: %d", R.SymmetricDim())
	}

	f.r = mat.DenseCopyOf(R)

	return nil
}

// SetInitCond sets the initial state estimate and covariance from ic and
// caches the identity matrix. It must be called before the first cycle.
// It returns error if the initial condition dimensions do not match the
// filter dimensions.
func (f *AKF) SetInitCond(ic filter.InitCond) error {
	if ic.State().Len() != f.nx {
		return fmt.Errorf("invalid initial state dimension: %d", ic.State().Len())
	}

	if ic.Cov().SymmetricDim() != f.nx {
		return fmt.Errorf("invalid initial covariance dimension: %d", ic.Cov().SymmetricDim())
	}

	f.x = mat.VecDenseCopyOf(ic.State())
	f.p = mat.DenseCopyOf(ic.Cov())

	eye, err := mtx.NewDenseValIdentity(f.nx, 1.0)
	if err != nil {
		return fmt.Errorf("failed to create identity matrix: %v", err)
	}
	f.eye = eye

	return nil
}

// Filter runs one filter cycle using measurement z: it predicts the next
// state, updates the innovation window, predicts the covariance (which in
// InnovationAdaptive mode re-derives Q and R) and corrects the estimate.
// It returns the corrected estimate together with the innovation of the cycle.
//
// If the correction fails with ErrSingularInnovationCov the cycle's
// prediction remains readable through State and Cov and the filter stays
// usable for subsequent cycles.
func (f *AKF) Filter(z mat.Vector) (filter.Estimate, error) {
	return f.run(nil, z)
}

// FilterWithInput runs one filter cycle using control input u and
// measurement z. It behaves exactly like Filter except the state prediction
// is driven by the control input.
func (f *AKF) FilterWithInput(u, z mat.Vector) (filter.Estimate, error) {
	if u == nil {
		return nil, fmt.Errorf("invalid control input: %v", u)
	}

	return f.run(u, z)
}

func (f *AKF) run(u, z mat.Vector) (filter.Estimate, error) {
	if f.a == nil || f.q == nil {
		return nil, fmt.Errorf("%w: dynamics model not set", ErrNotInitialized)
	}

	if f.h == nil || f.r == nil {
		return nil, fmt.Errorf("%w: measurement model not set", ErrNotInitialized)
	}

	if f.x == nil || f.p == nil {
		return nil, fmt.Errorf("%w: initial condition not set", ErrNotInitialized)
	}

	if z == nil || z.Len() != f.ny {
		return nil, fmt.Errorf("invalid measurement supplied: %v", z)
	}

	if u != nil {
		if f.b == nil {
			return nil, fmt.Errorf("control input given to a filter with no control matrix")
		}
		if u.Len() != f.nu {
			return nil, fmt.Errorf("invalid control input supplied: %v", u)
		}
	}

	f.iter++

	f.predict(u)

	// innovation of the cycle: z - H*x_predicted
	hx := mat.NewVecDense(f.ny, nil)
	hx.MulVec(f.h, f.x)
	inn := mat.NewVecDense(f.ny, nil)
	inn.SubVec(z, hx)
	f.win.push(inn)

	f.predictCovariance()

	if err := f.correct(z); err != nil {
		return nil, err
	}

	est, err := estimate.NewWithInnovation(f.State(), f.Cov(), inn)
	if err != nil {
		return nil, err
	}

	if f.obs != nil {
		f.obs(f.snapshot())
	}

	return est, nil
}

// predict propagates the state estimate: x = A*x or x = A*x + B*u.
func (f *AKF) predict(u mat.Vector) {
	xNext := mat.NewVecDense(f.nx, nil)
	xNext.MulVec(f.a, f.x)

	if u != nil {
		bu := mat.NewVecDense(f.nx, nil)
		bu.MulVec(f.b, u)
		xNext.AddVec(xNext, bu)
	}

	f.x = xNext
}

// predictCovariance propagates the state covariance: P = A*P*A' + Q.
// Noise adaptation runs first so a freshly re-derived Q takes effect in the
// same cycle.
func (f *AKF) predictCovariance() {
	f.adaptNoise()

	ap := new(mat.Dense)
	ap.Mul(f.a, f.p)
	apa := new(mat.Dense)
	apa.Mul(ap, f.a.T())
	apa.Add(apa, f.q)

	f.p = apa
}

// adaptNoise re-derives Q and R from the windowed innovation covariance:
//
//	Q = K*C*K'
//	R = C - H*P*H'
//
// K and P are the values standing just before this cycle's covariance
// prediction, i.e. the previous cycle's gain and corrected covariance.
// It is a no-op in FixedNoise mode or before the window has filled.
func (f *AKF) adaptNoise() {
	if f.mode != InnovationAdaptive || !f.win.full() {
		return
	}

	c := f.win.cov

	kc := new(mat.Dense)
	kc.Mul(f.k, c)
	q := new(mat.Dense)
	q.Mul(kc, f.k.T())
	f.q = q

	hp := new(mat.Dense)
	hp.Mul(f.h, f.p)
	hph := new(mat.Dense)
	hph.Mul(hp, f.h.T())
	r := new(mat.Dense)
	r.Sub(c, hph)
	f.r = r
}

// correct corrects the state estimate and covariance using measurement z.
// It mutates the filter only after the innovation covariance has been
// inverted successfully, so a numerical failure leaves the prediction intact.
func (f *AKF) correct(z mat.Vector) error {
	// P*H'
	pht := new(mat.Dense)
	pht.Mul(f.p, f.h.T())

	// S = H*P*H' + R
	s := new(mat.Dense)
	s.Mul(f.h, pht)
	s.Add(s, f.r)

	sInv := new(mat.Dense)
	if err := sInv.Inverse(s); err != nil {
		return fmt.Errorf("%w: %v", ErrSingularInnovationCov, err)
	}

	// K = P*H'*inv(S)
	gain := new(mat.Dense)
	gain.Mul(pht, sInv)

	// x = x + K*(z - H*x)
	hx := mat.NewVecDense(f.ny, nil)
	hx.MulVec(f.h, f.x)
	inn := mat.NewVecDense(f.ny, nil)
	inn.SubVec(z, hx)
	corr := mat.NewVecDense(f.nx, nil)
	corr.MulVec(gain, inn)
	f.x.AddVec(f.x, corr)

	// P = (I - K*H)*P
	kh := new(mat.Dense)
	kh.Mul(gain, f.h)
	ikh := new(mat.Dense)
	ikh.Sub(f.eye, kh)
	p := new(mat.Dense)
	p.Mul(ikh, f.p)

	f.p = p
	f.k = gain

	return nil
}

// State returns a copy of the current state estimate.
// It returns nil if the initial condition has not been set.
func (f *AKF) State() mat.Vector {
	if f.x == nil {
		return nil
	}

	return mat.VecDenseCopyOf(f.x)
}

// Cov returns a copy of the current state covariance.
// It returns nil if the initial condition has not been set.
func (f *AKF) Cov() mat.Symmetric {
	if f.p == nil {
		return nil
	}

	return matrix.ToSym(f.p)
}

// Gain returns a copy of the Kalman gain of the most recent correction.
func (f *AKF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(f.k)

	return gain
}

// InnovationCov returns a copy of the windowed innovation covariance.
func (f *AKF) InnovationCov() mat.Symmetric {
	return matrix.ToSym(f.win.cov)
}

// ProcessNoiseCov returns a copy of the process noise covariance in force.
// It returns nil if the dynamics model has not been set.
func (f *AKF) ProcessNoiseCov() mat.Symmetric {
	if f.q == nil {
		return nil
	}

	return matrix.ToSym(f.q)
}

// MeasurementNoiseCov returns a copy of the measurement noise covariance in
// force. It returns nil if the measurement model has not been set.
func (f *AKF) MeasurementNoiseCov() mat.Symmetric {
	if f.r == nil {
		return nil
	}

	return matrix.ToSym(f.r)
}

// Iteration returns the number of filter cycles run so far.
func (f *AKF) Iteration() int {
	return f.iter
}

// Mode returns the noise estimation mode of the filter.
func (f *AKF) Mode() EstimationMode {
	return f.mode
}

func (f *AKF) snapshot() Snapshot {
	return Snapshot{
		Iteration:     f.iter,
		State:         f.State(),
		Cov:           f.Cov(),
		Gain:          f.Gain(),
		InnovationCov: f.InnovationCov(),
	}
}

package estimate

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinerr"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// DynamicsModel supplies the state-transition function and its Jacobian for
// a tracking problem (radarTrackFilter.h's dynamicsModel/dynamicsJacobian).
type DynamicsModel interface {
	DynamicsJacobian(dt float64, x *linalg.Matrix) (*linalg.Matrix, error)
	DynamicsModel(dt float64, x, u *linalg.Matrix) (*linalg.Matrix, error)
}

// MeasurementModel supplies the observation function and its Jacobian.
type MeasurementModel interface {
	MeasurementJacobian(x *linalg.Matrix) (*linalg.Matrix, error)
	MeasurementModel(x *linalg.Matrix) (*linalg.Matrix, error)
}

// Initializer populates the initial state estimate and covariances,
// collapsing AppliedEstimationFilter::initialize (appliedEstimationFilter.cpp).
type Initializer interface {
	Initialize() (x0, P0, Q0, R0 *linalg.Matrix, err error)
}

// AppliedFilter is the problem-specific component a Kalman engine drives
// (spec.md GLOSSARY "Applied filter"). It stands in for the original's
// AppliedEstimationFilter abstract base, collapsed per spec.md §9's "Deep
// inheritance" note into one small interface.
type AppliedFilter interface {
	DynamicsModel
	MeasurementModel
	Initializer
}

// ResidualFilter is implemented by an AppliedFilter whose measurement
// residual is not a plain subtraction (e.g. azimuth wraparound). When a
// filter's AppliedFilter does not implement it, engines fall back to
// z - yHat.
type ResidualFilter interface {
	MeasurementResidual(yHat, z *linalg.Matrix) (*linalg.Matrix, error)
}

func residualOf(f AppliedFilter, yHat, z *linalg.Matrix) (*linalg.Matrix, error) {
	if rf, ok := f.(ResidualFilter); ok {
		return rf.MeasurementResidual(yHat, z)
	}
	return z.Sub(yHat)
}

// LinearMeasurementModel is implemented by an AppliedFilter whose
// measurement map is a fixed matrix H (spec.md §4.E "LKF").
type LinearMeasurementModel interface {
	MeasurementMatrix() *linalg.Matrix
}

// MatrixName enumerates the named matrices addressable through
// GetMatrix/SetMatrix (spec.md §4.E "Common contract").
type MatrixName string

const (
	MatrixP MatrixName = "P"
	MatrixQ MatrixName = "Q"
	MatrixR MatrixName = "R"
	MatrixH MatrixName = "H"
)

// base holds the state shared by every Kalman-family engine: sampling
// interval, state estimate, the three named covariances, the applied
// filter, and the configuration registry driving variant-specific
// parameters (spec.md §3.5).
type base struct {
	dt          float64
	xHat        *linalg.Matrix
	p           *linalg.Matrix
	q           *linalg.Matrix
	r           *linalg.Matrix
	applied     AppliedFilter
	cfg         *config.Registry
	initialized bool
}

func newBase(applied AppliedFilter, cfg *config.Registry) base {
	if cfg == nil {
		cfg = config.Empty()
	}
	return base{applied: applied, cfg: cfg}
}

// initialize runs the common.initialize(dt) contract: validate the applied
// filter is present, invoke its Initialize, and store dt/x̂/P/Q/R.
func (b *base) initialize(dt float64) error {
	if b.applied == nil {
		return kinerr.Field("initialize", kinerr.ErrUninitialized)
	}
	x0, p0, q0, r0, err := b.applied.Initialize()
	if err != nil {
		return kinerr.Field("initialize", err)
	}
	if x0 == nil {
		return kinerr.Field("initialize", kinerr.ErrUninitialized)
	}
	rows, cols := x0.Dims()
	if rows == 0 || cols == 0 {
		return kinerr.Field("initialize", kinerr.ErrUninitialized)
	}
	b.dt = dt
	b.xHat = x0
	b.p = p0
	b.q = q0
	b.r = r0
	b.initialized = true
	return nil
}

// State returns the current state estimate x̂.
func (b *base) State() *linalg.Matrix { return b.xHat }

// Covariance returns the current error covariance P.
func (b *base) Covariance() *linalg.Matrix { return b.p }

// Initialized reports whether initialize has succeeded.
func (b *base) Initialized() bool { return b.initialized }

// GetMatrix returns a named workspace matrix, implementing the common
// config-I/O registry named in spec.md §4.E.
func (b *base) GetMatrix(name MatrixName) (*linalg.Matrix, error) {
	switch name {
	case MatrixP:
		return b.p, nil
	case MatrixQ:
		return b.q, nil
	case MatrixR:
		return b.r, nil
	default:
		return nil, kinerr.Field("GetMatrix", fmt.Errorf("%w: %s", kinerr.ErrUnsupported, name))
	}
}

// SetMatrix assigns a named workspace matrix.
func (b *base) SetMatrix(name MatrixName, value *linalg.Matrix) error {
	switch name {
	case MatrixP:
		b.p = value
	case MatrixQ:
		b.q = value
	case MatrixR:
		b.r = value
	default:
		return kinerr.Field("SetMatrix", fmt.Errorf("%w: %s", kinerr.ErrUnsupported, name))
	}
	return nil
}

func requireNonEmpty(z *linalg.Matrix) error {
	if z == nil {
		return kinerr.Field("measurementUpdate", kinerr.ErrEmptyMeasurement)
	}
	rows, cols := z.Dims()
	if rows == 0 || cols == 0 {
		return kinerr.Field("measurementUpdate", kinerr.ErrEmptyMeasurement)
	}
	return nil
}

package estimate

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinerr"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// LKF is a linear Kalman filter (spec.md §4.E "LKF"): identical to EKF
// except the measurement map is the fixed matrix H supplied by the
// applied filter's LinearMeasurementModel, grounded on linearKalman.h/.cpp.
type LKF struct {
	base
	h *linalg.Matrix
}

// NewLKF constructs an LKF. applied must additionally implement
// LinearMeasurementModel; its MeasurementJacobian is expected to just
// return H, matching linearKalman.cpp's identity Jacobian.
func NewLKF(applied AppliedFilter, cfg *config.Registry) (*LKF, error) {
	lin, ok := applied.(LinearMeasurementModel)
	if !ok {
		return nil, kinerr.Field("NewLKF", fmt.Errorf("%w: applied filter has no linear measurement matrix", kinerr.ErrUnsupported))
	}
	return &LKF{base: newBase(applied, cfg), h: lin.MeasurementMatrix()}, nil
}

// Initialize validates the applied filter, invokes its Initialize, and
// sets the sampling interval.
func (f *LKF) Initialize(dt float64) error { return f.initialize(dt) }

// TimeUpdate projects x̂ and P one step forward (identical to EKF).
func (f *LKF) TimeUpdate(u *linalg.Matrix) error {
	if !f.initialized {
		return kinerr.Field("timeUpdate", kinerr.ErrUninitialized)
	}
	a, err := f.applied.DynamicsJacobian(f.dt, f.xHat)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	xNext, err := f.applied.DynamicsModel(f.dt, f.xHat, u)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	ap, err := a.Mul(f.p)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	apat, err := ap.MulTransposeRight(a)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	pNext, err := apat.Add(f.q)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	_ = pNext.SymmetrizeInPlace()
	f.xHat = xNext
	f.p = pNext
	return nil
}

// MeasurementUpdate incorporates measurement vector z using the fixed
// linear measurement map: measurementModel(x̂) = H x̂.
func (f *LKF) MeasurementUpdate(z *linalg.Matrix) error {
	if !f.initialized {
		return kinerr.Field("measurementUpdate", kinerr.ErrUninitialized)
	}
	if err := requireNonEmpty(z); err != nil {
		return err
	}

	pBefore := f.p
	s, k, err := innovationAndGain(f.h, pBefore, f.r)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	if _, err := s.Inverse(); err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	yHat, err := f.h.Mul(f.xHat)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	nu, err := residualOf(f.applied, yHat, z)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	kNu, err := k.Mul(nu)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	xPost, err := f.xHat.Add(kNu)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	kh, err := k.Mul(f.h)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	identity := linalg.Identity(rowsOf(kh))
	imKH, err := identity.Sub(kh)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	pAfter, err := imKH.Mul(pBefore)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	_ = pAfter.SymmetrizeInPlace()

	f.xHat = xPost
	f.p = pAfter
	return nil
}

// MeasurementMatrix returns the configured linear measurement matrix H.
func (f *LKF) MeasurementMatrix() *linalg.Matrix { return f.h }

// GetMatrix extends base.GetMatrix with MatrixH, matching
// linearKalman.cpp's setup() registering H ("measurement") in the same
// config registry as P/Q/R.
func (f *LKF) GetMatrix(name MatrixName) (*linalg.Matrix, error) {
	if name == MatrixH {
		return f.h, nil
	}
	return f.base.GetMatrix(name)
}

// SetMatrix extends base.SetMatrix with MatrixH.
func (f *LKF) SetMatrix(name MatrixName, value *linalg.Matrix) error {
	if name == MatrixH {
		f.h = value
		return nil
	}
	return f.base.SetMatrix(name, value)
}

package estimate

import (
	"math"

	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinerr"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// EKF is an extended Kalman filter (spec.md §4.E "EKF algorithm"),
// grounded on extendedKalman.h/.cpp. Adaptive process noise and reverse
// prediction are opt-in via the configuration registry's gamma/lambda
// (AdaptiveProcessNoiseWindowSize / AdaptiveNormResidualRatioThreshold).
type EKF struct {
	base

	gamma  float64
	lambda float64

	// lastA is this step's dynamics Jacobian (set by TimeUpdate, read by
	// the following MeasurementUpdate); lastZ is the measurement consumed
	// by the *previous* MeasurementUpdate call. Reverse prediction (step
	// 5) retrocasts the current posterior through lastA and compares
	// against the residual implied by lastZ, per extendedKalman.cpp's
	// computeReversePrediction.
	lastA *linalg.Matrix
	lastZ *linalg.Matrix
}

// NewEKF constructs an EKF driven by the given applied filter and
// configuration registry.
func NewEKF(applied AppliedFilter, cfg *config.Registry) *EKF {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &EKF{
		base:   newBase(applied, cfg),
		gamma:  cfg.GetAdaptiveProcessNoiseWindowSize(),
		lambda: cfg.GetAdaptiveNormResidualRatioThreshold(),
	}
}

// Initialize validates the applied filter, invokes its Initialize, and
// sets the sampling interval.
func (f *EKF) Initialize(dt float64) error { return f.initialize(dt) }

// TimeUpdate projects x̂ and P one step forward using the dynamics
// Jacobian and model.
func (f *EKF) TimeUpdate(u *linalg.Matrix) error {
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
	f.lastA = a
	return nil
}

// MeasurementUpdate incorporates measurement vector z, producing the
// updated x̂, P (spec.md §4.E "measurementUpdate" steps 1-7).
func (f *EKF) MeasurementUpdate(z *linalg.Matrix) error {
	if !f.initialized {
		return kinerr.Field("measurementUpdate", kinerr.ErrUninitialized)
	}
	if err := requireNonEmpty(z); err != nil {
		return err
	}

	xPrior := f.xHat
	pBefore := f.p

	h, err := f.applied.MeasurementJacobian(xPrior)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	s, k, err := innovationAndGain(h, pBefore, f.r)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	sInv, err := s.Inverse()
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	yHat, err := f.applied.MeasurementModel(xPrior)
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
	xPost, err := xPrior.Add(kNu)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	if f.lambda > 0 && f.lastA != nil && f.lastZ != nil {
		xPost, k, err = f.reversePrediction(h, sInv, nu, xPost, k, pBefore)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
	}

	kh, err := k.Mul(h)
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

	if f.gamma > 0 {
		f.q, err = adaptProcessCovariance(f.q, xPrior, xPost, pBefore, pAfter, f.gamma)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
	}

	f.xHat = xPost
	f.p = pAfter
	f.lastZ = z
	return nil
}

// reversePrediction implements spec.md §4.E step 5: retrocast the
// posterior through this step's dynamics Jacobian (lastA), compare the
// resulting residual norm to the current one, and inflate S (and
// recompute K, x̂) if they diverge by more than lambda.
func (f *EKF) reversePrediction(h, sInv, nu, xPost, k, pBefore *linalg.Matrix) (*linalg.Matrix, *linalg.Matrix, error) {
	aInv, err := f.lastA.Inverse()
	if err != nil {
		// A singular dynamics Jacobian makes reverse prediction
		// inapplicable; skip the correction rather than fail the step.
		return xPost, k, nil
	}
	xTilde, err := aInv.Mul(xPost)
	if err != nil {
		return nil, nil, err
	}
	yHatPrev, err := f.applied.MeasurementModel(xTilde)
	if err != nil {
		return nil, nil, err
	}
	w, err := residualOf(f.applied, yHatPrev, f.lastZ)
	if err != nil {
		return nil, nil, err
	}

	epsK, err := quadraticForm(w, sInv)
	if err != nil {
		return nil, nil, err
	}
	epsK1, err := quadraticForm(nu, sInv)
	if err != nil {
		return nil, nil, err
	}
	if epsK1 == 0 {
		return xPost, k, nil
	}
	ratio := math.Abs(epsK-epsK1) / epsK1
	if ratio <= f.lambda {
		return xPost, k, nil
	}

	inflatedQ := f.q.Scale(ratio)
	pInflated, err := pBefore.Add(inflatedQ)
	if err != nil {
		return nil, nil, err
	}
	_, kInflated, err := innovationAndGain(h, pInflated, f.r)
	if err != nil {
		return nil, nil, err
	}
	kNu, err := kInflated.Mul(nu)
	if err != nil {
		return nil, nil, err
	}
	xCorrected, err := f.xHat.Add(kNu)
	if err != nil {
		return nil, nil, err
	}
	return xCorrected, kInflated, nil
}

// innovationAndGain computes S = H P Hᵀ + R and K = P Hᵀ S⁻¹, shared by
// the regular and reverse-prediction-inflated measurement updates.
func innovationAndGain(h, p, r *linalg.Matrix) (s, k *linalg.Matrix, err error) {
	hp, err := h.Mul(p)
	if err != nil {
		return nil, nil, err
	}
	hpht, err := hp.MulTransposeRight(h)
	if err != nil {
		return nil, nil, err
	}
	s, err = hpht.Add(r)
	if err != nil {
		return nil, nil, err
	}
	sInv, err := s.Inverse()
	if err != nil {
		return nil, nil, err
	}
	pht, err := p.MulTransposeRight(h)
	if err != nil {
		return nil, nil, err
	}
	k, err = pht.Mul(sInv)
	if err != nil {
		return nil, nil, err
	}
	return s, k, nil
}

// quadraticForm returns vᵀ M v for a column vector v.
func quadraticForm(v, m *linalg.Matrix) (float64, error) {
	vt := v.Transpose()
	vtm, err := vt.Mul(m)
	if err != nil {
		return 0, err
	}
	vtmv, err := vtm.Mul(v)
	if err != nil {
		return 0, err
	}
	return vtmv.At(0, 0), nil
}

// adaptProcessCovariance implements the moving-window estimator from
// spec.md §4.E step 7: Q ← Q + (qqᵀ + P_after - P_before - Q) / gamma.
func adaptProcessCovariance(q, xPrior, xPost, pBefore, pAfter *linalg.Matrix, gamma float64) (*linalg.Matrix, error) {
	delta, err := xPost.Sub(xPrior)
	if err != nil {
		return nil, err
	}
	qqt, err := linalg.OuterProduct(delta, delta)
	if err != nil {
		return nil, err
	}
	term, err := qqt.Add(pAfter)
	if err != nil {
		return nil, err
	}
	term, err = term.Sub(pBefore)
	if err != nil {
		return nil, err
	}
	term, err = term.Sub(q)
	if err != nil {
		return nil, err
	}
	return q.Add(term.Scale(1 / gamma))
}

func rowsOf(m *linalg.Matrix) int {
	r, _ := m.Dims()
	return r
}

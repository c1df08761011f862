package estimate

import (
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinerr"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// UKF is an unscented Kalman filter using scaled sigma points (spec.md
// §4.E "UKF algorithm"), grounded on unscentedKalman.h/.cpp.
type UKF struct {
	base
	alpha, beta, kappa float64

	// sigmaX, sigmaY, and yHat are populated by TimeUpdate and consumed by
	// the following MeasurementUpdate, mirroring unscentedKalman.cpp's
	// simultaneous state/observation sigma-point propagation.
	sigmaX []*linalg.Matrix
	sigmaY []*linalg.Matrix
	yHat   *linalg.Matrix
	wm, wc []float64
}

// NewUKF constructs a UKF with sigma-point parameters taken from cfg
// (alpha, beta, kappa — spec.md §6 Configuration surface).
func NewUKF(applied AppliedFilter, cfg *config.Registry) *UKF {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &UKF{
		base:  newBase(applied, cfg),
		alpha: cfg.GetAlpha(),
		beta:  cfg.GetBeta(),
		kappa: cfg.GetKappa(),
	}
}

// Initialize validates the applied filter, invokes its Initialize, and
// sets the sampling interval.
func (f *UKF) Initialize(dt float64) error { return f.initialize(dt) }

func (f *UKF) stateDim() int {
	r, _ := f.xHat.Dims()
	return r
}

// sigmaWeights returns lambda and the mean/covariance weight vectors for
// state dimension L, per spec.md §4.E: W^m_0 = λ/(L+λ),
// W^c_0 = W^m_0 + 1 - α² + β, otherwise 1/(2(L+λ)).
func sigmaWeights(l int, alpha, beta, kappa float64) (lambda float64, wm, wc []float64) {
	lambda = alpha*alpha*(float64(l)+kappa) - float64(l)
	n := 2*l + 1
	wm = make([]float64, n)
	wc = make([]float64, n)
	wm[0] = lambda / (float64(l) + lambda)
	wc[0] = wm[0] + 1 - alpha*alpha + beta
	rest := 1 / (2 * (float64(l) + lambda))
	for i := 1; i < n; i++ {
		wm[i] = rest
		wc[i] = rest
	}
	return lambda, wm, wc
}

func columnVector(m *linalg.Matrix, col int) *linalg.Matrix {
	rows, _ := m.Dims()
	v := linalg.New(rows, 1)
	for i := 0; i < rows; i++ {
		v.Set(i, 0, m.At(i, col))
	}
	return v
}

// sigmaPoints builds χ_0 = x̂, χ_i = x̂ ± (√((L+λ)P))_i, with √ via
// Cholesky (spec.md §4.E).
func sigmaPoints(x, p *linalg.Matrix, l int, lambda float64) ([]*linalg.Matrix, error) {
	scaled := p.Scale(float64(l) + lambda)
	chol, err := scaled.Cholesky()
	if err != nil {
		return nil, err
	}
	points := make([]*linalg.Matrix, 2*l+1)
	points[0] = x
	for i := 0; i < l; i++ {
		delta := columnVector(chol, i)
		plus, err := x.Add(delta)
		if err != nil {
			return nil, err
		}
		minus, err := x.Sub(delta)
		if err != nil {
			return nil, err
		}
		points[1+i] = plus
		points[1+l+i] = minus
	}
	return points, nil
}

func weightedMean(points []*linalg.Matrix, w []float64) (*linalg.Matrix, error) {
	mean := points[0].Scale(w[0])
	for i := 1; i < len(points); i++ {
		term := points[i].Scale(w[i])
		var err error
		mean, err = mean.Add(term)
		if err != nil {
			return nil, err
		}
	}
	return mean, nil
}

// TimeUpdate propagates the sigma points through the dynamics model,
// recovers x̂, P by weighted moments, adds Q, and simultaneously
// propagates through the measurement model to prepare ŷ and the
// observation sigma points for the following MeasurementUpdate.
func (f *UKF) TimeUpdate(u *linalg.Matrix) error {
	if !f.initialized {
		return kinerr.Field("timeUpdate", kinerr.ErrUninitialized)
	}
	l := f.stateDim()
	lambda, wm, wc := sigmaWeights(l, f.alpha, f.beta, f.kappa)
	f.wm, f.wc = wm, wc

	chi, err := sigmaPoints(f.xHat, f.p, l, lambda)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}

	propagated := make([]*linalg.Matrix, len(chi))
	for i, point := range chi {
		propagated[i], err = f.applied.DynamicsModel(f.dt, point, u)
		if err != nil {
			return kinerr.Field("timeUpdate", err)
		}
	}
	xNext, err := weightedMean(propagated, wm)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}

	pNext := linalg.New(l, l)
	for i, point := range propagated {
		diff, err := point.Sub(xNext)
		if err != nil {
			return kinerr.Field("timeUpdate", err)
		}
		outer, err := linalg.OuterProduct(diff, diff)
		if err != nil {
			return kinerr.Field("timeUpdate", err)
		}
		pNext, err = pNext.Add(outer.Scale(wc[i]))
		if err != nil {
			return kinerr.Field("timeUpdate", err)
		}
	}
	pNext, err = pNext.Add(f.q)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}
	_ = pNext.SymmetrizeInPlace()

	sigmaY := make([]*linalg.Matrix, len(propagated))
	for i, point := range propagated {
		sigmaY[i], err = f.applied.MeasurementModel(point)
		if err != nil {
			return kinerr.Field("timeUpdate", err)
		}
	}
	yHat, err := weightedMean(sigmaY, wm)
	if err != nil {
		return kinerr.Field("timeUpdate", err)
	}

	f.xHat = xNext
	f.p = pNext
	f.sigmaX = propagated
	f.sigmaY = sigmaY
	f.yHat = yHat
	return nil
}

// MeasurementUpdate computes the cross/observation covariances from the
// sigma points stashed by TimeUpdate and incorporates measurement z.
func (f *UKF) MeasurementUpdate(z *linalg.Matrix) error {
	if !f.initialized {
		return kinerr.Field("measurementUpdate", kinerr.ErrUninitialized)
	}
	if err := requireNonEmpty(z); err != nil {
		return err
	}
	if f.sigmaX == nil {
		return kinerr.Field("measurementUpdate", kinerr.ErrUninitialized)
	}

	l := f.stateDim()
	mDim, _ := f.yHat.Dims()
	pyy := linalg.New(mDim, mDim)
	pxy := linalg.New(l, mDim)
	for i := range f.sigmaX {
		dx, err := f.sigmaX[i].Sub(f.xHat)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
		dy, err := f.sigmaY[i].Sub(f.yHat)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
		outerYY, err := linalg.OuterProduct(dy, dy)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
		pyy, err = pyy.Add(outerYY.Scale(f.wc[i]))
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
		outerXY, err := linalg.OuterProduct(dx, dy)
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
		pxy, err = pxy.Add(outerXY.Scale(f.wc[i]))
		if err != nil {
			return kinerr.Field("measurementUpdate", err)
		}
	}
	pyy, err := pyy.Add(f.r)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	pyyInv, err := pyy.Inverse()
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	k, err := pxy.Mul(pyyInv)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}

	nu, err := residualOf(f.applied, f.yHat, z)
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

	kPyy, err := k.Mul(pyy)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	kPyyKt, err := kPyy.MulTransposeRight(k)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	pPost, err := f.p.Sub(kPyyKt)
	if err != nil {
		return kinerr.Field("measurementUpdate", err)
	}
	_ = pPost.SymmetrizeInPlace()

	f.xHat = xPost
	f.p = pPost
	return nil
}

// WeightSum returns Σ W^m_i, exposed for the "Unscented weight identity"
// testable property (spec.md §8).
func (f *UKF) WeightSum() float64 {
	var sum float64
	for _, w := range f.wm {
		sum += w
	}
	return sum
}

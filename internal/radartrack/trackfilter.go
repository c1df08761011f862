package radartrack

import (
	"fmt"
	"math"

	"github.com/banshee-data/kinestate/internal/aggregate"
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinerr"
	"github.com/banshee-data/kinestate/internal/linalg"
	"github.com/google/uuid"
)

// State vector layout shared by TrackFilter and its variants: position,
// velocity, and acceleration triples, in whatever coordinate basis the
// concrete variant uses (spec.md §4.F).
const (
	idxP0 = iota
	idxP1
	idxP2
	idxV0
	idxV1
	idxV2
	idxA0
	idxA1
	idxA2
	stateDim = 9
)

const measurementDim = 4

// sigmas is the measurement standard deviation map produced by an
// aggregate.Strategy, carried as its own type rather than a bare
// map[string]float64 so every covariance builder reads the same four
// named keys consistently.
type sigmas struct {
	Az, Ze, R, RR float64
}

func sigmasFrom(m map[string]float64) sigmas {
	return sigmas{Az: m["azimuth"], Ze: m["zenith"], R: m["range"], RR: m["rangeRate"]}
}

// TrackFilter is the base applied radar track filter (spec.md §4.F): a
// 9-element constant-acceleration Cartesian state (x,y,z,ẋ,ẏ,ż,ẍ,ÿ,z̈)
// observed through the nonlinear (azimuth, zenith, range, range-rate)
// measurement model, grounded on radarTrackFilter.h/.cpp.
type TrackFilter struct {
	// TrackID identifies this filter's track for logging/correlation,
	// matching the teacher's "trk_<uuid>" convention
	// (internal/lidar/l5tracks/tracking.go).
	TrackID string

	cfg      *config.Registry
	strategy aggregate.Strategy
	buffer   []Measurement
	dt       float64

	// q and r are stashed by Initialize. q feeds DynamicsModel's optional
	// input term (F·x + Q·u), mirroring the source's access to the owning
	// filter's "processCovariance" via the estimation filter
	// back-reference; this rewrite has no such back-reference, so the
	// applied filter keeps its own copy instead. MeasurementModel takes no
	// input vector, so r is stored but no R·u term is ever applied.
	q, r *linalg.Matrix
}

// NewTrackFilter constructs a base track filter sampled at dt, seeded from
// buffer and reduced to an initial state by strategy.
func NewTrackFilter(cfg *config.Registry, strategy aggregate.Strategy, buffer []Measurement, dt float64) *TrackFilter {
	if cfg == nil {
		cfg = config.Empty()
	}
	return &TrackFilter{
		TrackID:  fmt.Sprintf("trk_%s", uuid.NewString()),
		cfg:      cfg,
		strategy: strategy,
		buffer:   buffer,
		dt:       dt,
	}
}

func vec9(values [stateDim]float64) *linalg.Matrix {
	m := linalg.New(stateDim, 1)
	for i, v := range values {
		m.Set(i, 0, v)
	}
	return m
}

// blockTriangularJacobian is the constant-acceleration dynamics Jacobian
// shared by every variant: each position row is [I, dt·I, ½dt²·I],
// velocity row [0, I, dt·I], acceleration row [0, 0, I] (spec.md §4.F).
// The formula is a pure polynomial extrapolation, so it applies unchanged
// whether the 9 components are Cartesian or spherical quantities.
func blockTriangularJacobian(dt float64) *linalg.Matrix {
	f := linalg.Identity(stateDim)
	half := 0.5 * dt * dt
	for axis := 0; axis < 3; axis++ {
		p, v, a := axis, axis+3, axis+6
		f.Set(p, v, dt)
		f.Set(p, a, half)
		f.Set(v, a, dt)
	}
	return f
}

// DynamicsJacobian implements estimate.DynamicsModel.
func (f *TrackFilter) DynamicsJacobian(dt float64, x *linalg.Matrix) (*linalg.Matrix, error) {
	return blockTriangularJacobian(dt), nil
}

// DynamicsModel implements estimate.DynamicsModel: x̂ ← F·x, plus Q·u when
// an input is supplied (spec.md §4.F).
func (f *TrackFilter) DynamicsModel(dt float64, x, u *linalg.Matrix) (*linalg.Matrix, error) {
	a := blockTriangularJacobian(dt)
	xh, err := a.Mul(x)
	if err != nil {
		return nil, err
	}
	if u != nil && f.q != nil {
		qu, err := f.q.Mul(u)
		if err != nil {
			return nil, err
		}
		return xh.Add(qu)
	}
	return xh, nil
}

// MeasurementJacobian implements estimate.MeasurementModel: exact partial
// derivatives of (azimuth, zenith, range, range-rate) with respect to the
// Cartesian state, guarding the same division-by-zero cases as the source
// (spec.md §4.F), grounded on radarTrackFilter.cpp's measurementJacobian.
func (f *TrackFilter) MeasurementJacobian(x *linalg.Matrix) (*linalg.Matrix, error) {
	px, py, pz := x.At(idxP0, 0), x.At(idxP1, 0), x.At(idxP2, 0)
	vx, vy, vz := x.At(idxV0, 0), x.At(idxV1, 0), x.At(idxV2, 0)

	rxySq := px*px + py*py
	rSq := rxySq + pz*pz
	r := math.Sqrt(rSq)
	var rd float64
	if r > 0 {
		rd = (px*vx + py*vy + pz*vz) / r
	}

	h := linalg.New(measurementDim, stateDim)
	if rxySq > 0 {
		h.Set(0, idxP0, -py/rxySq)
		h.Set(0, idxP1, px/rxySq)
	}

	d := rSq * math.Sqrt(rSq-pz*pz)
	if d > 0 {
		h.Set(1, idxP0, px*pz/d)
		h.Set(1, idxP1, py*pz/d)
		h.Set(1, idxP2, -d/rSq/rSq)
	}

	if r > 0 {
		h.Set(2, idxP0, px/r)
		h.Set(2, idxP1, py/r)
		h.Set(2, idxP2, pz/r)

		h.Set(3, idxP0, (r*vx-rd*px)/rSq)
		h.Set(3, idxP1, (r*vy-rd*py)/rSq)
		h.Set(3, idxP2, (r*vz-rd*pz)/rSq)
		h.Set(3, idxV0, px/r)
		h.Set(3, idxV1, py/r)
		h.Set(3, idxV2, pz/r)
	}
	return h, nil
}

// MeasurementModel implements estimate.MeasurementModel: (atan2(y,x),
// acos(z/r), r, ṙ). It takes no input vector and adds no R·u term.
func (f *TrackFilter) MeasurementModel(x *linalg.Matrix) (*linalg.Matrix, error) {
	px, py, pz := x.At(idxP0, 0), x.At(idxP1, 0), x.At(idxP2, 0)
	vx, vy, vz := x.At(idxV0, 0), x.At(idxV1, 0), x.At(idxV2, 0)
	r := math.Sqrt(px*px + py*py + pz*pz)

	h := linalg.New(measurementDim, 1)
	h.Set(0, 0, math.Atan2(py, px))
	h.Set(1, 0, math.Acos(pz/r))
	h.Set(2, 0, r)
	if r > 0 {
		h.Set(3, 0, (px*vx+py*vy+pz*vz)/r)
	}
	return h, nil
}

// computeProcessCovariance builds the Singer-model process covariance
// from per-axis maneuver variances (spec.md §4.F "computeProcessCovariance"),
// grounded on radarTrackFilter.cpp.
func computeProcessCovariance(dt, wx, wy, wz float64) *linalg.Matrix {
	dt2 := dt * dt
	dt3 := dt * dt2
	dt4 := dt * dt3
	dt5 := dt * dt4

	q := linalg.New(stateDim, stateDim)
	axisVariance := [3]float64{wx, wy, wz}
	for axis := 0; axis < 3; axis++ {
		w := axisVariance[axis]
		p, v, a := axis, axis+3, axis+6
		q.Set(p, p, w*dt5/20)
		q.Set(p, v, w*dt4/8)
		q.Set(v, p, w*dt4/8)
		q.Set(p, a, w*dt3/6)
		q.Set(a, p, w*dt3/6)
		q.Set(v, v, w*dt3/3)
		q.Set(v, a, w*dt2/2)
		q.Set(a, v, w*dt2/2)
		q.Set(a, a, w*dt)
	}
	return q
}

// computeMeasurementCovariance builds the 4x4 diagonal-plus-correlation
// measurement covariance (spec.md §4.F "computeMeasurementCovariance"),
// grounded on radarTrackFilter.cpp.
func computeMeasurementCovariance(s sigmas, rho float64) *linalg.Matrix {
	r := linalg.New(measurementDim, measurementDim)
	r.Set(0, 0, s.Az*s.Az)
	r.Set(1, 1, s.Ze*s.Ze)
	r.Set(2, 2, s.R*s.R)
	r.Set(3, 3, s.RR*s.RR)
	r.Set(2, 3, rho*s.R*s.RR)
	r.Set(3, 2, rho*s.R*s.RR)
	return r
}

// computeErrorCovariance builds the initial 9x9 error covariance by
// treating the measurement sigmas as a pseudo spherical "state"
// (azimuth=σ_az, zenith=σ_ze, range=σ_r) and its naive dt-scaled rate
// sigmas, converting that pseudo-state to Cartesian via the same
// product-rule expansion used elsewhere for spherical-to-Cartesian
// conversion, and reporting the diagonal of its squared components
// (spec.md §4.F), grounded on radarTrackFilter.cpp's computeErrorCovariance.
//
// This is also used, unmodified, as the re-derivation of
// ConvertedMeasurementFilter's initial error covariance — the source's
// ConvertedRadarMeasurementTrackFilter::computeErrorCovariance is the
// trivial placeholder diag(xh_i^2) flagged in spec.md §9; the base class
// it inherits from already carries this more principled derivation but the
// subclass never calls it. Reusing it here resolves the Open Question by
// wiring existing, better-grounded behavior rather than inventing new math.
func computeErrorCovariance(s sigmas, dt float64) *linalg.Matrix {
	sigAzd := s.Az / dt
	sigAzdd := sigAzd / dt
	sigZed := s.Ze / dt
	sigZedd := sigZed / dt
	sigRdd := s.RR / dt

	cosAz, sinAz := math.Cos(s.Az), math.Sin(s.Az)
	cosZe, sinZe := math.Cos(s.Ze), math.Sin(s.Ze)

	rSinZe := s.R * sinZe
	x := rSinZe * cosAz
	y := rSinZe * sinAz
	z := s.R * cosZe

	rdSinZe := s.RR * sinZe
	rZedCosZe := z * sigZed
	rAzdSinZe := rSinZe * sigAzd
	xd := (rdSinZe+rZedCosZe)*cosAz - rAzdSinZe*sinAz
	yd := (rdSinZe+rZedCosZe)*sinAz + rAzdSinZe*cosAz
	zd := s.RR*cosZe - s.R*sigZed*sinZe

	rAzd := s.R * sigAzd
	rAzdSq := rAzd * sigAzd
	rZedSq := s.R * sigZed * sigZed
	term1 := (sigRdd - rAzdSq - rZedSq) * sinZe
	twoRdZedRZedd := 2*s.RR*sigZed + s.R*sigZedd
	term2 := twoRdZedRZedd * cosZe
	twoRdAzdRAzdd := (2*s.RR*sigAzd + s.R*sigAzdd) * sinZe
	term3 := 2 * rAzd * sigZed * cosZe
	xdd := (term1+term2)*cosAz - (twoRdAzdRAzdd+term3)*sinAz
	ydd := (term1+term2)*sinAz + (twoRdAzdRAzdd+term3)*cosAz
	zdd := (sigRdd-rZedSq)*cosZe - twoRdZedRZedd*sinZe

	p := linalg.New(stateDim, stateDim)
	p.Set(idxP0, idxP0, x*x)
	p.Set(idxP1, idxP1, y*y)
	p.Set(idxP2, idxP2, z*z)
	p.Set(idxV0, idxV0, xd*xd)
	p.Set(idxV1, idxV1, yd*yd)
	p.Set(idxV2, idxV2, zd*zd)
	p.Set(idxA0, idxA0, xdd*xdd)
	p.Set(idxA1, idxA1, ydd*ydd)
	p.Set(idxA2, idxA2, zdd*zdd)
	return p
}

// sphericalToCartesianKinematics converts a (az, ze, r) position with
// first-derivative rates (azd, zed, rd) to a Cartesian position/velocity
// pair, grounded on the same product-rule expansion as
// convertedRadarEstimateTrackFilter.cpp's postProcessFilteredData (used
// here for initial-state construction with azd = zed = 0, matching
// radarTrackEstimationFilterUser.cpp's estimateInitialState, which has no
// angular-rate measurement to seed azd/zed from).
func sphericalToCartesianKinematics(az, ze, r, azd, zed, rd float64) (p, v [3]float64) {
	cosAz, sinAz := math.Cos(az), math.Sin(az)
	cosZe, sinZe := math.Cos(ze), math.Sin(ze)
	rSinZe := r * sinZe

	x := rSinZe * cosAz
	y := rSinZe * sinAz
	z := r * cosZe

	rdSinZe := rd * sinZe
	rZedCosZe := z * zed
	rAzdSinZe := rSinZe * azd
	xd := (rdSinZe+rZedCosZe)*cosAz - rAzdSinZe*sinAz
	yd := (rdSinZe+rZedCosZe)*sinAz + rAzdSinZe*cosAz
	zd := rd*cosZe - r*zed*sinZe

	return [3]float64{x, y, z}, [3]float64{xd, yd, zd}
}

func (f *TrackFilter) aggregateBuffer() (value, sigma map[string]float64, err error) {
	if len(f.buffer) == 0 {
		return nil, nil, kinerr.Field("initialize", kinerr.ErrUninitialized)
	}
	samples := make([]aggregate.Sample, len(f.buffer))
	for i, m := range f.buffer {
		samples[i] = aggregate.Sample{Time: m.Time, Values: m.Values()}
	}
	value, _, sigma, err = f.strategy.Aggregate(samples)
	if err != nil {
		return nil, nil, kinerr.Field("initialize", err)
	}
	return value, sigma, nil
}

// Initialize implements estimate.Initializer: reduces the measurement
// buffer to an aggregated (azimuth, zenith, range, range-rate) estimate via
// strategy, converts it to an initial Cartesian state (zero angular rate
// and zero acceleration, matching radarTrackEstimationFilterUser.cpp's
// estimateInitialState), and derives P0/Q0/R0 from the aggregation's
// reported measurement sigmas.
func (f *TrackFilter) Initialize() (x0, p0, q0, r0 *linalg.Matrix, err error) {
	value, sigma, err := f.aggregateBuffer()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	s := sigmasFrom(sigma)

	pos, vel := sphericalToCartesianKinematics(value["azimuth"], value["zenith"], value["range"], 0, 0, value["rangeRate"])
	x0 = vec9([stateDim]float64{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2], 0, 0, 0})

	q0 = computeProcessCovariance(f.dt, f.cfg.GetXManeuverVariance(), f.cfg.GetYManeuverVariance(), f.cfg.GetZManeuverVariance())
	r0 = computeMeasurementCovariance(s, f.cfg.GetRangeRateMeasurementCorrelationCoefficient())
	p0 = computeErrorCovariance(s, f.dt)

	f.q, f.r = q0, r0
	return x0, p0, q0, r0, nil
}

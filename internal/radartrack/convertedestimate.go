package radartrack

import (
	"math"

	"github.com/banshee-data/kinestate/internal/aggregate"
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// Spherical state layout: (azimuth, zenith, range, azimuth-rate,
// zenith-rate, range-rate, azimuth-accel, zenith-accel, range-accel). The
// shared block-triangular dynamics Jacobian/model apply unchanged, since
// the constant-acceleration extrapolation is a per-component polynomial
// agnostic to what basis the 9 components represent.
const (
	sIdxAz = iota
	sIdxZe
	sIdxR
	sIdxAzd
	sIdxZed
	sIdxRd
)

// ConvertedEstimateFilter carries its 9-element state in spherical
// (azimuth, zenith, range and their first/second derivatives) coordinates
// rather than Cartesian, observing (azimuth, zenith, range, range-rate)
// directly through a constant selection matrix (spec.md §4.F), grounded on
// convertedRadarEstimateTrackFilter.h/.cpp.
type ConvertedEstimateFilter struct {
	*TrackFilter
}

// NewConvertedEstimateFilter constructs the converted-estimate variant
// around a base TrackFilter.
func NewConvertedEstimateFilter(cfg *config.Registry, strategy aggregate.Strategy, buffer []Measurement, dt float64) *ConvertedEstimateFilter {
	return &ConvertedEstimateFilter{TrackFilter: NewTrackFilter(cfg, strategy, buffer, dt)}
}

// sphericalSelection is the 4x9 matrix picking (azimuth, zenith, range,
// range-rate) out of the spherical state.
func sphericalSelection() *linalg.Matrix {
	h := linalg.New(measurementDim, stateDim)
	h.Set(0, sIdxAz, 1)
	h.Set(1, sIdxZe, 1)
	h.Set(2, sIdxR, 1)
	h.Set(3, sIdxRd, 1)
	return h
}

// MeasurementJacobian overrides TrackFilter's: observing the spherical
// state directly is linear, so H is constant.
func (f *ConvertedEstimateFilter) MeasurementJacobian(x *linalg.Matrix) (*linalg.Matrix, error) {
	return sphericalSelection(), nil
}

// MeasurementModel overrides TrackFilter's: h(x) selects (az, ze, r, ṙ).
func (f *ConvertedEstimateFilter) MeasurementModel(x *linalg.Matrix) (*linalg.Matrix, error) {
	h := linalg.New(measurementDim, 1)
	h.Set(0, 0, x.At(sIdxAz, 0))
	h.Set(1, 0, x.At(sIdxZe, 0))
	h.Set(2, 0, x.At(sIdxR, 0))
	h.Set(3, 0, x.At(sIdxRd, 0))
	return h, nil
}

// MeasurementMatrix implements estimate.LinearMeasurementModel.
func (f *ConvertedEstimateFilter) MeasurementMatrix() *linalg.Matrix {
	return sphericalSelection()
}

// estimateErrorCovariance builds the initial error covariance as a diagonal
// of the measurement sigmas and their naive dt-scaled derivatives (spec.md
// §4.F), grounded on convertedRadarEstimateTrackFilter.cpp — distinct from
// the trivial diag(xh_i^2) placeholder flagged in spec.md §9, which belongs
// to ConvertedMeasurementFilter instead (see that type's Initialize).
func (f *ConvertedEstimateFilter) estimateErrorCovariance(s sigmas, dt float64) *linalg.Matrix {
	p := linalg.New(stateDim, stateDim)
	p.Set(sIdxAz, sIdxAz, s.Az*s.Az)
	p.Set(sIdxZe, sIdxZe, s.Ze*s.Ze)
	p.Set(sIdxR, sIdxR, s.R*s.R)
	p.Set(sIdxAzd, sIdxAzd, (s.Az/dt)*(s.Az/dt))
	p.Set(sIdxZed, sIdxZed, (s.Ze/dt)*(s.Ze/dt))
	p.Set(sIdxRd, sIdxRd, s.RR*s.RR)
	p.Set(6, 6, (s.Az/(dt*dt))*(s.Az/(dt*dt)))
	p.Set(7, 7, (s.Ze/(dt*dt))*(s.Ze/(dt*dt)))
	p.Set(8, 8, (s.RR/dt)*(s.RR/dt))
	return p
}

// Initialize overrides TrackFilter's: the state is seeded directly from
// the aggregated spherical measurement (no Cartesian conversion, and zero
// angular rate/acceleration, matching
// radarTrackEstimationFilterUser.cpp's estimateInitialState), with its own
// error covariance; process and measurement covariance are unchanged from
// the base (the source's ConvertedRadarEstimateTrackFilter does not
// override computeProcessCovariance or computeMeasurementCovariance).
func (f *ConvertedEstimateFilter) Initialize() (x0, p0, q0, r0 *linalg.Matrix, err error) {
	value, sigma, err := f.aggregateBuffer()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	s := sigmasFrom(sigma)

	x0 = vec9([stateDim]float64{value["azimuth"], value["zenith"], value["range"], 0, 0, value["rangeRate"], 0, 0, 0})

	q0 = computeProcessCovariance(f.dt, f.cfg.GetXManeuverVariance(), f.cfg.GetYManeuverVariance(), f.cfg.GetZManeuverVariance())
	r0 = computeMeasurementCovariance(s, f.cfg.GetRangeRateMeasurementCorrelationCoefficient())
	p0 = f.estimateErrorCovariance(s, f.dt)

	f.q, f.r = q0, r0
	return x0, p0, q0, r0, nil
}

// PostProcess converts a filtered spherical state to Cartesian
// position/velocity/acceleration for external consumption, grounded on
// convertedRadarEstimateTrackFilter.cpp's postProcessFilteredData. This
// duplicates internal/motion's spherical-to-Cartesian expansion rather than
// importing its unexported helper, keeping this package decoupled from
// motion's frame/caching internals.
func (f *ConvertedEstimateFilter) PostProcess(xh *linalg.Matrix) *linalg.Matrix {
	az, ze, r := xh.At(sIdxAz, 0), xh.At(sIdxZe, 0), xh.At(sIdxR, 0)
	azd, zed, rd := xh.At(sIdxAzd, 0), xh.At(sIdxZed, 0), xh.At(sIdxRd, 0)
	pos, vel := sphericalToCartesianKinematics(az, ze, r, azd, zed, rd)
	azdd, zedd, rdd := xh.At(6, 0), xh.At(7, 0), xh.At(8, 0)
	sz, cz := math.Sincos(ze)
	sa, ca := math.Sincos(az)
	sDot, sDDot := cz*zed, -sz*zed*zed+cz*zedd
	cDot, cDDot := -sz*zed, -cz*zed*zed-sz*zedd
	saDot, saDDot := ca*azd, -sa*azd*azd+ca*azdd
	caDot, caDDot := -sa*azd, -ca*azd*azd-sa*azdd
	out := linalg.New(stateDim, 1)
	out.Set(idxP0, 0, pos[0])
	out.Set(idxP1, 0, pos[1])
	out.Set(idxP2, 0, pos[2])
	out.Set(idxV0, 0, vel[0])
	out.Set(idxV1, 0, vel[1])
	out.Set(idxV2, 0, vel[2])
	out.Set(idxA0, 0, rdd*sz*ca+r*sDDot*ca+r*sz*caDDot+2*rd*sDot*ca+2*rd*sz*caDot+2*r*sDot*caDot)
	out.Set(idxA1, 0, rdd*sz*sa+r*sDDot*sa+r*sz*saDDot+2*rd*sDot*sa+2*rd*sz*saDot+2*r*sDot*saDot)
	out.Set(idxA2, 0, rdd*cz+r*cDDot+2*rd*cDot)
	return out
}

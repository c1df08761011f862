package radartrack

import (
	"math"

	"github.com/banshee-data/kinestate/internal/aggregate"
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/linalg"
)

// ConvertedMeasurementFilter observes the same 9-element Cartesian state as
// TrackFilter but converts each incoming (azimuth, zenith, range)
// measurement to Cartesian position before filtering, making the
// measurement model a plain position selection (spec.md §4.F), grounded on
// convertedRadarMeasurementTrackFilter.h/.cpp.
type ConvertedMeasurementFilter struct {
	*TrackFilter
}

// NewConvertedMeasurementFilter constructs the converted-measurement
// variant around a base TrackFilter.
func NewConvertedMeasurementFilter(cfg *config.Registry, strategy aggregate.Strategy, buffer []Measurement, dt float64) *ConvertedMeasurementFilter {
	return &ConvertedMeasurementFilter{TrackFilter: NewTrackFilter(cfg, strategy, buffer, dt)}
}

// positionSelection is the 3x9 matrix H = [I3, 0, 0] selecting the position
// block out of the 9-element state.
func positionSelection() *linalg.Matrix {
	h := linalg.New(3, stateDim)
	h.Set(0, idxP0, 1)
	h.Set(1, idxP1, 1)
	h.Set(2, idxP2, 1)
	return h
}

// MeasurementJacobian overrides TrackFilter's: observing Cartesian position
// directly is linear, so H is constant.
func (f *ConvertedMeasurementFilter) MeasurementJacobian(x *linalg.Matrix) (*linalg.Matrix, error) {
	return positionSelection(), nil
}

// MeasurementModel overrides TrackFilter's: h(x) is just the position
// block.
func (f *ConvertedMeasurementFilter) MeasurementModel(x *linalg.Matrix) (*linalg.Matrix, error) {
	pos := linalg.New(3, 1)
	pos.Set(0, 0, x.At(idxP0, 0))
	pos.Set(1, 0, x.At(idxP1, 0))
	pos.Set(2, 0, x.At(idxP2, 0))
	return pos, nil
}

// MeasurementMatrix implements estimate.LinearMeasurementModel, letting
// this variant drive an estimate.LKF in addition to EKF/UKF.
func (f *ConvertedMeasurementFilter) MeasurementMatrix() *linalg.Matrix {
	return positionSelection()
}

// PreprocessMeasurement converts a raw (azimuth, zenith, range) reading to
// a Cartesian position vector suitable for MeasurementUpdate, grounded on
// convertedRadarMeasurementTrackFilter.cpp's preProcessMeasurementData.
func (f *ConvertedMeasurementFilter) PreprocessMeasurement(m Measurement) *linalg.Matrix {
	m = m.InRadians()
	rSinZe := m.Range * math.Sin(m.Zenith)
	pos := linalg.New(3, 1)
	pos.Set(0, 0, rSinZe*math.Cos(m.Azimuth))
	pos.Set(1, 0, rSinZe*math.Sin(m.Azimuth))
	pos.Set(2, 0, m.Range*math.Cos(m.Zenith))
	return pos
}

// computeMeasurementCovariance builds the 3x3 Cartesian position
// measurement covariance by propagating the (azimuth, zenith, range)
// measurement sigmas through the same spherical-to-Cartesian partials used
// by PreprocessMeasurement (spec.md §4.F), grounded on
// convertedRadarMeasurementTrackFilter.cpp.
func (f *ConvertedMeasurementFilter) computeMeasurementCovariance(m Measurement, s sigmas) *linalg.Matrix {
	m = m.InRadians()
	az, ze, r := m.Azimuth, m.Zenith, m.Range
	cosAz, sinAz := math.Cos(az), math.Sin(az)
	cosZe, sinZe := math.Cos(ze), math.Sin(ze)
	sAz2, sZe2, sR2 := s.Az*s.Az, s.Ze*s.Ze, s.R*s.R

	rCosZe := r * cosZe
	rSinZe := r * sinZe

	varX := sR2*sinZe*sinZe*cosAz*cosAz + rCosZe*rCosZe*cosAz*cosAz*sZe2 + rSinZe*rSinZe*sinAz*sinAz*sAz2
	varY := sR2*sinZe*sinZe*sinAz*sinAz + rCosZe*rCosZe*sinAz*sinAz*sZe2 + rSinZe*rSinZe*cosAz*cosAz*sAz2
	varZ := sR2*cosZe*cosZe + rSinZe*rSinZe*sZe2

	covXY := (sR2*sinZe*sinZe+rCosZe*rCosZe*sZe2-rSinZe*rSinZe*sAz2)*sinAz*cosAz
	covXZ := (sR2*sinZe*cosZe - r*rCosZe*sinZe*sZe2) * cosAz
	covYZ := (sR2*sinZe*cosZe - r*rCosZe*sinZe*sZe2) * sinAz

	r3 := linalg.New(3, 3)
	r3.Set(0, 0, varX)
	r3.Set(1, 1, varY)
	r3.Set(2, 2, varZ)
	r3.Set(0, 1, covXY)
	r3.Set(1, 0, covXY)
	r3.Set(0, 2, covXZ)
	r3.Set(2, 0, covXZ)
	r3.Set(1, 2, covYZ)
	r3.Set(2, 1, covYZ)
	return r3
}

// Initialize overrides TrackFilter's: the initial state, process
// covariance, and error covariance are built as in the base (both variants
// share the same Cartesian basis), but the measurement covariance is
// specialized to this variant's position-only observation.
//
// P0 reuses the base TrackFilter's computeErrorCovariance rather than the
// source's ConvertedRadarMeasurementTrackFilter::computeErrorCovariance,
// which is a trivial diag(xh_i^2) placeholder (spec.md §9's flagged Open
// Question) — the base class the source inherits from already carries a
// principled derivation of the same quantity that this subclass never
// called.
func (f *ConvertedMeasurementFilter) Initialize() (x0, p0, q0, r0 *linalg.Matrix, err error) {
	value, sigma, err := f.aggregateBuffer()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	s := sigmasFrom(sigma)

	pos, vel := sphericalToCartesianKinematics(value["azimuth"], value["zenith"], value["range"], 0, 0, value["rangeRate"])
	x0 = vec9([stateDim]float64{pos[0], pos[1], pos[2], vel[0], vel[1], vel[2], 0, 0, 0})

	q0 = computeProcessCovariance(f.dt, f.cfg.GetXManeuverVariance(), f.cfg.GetYManeuverVariance(), f.cfg.GetZManeuverVariance())
	p0 = computeErrorCovariance(s, f.dt)

	latest := f.buffer[len(f.buffer)-1]
	r0 = f.computeMeasurementCovariance(latest, s)

	f.q, f.r = q0, r0
	return x0, p0, q0, r0, nil
}

package radartrack

import (
	"math"

	"github.com/banshee-data/kinestate/internal/kinematic"
)

// Measurement is a single radar state measurement comprised of azimuth,
// zenith, range, and range rate (spec.md §3.6), grounded on
// radarMeasurement.h/.cpp and radar_measurement_type.h. Elevation is
// derivable as pi/2 - zenith and is not carried separately.
type Measurement struct {
	Time      float64
	Azimuth   float64
	Zenith    float64
	Range     float64
	RangeRate float64
	Units     kinematic.AngleUnit
}

// InRadians returns a copy of m with Azimuth and Zenith converted to
// radians, a no-op if m is already in radians.
func (m Measurement) InRadians() Measurement {
	if m.Units == kinematic.Radians {
		return m
	}
	out := m
	out.Azimuth = m.Azimuth * math.Pi / 180
	out.Zenith = m.Zenith * math.Pi / 180
	out.Units = kinematic.Radians
	return out
}

// Values returns m's named-component view for aggregate.Strategy (spec.md
// §4.G), with angles expressed in radians.
func (m Measurement) Values() map[string]float64 {
	r := m.InRadians()
	return map[string]float64{
		"azimuth":   r.Azimuth,
		"zenith":    r.Zenith,
		"range":     r.Range,
		"rangeRate": r.RangeRate,
	}
}

package motion

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/kinematic"
	"github.com/banshee-data/kinestate/internal/kinerr"
)

// Speed returns the scalar magnitude of s's velocity.
func (s *State) Speed() float64 {
	return s.Payload().V.Norm()
}

// Acceleration returns the scalar magnitude of s's acceleration.
func (s *State) Acceleration() float64 {
	return s.Payload().A.Norm()
}

// rangeKinematics returns the scalar range, range-rate, and range-
// acceleration implied by a (position, velocity, acceleration) triple
// (spec.md §4.D "Kinematic utilities"), zeroing derivatives at r == 0
// rather than dividing by zero (spec.md §4.D "Failure model").
func rangeKinematics(p, v, a kinematic.Triple) (r, rdot, rddot float64) {
	r = p.Norm()
	if r == 0 {
		return 0, 0, 0
	}
	rdot = p.Dot(v) / r
	rddot = ((v.Dot(v) + p.Dot(a)) - rdot*rdot) / r
	return
}

// Range returns s's distance from the origin of its own frame at s's
// current time.
func (s *State) Range() float64 {
	return s.Payload().P.Norm()
}

// RangeAtTime returns s's distance from the origin, projected to time t
// under constant-acceleration kinematics.
func (s *State) RangeAtTime(t float64) float64 {
	pl := s.Payload()
	p, _, _ := kinematic.PropagateConstantAcceleration(pl.P, pl.V, pl.A, t-s.Time())
	return p.Norm()
}

// RangeRate returns the first time derivative of s's range to the origin.
func (s *State) RangeRate() float64 {
	pl := s.Payload()
	_, rdot, _ := rangeKinematics(pl.P, pl.V, pl.A)
	return rdot
}

// RangeAcceleration returns the second time derivative of s's range to the
// origin.
func (s *State) RangeAcceleration() float64 {
	pl := s.Payload()
	_, _, rddot := rangeKinematics(pl.P, pl.V, pl.A)
	return rddot
}

// relativeTo returns other's (p, v, a) projected to s's current time, so
// callers can subtract it from s's own payload to get relative motion.
// Requires other be described in the same frame as s: range/approach
// queries do not auto-transform across frames, callers must Transform
// first.
func (s *State) relativeTo(other *State) (p, v, a kinematic.Triple, err error) {
	if other.Frame() != s.Frame() {
		return kinematic.Triple{}, kinematic.Triple{}, kinematic.Triple{}, fmt.Errorf(
			"range/approach queries require both motion states in the same frame; transform one first: %w",
			kinerr.ErrTreeMismatch)
	}
	op := other.Payload()
	dt := s.Time() - other.Time()
	p, v, a = kinematic.PropagateConstantAcceleration(op.P, op.V, op.A, dt)
	return p, v, a, nil
}

// RangeTo returns the current distance between s and other (both must be
// described in the same frame).
func (s *State) RangeTo(other *State) (float64, error) {
	op, _, _, err := s.relativeTo(other)
	if err != nil {
		return 0, err
	}
	return s.Payload().P.Sub(op).Norm(), nil
}

// RangeRateTo returns the first time derivative of the distance between s
// and other.
func (s *State) RangeRateTo(other *State) (float64, error) {
	op, ov, _, err := s.relativeTo(other)
	if err != nil {
		return 0, err
	}
	pl := s.Payload()
	_, rdot, _ := rangeKinematics(pl.P.Sub(op), pl.V.Sub(ov), kinematic.Triple{})
	return rdot, nil
}

// RangeAccelerationTo returns the second time derivative of the distance
// between s and other.
func (s *State) RangeAccelerationTo(other *State) (float64, error) {
	op, ov, oa, err := s.relativeTo(other)
	if err != nil {
		return 0, err
	}
	pl := s.Payload()
	_, _, rddot := rangeKinematics(pl.P.Sub(op), pl.V.Sub(ov), pl.A.Sub(oa))
	return rddot, nil
}

// approachPolynomial returns the coefficients (lowest degree first) of the
// derivative of squared relative range with respect to time-since-s.Time(),
// given the relative (position, velocity, acceleration) triple at
// s.Time() (spec.md §4.D "minimum approach time").
//
// For this module's constant-acceleration trajectory model the derivative
// of squared range is cubic, not quartic: d/dτ|Δp0 + Δv0 τ + ½Δa0 τ²|² is
// degree 3 in τ. The specification's "quartic" describes a richer model
// (e.g. with jerk or rotating frames); this module documents the
// divergence rather than padding in an unused degree (see DESIGN.md).
func approachPolynomial(dp0, dv0, da0 kinematic.Triple) []float64 {
	return []float64{
		dp0.Dot(dv0),
		dp0.Dot(da0) + dv0.Dot(dv0),
		1.5 * dv0.Dot(da0),
		0.5 * da0.Dot(da0),
	}
}

func minimumApproachCore(dp0, dv0, da0 kinematic.Triple) (distance, tau float64) {
	roots := realRoots(approachPolynomial(dp0, dv0, da0))
	tau, ok := pickApproachRoot(roots)
	if !ok {
		return dp0.Norm(), 0
	}
	p := dp0.Add(dv0.Scale(tau)).Add(da0.Scale(0.5 * tau * tau))
	return p.Norm(), tau
}

// LineOfSightDistance returns the minimum distance s's trajectory achieves
// from the origin of its own frame, and the time (absolute) at which that
// closest approach occurs (spec.md §4.D: "line of sight distance and
// approach time with respect to the null motion state").
func (s *State) LineOfSightDistance() (distance, tApproach float64) {
	pl := s.Payload()
	d, tau := minimumApproachCore(pl.P, pl.V, pl.A)
	return d, s.Time() + tau
}

// MinimumApproachTime returns the minimum distance achieved between s and
// other, and the absolute time at which it occurs. Both must be described
// in the same frame.
func (s *State) MinimumApproachTime(other *State) (distance, tApproach float64, err error) {
	op, ov, oa, err := s.relativeTo(other)
	if err != nil {
		return 0, 0, err
	}
	pl := s.Payload()
	d, tau := minimumApproachCore(pl.P.Sub(op), pl.V.Sub(ov), pl.A.Sub(oa))
	return d, s.Time() + tau, nil
}

// DistanceToPlaneIntersection returns s's current signed perpendicular
// distance to the plane through the origin of s's frame normal to
// direction, and the absolute time at which s's trajectory is projected to
// cross that plane (spec.md §4.D). The sign of distance is positive when s
// currently lies on the side of the plane that direction points toward.
func (s *State) DistanceToPlaneIntersection(direction kinematic.Triple) (distance, tPenetration float64, err error) {
	norm := direction.Norm()
	if norm == 0 {
		return 0, 0, fmt.Errorf("zero-length plane direction: %w", kinerr.ErrUnsupported)
	}
	n := direction.Scale(1 / norm)
	pl := s.Payload()

	c0 := n.Dot(pl.P)
	c1 := n.Dot(pl.V)
	c2 := 0.5 * n.Dot(pl.A)

	roots := realRoots([]float64{c0, c1, c2})
	tau, ok := pickApproachRoot(roots)
	if !ok {
		return c0, s.Time(), nil
	}
	return c0, s.Time() + tau, nil
}

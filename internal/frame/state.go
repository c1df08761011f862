package frame

import "github.com/banshee-data/kinestate/internal/kinematic"

// StateTag identifies a named variant of a frame's parametric state
// (spec.md §3.1), allowing multiple scenarios to coexist on one topology.
type StateTag string

// DefaultStateTag is used when no tag is specified.
const DefaultStateTag StateTag = "default"

// Kind discriminates whether a State propagates rotation as plain
// projective Euler integration or a richer variant (spec.md §3.2). The
// richer variant is a placeholder extension point: this module implements
// only ProjectiveEuler propagation (matching the formulas in spec.md
// §4.C), but State.Kind lets a caller mark and later branch on richer
// state without changing the State shape.
type Kind int

const (
	ProjectiveEuler Kind = iota
	RichVariant
)

// State is the parametric definition of a frame relative to its parent at
// a reference time TRef (spec.md §3.2): origin position, velocity,
// acceleration, Euler angles and their first/second time derivatives, the
// angle-unit convention, and the reference time.
type State struct {
	P, V, A          kinematic.Triple
	E, EDot, EDDot   kinematic.Triple
	Units            kinematic.AngleUnit
	TRef             float64
	Kind             Kind
}

// IsNonRotating reports whether the state has zero Euler angles, rates,
// and accelerations — the precondition for Frame merging (spec.md §4.C).
func (s State) IsNonRotating() bool {
	return s.E.IsZero() && s.EDot.IsZero() && s.EDDot.IsZero()
}

// eulerRadians returns E, EDot, EDDot converted to radians, regardless of
// the state's stored unit convention.
func (s State) eulerRadians() (e, eDot, eDDot kinematic.Triple) {
	return s.E.ToRadians(s.Units), s.EDot.ToRadians(s.Units), s.EDDot.ToRadians(s.Units)
}

// PropagateTo returns the state advanced from its current TRef to absolute
// time t, using constant-acceleration kinematics for translation and the
// same propagator for Euler angles ("Euler integration", spec.md §4.C).
func (s State) PropagateTo(t float64) State {
	return s.PropagateDelta(t - s.TRef)
}

// PropagateDelta returns the state advanced by dt (delta semantics,
// spec.md §4.C).
func (s State) PropagateDelta(dt float64) State {
	out := s
	out.P, out.V, out.A = kinematic.PropagateConstantAcceleration(s.P, s.V, s.A, dt)
	out.E, out.EDot, out.EDDot = kinematic.PropagateConstantAcceleration(s.E, s.EDot, s.EDDot, dt)
	out.TRef = s.TRef + dt
	return out
}

// AngularVelocity returns the state's angular velocity vector in radians
// per second, expressed in the parent frame's axes.
func (s State) AngularVelocity() kinematic.Triple {
	_, eDot, _ := s.eulerRadians()
	return kinematic.AngularVelocityFromEulerRate(eDot)
}

// AngularAcceleration returns the state's angular acceleration vector in
// radians per second squared, expressed in the parent frame's axes.
func (s State) AngularAcceleration() kinematic.Triple {
	_, _, eDDot := s.eulerRadians()
	return kinematic.AngularAccelerationFromEulerAccel(eDDot)
}

// RotationChildToParent returns the direction-cosine matrix mapping a
// vector in this frame's axes to its parent's axes, at the state's current
// TRef.
func (s State) RotationChildToParent() [9]float64 {
	e, _, _ := s.eulerRadians()
	return kinematic.RotationChildToParent(e)
}

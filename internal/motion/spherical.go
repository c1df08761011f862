package motion

import (
	"math"

	"github.com/banshee-data/kinestate/internal/kinematic"
)

// sphericalTriple names a Spherical-coordinate Payload.P/V/A triple's
// components; it is a view over kinematic.Triple{X: azimuth, Y: zenith,
// Z: range}, never a distinct wire type.
type sphericalTriple struct {
	Az, Ze, R float64
}

func asSpherical(t kinematic.Triple) sphericalTriple { return sphericalTriple{t.X, t.Y, t.Z} }

func (s sphericalTriple) triple() kinematic.Triple {
	return kinematic.Triple{X: s.Az, Y: s.Ze, Z: s.R}
}

// cartesianToSpherical converts a Cartesian (p, v, a) triple to azimuth,
// zenith, range and their first and second time derivatives, following the
// standard convention used throughout the applied radar filters (spec.md
// §4.F): azimuth = atan2(y, x), zenith = acos(z / r). At r == 0 the angular
// components and all derivatives are reported as zero rather than failing
// (spec.md §4.D "Failure model").
func cartesianToSpherical(p, v, a kinematic.Triple) (pos, vel, acc sphericalTriple) {
	r := p.Norm()
	if r == 0 {
		return sphericalTriple{}, sphericalTriple{}, sphericalTriple{}
	}

	az := math.Atan2(p.Y, p.X)
	ze := math.Acos(p.Z / r)
	pos = sphericalTriple{Az: az, Ze: ze, R: r}

	rdot := p.Dot(v) / r
	w := p.X*p.X + p.Y*p.Y
	azdot := 0.0
	if w > 0 {
		u := p.X*v.Y - p.Y*v.X
		azdot = u / w
	}

	q := math.Sqrt(r*r - p.Z*p.Z)
	zedot := 0.0
	if q > 0 {
		zedot = -(v.Z*r - p.Z*rdot) / (r * q)
	}
	vel = sphericalTriple{Az: azdot, Ze: zedot, R: rdot}

	rddot := ((v.Dot(v) + p.Dot(a)) - rdot*rdot) / r

	azddot := 0.0
	if w > 0 {
		u := p.X*v.Y - p.Y*v.X
		u1 := p.X*a.Y - p.Y*a.X
		w1 := 2 * (p.X*v.X + p.Y*v.Y)
		azddot = (u1*w - u*w1) / (w * w)
	}

	zeddot := 0.0
	if q > 0 {
		c := p.Z / r
		cdot := (v.Z*r - p.Z*rdot) / (r * r)
		cddot := ((a.Z*r-p.Z*rddot)*r - 2*rdot*(v.Z*r-p.Z*rdot)) / (r * r * r)
		qNorm := q / r // sqrt(1 - c^2)
		zeddot = -(cddot*qNorm*qNorm + c*cdot*cdot) / (qNorm * qNorm * qNorm)
	}
	acc = sphericalTriple{Az: azddot, Ze: zeddot, R: rddot}
	return pos, vel, acc
}

// sphericalToCartesian is the inverse of cartesianToSpherical, deriving
// Cartesian position/velocity/acceleration from azimuth/zenith/range and
// their first and second time derivatives via the product rule applied to
// x = r sin(ze) cos(az), y = r sin(ze) sin(az), z = r cos(ze).
func sphericalToCartesian(pos, vel, acc sphericalTriple) (p, v, a kinematic.Triple) {
	sz, cz := math.Sincos(pos.Ze)
	sa, ca := math.Sincos(pos.Az)

	// Each of s = sin(ze), c = cos(ze), sa = sin(az), ca = cos(az) as
	// functions of time, with their first and second time derivatives.
	sDot := cz * vel.Ze
	sDDot := -sz*vel.Ze*vel.Ze + cz*acc.Ze
	cDot := -sz * vel.Ze
	cDDot := -cz*vel.Ze*vel.Ze - sz*acc.Ze
	saDot := ca * vel.Az
	saDDot := -sa*vel.Az*vel.Az + ca*acc.Az
	caDot := -sa * vel.Az
	caDDot := -ca*vel.Az*vel.Az - sa*acc.Az

	r, rDot, rDDot := pos.R, vel.R, acc.R

	// x = r * s * ca (product of three scalar functions of time).
	x := r * sz * ca
	vx := rDot*sz*ca + r*sDot*ca + r*sz*caDot
	ax := rDDot*sz*ca + r*sDDot*ca + r*sz*caDDot +
		2*rDot*sDot*ca + 2*rDot*sz*caDot + 2*r*sDot*caDot

	// y = r * s * sa.
	y := r * sz * sa
	vy := rDot*sz*sa + r*sDot*sa + r*sz*saDot
	ay := rDDot*sz*sa + r*sDDot*sa + r*sz*saDDot +
		2*rDot*sDot*sa + 2*rDot*sz*saDot + 2*r*sDot*saDot

	// z = r * c.
	z := r * cz
	vz := rDot*cz + r*cDot
	az := rDDot*cz + r*cDDot + 2*rDot*cDot

	p = kinematic.Triple{X: x, Y: y, Z: z}
	v = kinematic.Triple{X: vx, Y: vy, Z: vz}
	a = kinematic.Triple{X: ax, Y: ay, Z: az}
	return p, v, a
}

// ToCoordinateSystem returns a copy of s converted to target, re-deriving
// P, V, A via the conventional spherical<->Cartesian formulas (spec.md
// §4.D). Converting to s's current coordinate system is a no-op clone.
func (s *State) ToCoordinateSystem(target CoordinateSystem) *State {
	out := s.Clone()
	if out.coord == target {
		return out
	}
	pl := out.payload
	switch target {
	case Spherical:
		pos, vel, acc := cartesianToSpherical(pl.P, pl.V, pl.A)
		pl.P, pl.V, pl.A = pos.triple(), vel.triple(), acc.triple()
	case Cartesian:
		pos, vel, acc := asSpherical(pl.P), asSpherical(pl.V), asSpherical(pl.A)
		pl.P, pl.V, pl.A = sphericalToCartesian(pos, vel, acc)
	}
	out.payload = pl
	out.coord = target
	out.cache = nil
	return out
}

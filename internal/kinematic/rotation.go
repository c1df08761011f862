package kinematic

import "math"

// RotationChildToParent returns the 3x3 direction-cosine matrix (row-major,
// as a flat 9-element array) that maps a vector expressed in a child
// frame's axes to the parent frame's axes, given the child's roll-pitch-yaw
// Euler angles in radians. Convention: R = Rz(yaw) * Ry(pitch) * Rx(roll),
// the standard aerospace roll-pitch-yaw composition.
func RotationChildToParent(eRad Triple) [9]float64 {
	sr, cr := math.Sincos(eRad.X)
	sp, cp := math.Sincos(eRad.Y)
	sy, cy := math.Sincos(eRad.Z)

	// Rz(yaw) * Ry(pitch) * Rx(roll), row-major.
	return [9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}
}

// ApplyRotation applies the row-major 3x3 matrix r to vector v.
func ApplyRotation(r [9]float64, v Triple) Triple {
	return Triple{
		r[0]*v.X + r[1]*v.Y + r[2]*v.Z,
		r[3]*v.X + r[4]*v.Y + r[5]*v.Z,
		r[6]*v.X + r[7]*v.Y + r[8]*v.Z,
	}
}

// TransposeRotation returns the transpose (== inverse, for an orthonormal
// rotation matrix) of r.
func TransposeRotation(r [9]float64) [9]float64 {
	return [9]float64{
		r[0], r[3], r[6],
		r[1], r[4], r[7],
		r[2], r[5], r[8],
	}
}

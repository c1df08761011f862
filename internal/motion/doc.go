// Package motion is component D: the motion-state + transformation engine
// (spec.md §3.3/§4.D), grounded on motionState.h/motionState.cpp and the
// Cartesian/spherical subclasses under
// _examples/original_source/source/physics/kinematics/.
//
// A State is a body's instantaneous kinematics — the same nine-quantity
// payload as frame.State, plus a coordinate-system tag — defined in a
// specific (frame, state tag) pair. It implements frame.Attachable so a
// frame can push cache-invalidation and detachment notifications to it
// without the frame package importing this one.
//
// Transform walks the frame tree via frame.LeastCommonAncestor, composing
// the transport-theorem corrections for rotating frames along the way
// (spec.md §4.D steps 3-4), and memoizes the result keyed by the target
// frame/tag/coordinate-system/time so repeated transforms to the same
// target skip the tree walk (spec.md §4.D "Caching").
package motion

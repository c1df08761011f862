// Package kinematic holds the small 3-vector value type and the
// constant-acceleration / Euler-integration propagation formulas shared by
// the reference-frame tree (component C) and the motion-state engine
// (component D). It deliberately stays a plain value type with arithmetic
// methods rather than a polymorphic vector/quaternion hierarchy — the
// Vector2d/Quat primitives named in spec.md §1 are explicitly out of scope
// for the core, so this package is the minimal internal substitute needed
// to express the nine-quantity kinematic payload (p, v, a, e, ė, ë).
package kinematic

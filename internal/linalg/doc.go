// Package linalg is component A of the kinematics and estimation toolkit:
// the numeric substrate consumed by the Kalman filter family (E) and the
// radar-track applied filters (F).
//
// Matrix wraps gonum.org/v1/gonum/mat.Dense rather than reimplementing
// dense linear algebra by hand — gonum is already the domain dependency
// the rest of the retrieval pack reaches for (teacher repo:
// internal/lidar/monitor/gridplotter.go). The original C++ counterpart
// (matrix2d.h) is a hand-rolled dense matrix type with exactly this
// operation set; gonum's mat.Dense is the idiomatic Go equivalent.
package linalg

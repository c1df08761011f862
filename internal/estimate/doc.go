// Package estimate is component E of the kinematics and estimation
// toolkit: the Kalman-family filter engines (spec.md §4.E, §3.5).
//
// The original source's Kalman/ExtendedKalman/LinearKalman/UnscentedKalman
// class hierarchy (kalman.h, extendedKalman.h, linearKalman.h,
// unscentedKalman.h) is collapsed per spec.md §9's "Deep inheritance"
// design note: a problem's dynamics and measurement equations are
// supplied through a small DynamicsModel/MeasurementModel interface
// (the Go stand-in for AppliedEstimationFilter, appliedEstimationFilter.cpp),
// and EKF/LKF/UKF are concrete engines built against that interface rather
// than a class tower. Matrix algebra is internal/linalg (component A);
// configuration is internal/config (the same registry used by the radar
// track filter, component F).
package estimate

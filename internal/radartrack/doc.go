// Package radartrack implements the applied estimation filters for radar
// tracking (spec.md §4.F), grounded on radarTrackFilter.h/.cpp,
// radarMeasurement.h/.cpp, convertedRadarMeasurementTrackFilter.h/.cpp,
// convertedRadarEstimateTrackFilter.h/.cpp, and
// radarTrackEstimationFilterUser.h/.cpp for the initialization contract.
// Style and shape borrow from the teacher's own Kalman-flavored tracker,
// internal/lidar/l5tracks/tracking.go: a fixed-size state, a config struct
// with clamped ranges, and a thin wrapper type per filter variant.
//
// All three variants share a 9-element constant-acceleration state and the
// base TrackFilter's dynamics Jacobian/model/process covariance; they
// differ only in the coordinate system the state is carried in, in the
// measurement Jacobian/model, and in which initial error or measurement
// covariance they build.
package radartrack

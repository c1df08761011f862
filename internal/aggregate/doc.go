// Package aggregate implements the measurement-aggregation strategies that
// digest a buffer of named measurement samples into an initial filter state
// (spec.md §4.G), grounded on latestMeasurementStrategy.h and
// leastSquaresMeasurementStrategy.h/.cpp. A strategy is named-component
// generic: it operates on a map of component name to value per sample
// rather than any particular domain's measurement type, matching the
// original's StateMap-keyed aggregation contract.
package aggregate

package aggregate

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/kinerr"
)

// Sample is one measurement observation: a timestamp and a named-component
// value map (spec.md §4.G), e.g. {"azimuth": 0.1, "range": 1000}.
type Sample struct {
	Time   float64
	Values map[string]float64
}

// Strategy reduces a buffer of samples to an aggregated value per named
// component, with optional estimated derivative and standard deviation
// maps (spec.md §4.G "aggregate(measurements) -> (initialState,
// derivatives?, sigma?)").
type Strategy interface {
	Aggregate(samples []Sample) (value, derivative, sigma map[string]float64, err error)
}

func requireSamples(samples []Sample) error {
	if len(samples) == 0 {
		return kinerr.Field("aggregate", fmt.Errorf("%w: no measurement samples", kinerr.ErrEmptyMeasurement))
	}
	return nil
}

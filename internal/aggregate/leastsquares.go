package aggregate

import (
	"fmt"

	"github.com/banshee-data/kinestate/internal/kinerr"
	"gonum.org/v1/gonum/stat"
)

// LeastSquares fits an independent line per named component across the
// sample buffer and reports the fitted value at the most recent sample's
// time, the fitted slope as the derivative estimate, and the sample
// standard deviation of the fit's residuals (spec.md §4.G
// "Least-squares"), grounded on leastSquaresMeasurementStrategy.h/.cpp.
//
// Unlike the source (which accumulates a single overall sample count and
// time-sum pair shared across every component, even when a component is
// missing from some samples), each component's regression here uses only
// the samples that actually carry it, so a component present in a subset
// of the buffer still gets a correct fit instead of a skewed one.
type LeastSquares struct{}

func (LeastSquares) Aggregate(samples []Sample) (value, derivative, sigma map[string]float64, err error) {
	if err := requireSamples(samples); err != nil {
		return nil, nil, nil, err
	}

	lastTime := samples[0].Time
	names := map[string]struct{}{}
	for _, s := range samples {
		if s.Time > lastTime {
			lastTime = s.Time
		}
		for name := range s.Values {
			names[name] = struct{}{}
		}
	}

	value = make(map[string]float64, len(names))
	derivative = make(map[string]float64, len(names))
	sigma = make(map[string]float64, len(names))

	for name := range names {
		var ts, ys []float64
		for _, s := range samples {
			y, ok := s.Values[name]
			if !ok {
				continue
			}
			ts = append(ts, s.Time)
			ys = append(ys, y)
		}
		n := float64(len(ts))
		if n < 2 {
			return nil, nil, nil, kinerr.Field("aggregate", fmt.Errorf("%w: component %q has fewer than 2 samples", kinerr.ErrEmptyMeasurement, name))
		}

		var sumT, sumT2, sumY, sumTY float64
		for i := range ts {
			sumT += ts[i]
			sumT2 += ts[i] * ts[i]
			sumY += ys[i]
			sumTY += ts[i] * ys[i]
		}

		denom := n*sumT2 - sumT*sumT
		if denom == 0 {
			return nil, nil, nil, kinerr.Field("aggregate", fmt.Errorf("%w: component %q has degenerate time spread", kinerr.ErrSingular, name))
		}
		slope := (n*sumTY - sumT*sumY) / denom
		intercept := (sumY - slope*sumT) / n

		residuals := make([]float64, len(ts))
		for i := range ts {
			residuals[i] = ys[i] - slope*ts[i] - intercept
		}

		derivative[name] = slope
		value[name] = intercept + slope*lastTime
		sigma[name] = stat.StdDev(residuals, nil)
	}

	return value, derivative, sigma, nil
}

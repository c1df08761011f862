package aggregate

// Latest picks the most recent sample by time and reports its values
// directly, with no derivative or standard-deviation estimate (spec.md
// §4.G "Latest"), grounded on latestMeasurementStrategy.h.
type Latest struct{}

func (Latest) Aggregate(samples []Sample) (value, derivative, sigma map[string]float64, err error) {
	if err := requireSamples(samples); err != nil {
		return nil, nil, nil, err
	}
	latest := samples[0]
	for _, s := range samples[1:] {
		if s.Time >= latest.Time {
			latest = s
		}
	}
	value = make(map[string]float64, len(latest.Values))
	for k, v := range latest.Values {
		value[k] = v
	}
	return value, nil, nil, nil
}

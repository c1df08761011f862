// Command trackdemo is a thin synchronous driver exercising the motion,
// estimation, radar-track, and aggregation packages end to end on
// synthetic data. It is illustration scaffolding, not a CLI product
// surface: there is no flag parsing beyond a couple of knobs controlling
// how many synthetic steps to run.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"github.com/banshee-data/kinestate/internal/aggregate"
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/estimate"
	"github.com/banshee-data/kinestate/internal/frame"
	"github.com/banshee-data/kinestate/internal/kinematic"
	"github.com/banshee-data/kinestate/internal/linalg"
	"github.com/banshee-data/kinestate/internal/motion"
	"github.com/banshee-data/kinestate/internal/radartrack"
)

func main() {
	steps := flag.Int("steps", 8, "number of synthetic radar scans to drive through the filters")
	dt := flag.Float64("dt", 1.0, "sampling interval in seconds")
	flag.Parse()

	cfg := config.Empty()
	track := syntheticTrack(*steps, *dt)

	finalPos, err := runConvertedMeasurement(cfg, track, *dt)
	if err != nil {
		log.Fatalf("converted-measurement filter: %v", err)
	}
	if _, err := runConvertedEstimate(cfg, track, *dt); err != nil {
		log.Fatalf("converted-estimate filter: %v", err)
	}
	if err := reportInSensorFrame(finalPos, track[len(track)-1].Time); err != nil {
		log.Fatalf("frame transform: %v", err)
	}
}

// reportInSensorFrame attaches the final tracked Cartesian position to a
// radar-site frame and re-expresses it in a sensor-platform frame offset
// 100 units down the x-axis, exercising the reference-frame transform
// engine (component D) on the radar filter's own output.
func reportInSensorFrame(pos [3]float64, t float64) error {
	site := frame.NewRoot("radar-site")
	sensor, err := site.NewChild("sensor-platform")
	if err != nil {
		return err
	}
	sensor.SetState(frame.DefaultStateTag, frame.State{
		P:     kinematic.Triple{X: 100, Y: 0, Z: 0},
		Units: kinematic.Radians,
		TRef:  t,
	})

	track := motion.New(site, frame.DefaultStateTag, t, motion.Payload{
		P: kinematic.Triple{X: pos[0], Y: pos[1], Z: pos[2]},
	}, kinematic.Radians, motion.Cartesian)

	inSensorFrame, err := track.Transform(sensor, frame.DefaultStateTag, false, t)
	if err != nil {
		return err
	}
	p := inSensorFrame.Payload().P
	fmt.Printf("final track position relative to sensor-platform: (%.1f, %.1f, %.1f)\n", p.X, p.Y, p.Z)
	return nil
}

// syntheticTrack produces a target moving on a straight Cartesian line,
// rendered as radar (azimuth, zenith, range, range-rate) measurements, so
// every filter variant in internal/radartrack has something to chew on.
func syntheticTrack(steps int, dt float64) []radartrack.Measurement {
	out := make([]radartrack.Measurement, steps)
	for i := 0; i < steps; i++ {
		t := float64(i) * dt
		x, y, z := 1000+20*t, 50*t, 200.0
		r := math.Sqrt(x*x + y*y + z*z)
		az := math.Atan2(y, x)
		ze := math.Acos(z / r)

		vx, vy := 20.0, 50.0
		rd := (x*vx + y*vy) / r

		// A small deterministic wobble stands in for sensor noise, so the
		// aggregation strategy sees nonzero residuals instead of the
		// degenerate all-zero sigma a perfectly straight line would give.
		jitter := 0.5 * math.Sin(3*t)

		out[i] = radartrack.Measurement{
			Time:      t,
			Azimuth:   az,
			Zenith:    ze,
			Range:     r + jitter,
			RangeRate: rd + 0.1*jitter,
			Units:     kinematic.Radians,
		}
	}
	return out
}

func runConvertedMeasurement(cfg *config.Registry, track []radartrack.Measurement, dt float64) ([3]float64, error) {
	seed := track[:min(3, len(track))]
	applied := radartrack.NewConvertedMeasurementFilter(cfg, aggregate.LeastSquares{}, seed, dt)
	f, err := estimate.NewLKF(applied, cfg)
	if err != nil {
		return [3]float64{}, err
	}
	if err := f.Initialize(dt); err != nil {
		return [3]float64{}, err
	}

	var final [3]float64
	fmt.Println("converted-measurement (LKF, Cartesian position observation):")
	for _, m := range track[len(seed):] {
		if err := f.TimeUpdate(nil); err != nil {
			return [3]float64{}, err
		}
		z := applied.PreprocessMeasurement(m)
		if err := f.MeasurementUpdate(z); err != nil {
			return [3]float64{}, err
		}
		x := f.State()
		final = [3]float64{x.At(0, 0), x.At(1, 0), x.At(2, 0)}
		fmt.Printf("  t=%.1f  pos=(%.1f, %.1f, %.1f)\n", m.Time, final[0], final[1], final[2])
	}
	return final, nil
}

func runConvertedEstimate(cfg *config.Registry, track []radartrack.Measurement, dt float64) ([3]float64, error) {
	seed := track[:min(3, len(track))]
	applied := radartrack.NewConvertedEstimateFilter(cfg, aggregate.LeastSquares{}, seed, dt)
	f, err := estimate.NewLKF(applied, cfg)
	if err != nil {
		return [3]float64{}, err
	}
	if err := f.Initialize(dt); err != nil {
		return [3]float64{}, err
	}

	var final [3]float64
	fmt.Println("converted-estimate (LKF, spherical-state observation):")
	for _, m := range track[len(seed):] {
		if err := f.TimeUpdate(nil); err != nil {
			return [3]float64{}, err
		}
		values := m.Values()
		zv := toColumn(values["azimuth"], values["zenith"], values["range"], values["rangeRate"])
		if err := f.MeasurementUpdate(zv); err != nil {
			return [3]float64{}, err
		}
		cartesian := applied.PostProcess(f.State())
		final = [3]float64{cartesian.At(0, 0), cartesian.At(1, 0), cartesian.At(2, 0)}
		fmt.Printf("  t=%.1f  pos=(%.1f, %.1f, %.1f)\n", m.Time, final[0], final[1], final[2])
	}
	return final, nil
}

func toColumn(values ...float64) *linalg.Matrix {
	m := linalg.New(len(values), 1)
	for i, v := range values {
		m.Set(i, 0, v)
	}
	return m
}

package aggregate

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample(t, v float64) Sample {
	return Sample{Time: t, Values: map[string]float64{"x": v}}
}

func TestLatestPicksMostRecentByTime(t *testing.T) {
	samples := []Sample{sample(1, 10), sample(3, 30), sample(2, 20)}
	value, _, _, err := Latest{}.Aggregate(samples)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if diff := cmp.Diff(map[string]float64{"x": 30}, value); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestLatestRejectsEmptyBuffer(t *testing.T) {
	if _, _, _, err := (Latest{}).Aggregate(nil); err == nil {
		t.Error("expected error for empty buffer")
	}
}

// "Least-squares fit" (spec.md §8): for samples exactly on a line
// y = alpha*t + beta, the estimator returns (alpha, beta) to 1e-10 and
// sigma <= 1e-10.
func TestLeastSquaresExactLineFit(t *testing.T) {
	const alpha, beta = 2.5, -1.0
	samples := make([]Sample, 0, 5)
	for i := 0.0; i < 5; i++ {
		samples = append(samples, sample(i, alpha*i+beta))
	}
	value, derivative, sigma, err := LeastSquares{}.Aggregate(samples)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if math.Abs(derivative["x"]-alpha) > 1e-10 {
		t.Errorf("slope = %v, want %v", derivative["x"], alpha)
	}
	lastTime := samples[len(samples)-1].Time
	gotIntercept := value["x"] - derivative["x"]*lastTime
	if math.Abs(gotIntercept-beta) > 1e-10 {
		t.Errorf("intercept = %v, want %v", gotIntercept, beta)
	}
	if sigma["x"] > 1e-10 {
		t.Errorf("sigma = %v, want <= 1e-10", sigma["x"])
	}
}

func TestLeastSquaresRequiresAtLeastTwoSamplesPerComponent(t *testing.T) {
	samples := []Sample{sample(0, 1)}
	if _, _, _, err := (LeastSquares{}).Aggregate(samples); err == nil {
		t.Error("expected error for single-sample component")
	}
}

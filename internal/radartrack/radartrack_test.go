package radartrack

import (
	"math"
	"testing"

	"github.com/banshee-data/kinestate/internal/aggregate"
	"github.com/banshee-data/kinestate/internal/config"
	"github.com/banshee-data/kinestate/internal/kinematic"
	"github.com/stretchr/testify/require"
)

// "Converted radar measurement" (spec.md §8): az=0, ze=pi/2, r=1000
// preprocesses to Cartesian position (1000, 0, 0).
func TestConvertedMeasurementPreprocessZenithPlane(t *testing.T) {
	f := NewConvertedMeasurementFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	m := Measurement{Azimuth: 0, Zenith: math.Pi / 2, Range: 1000, Units: kinematic.Radians}
	pos := f.PreprocessMeasurement(m)
	require.InDelta(t, 1000, pos.At(0, 0), 1e-9, "x")
	require.InDelta(t, 0, pos.At(1, 0), 1e-9, "y")
	require.InDelta(t, 0, pos.At(2, 0), 1e-9, "z")
}

// "Radar measurement Jacobian" (spec.md §8): at state (1,0,0,0,...,0), the
// range row is (1,0,0,0,0,0,0,0,0).
func TestMeasurementJacobianRangeRowAtAxisPoint(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	x := vec9([stateDim]float64{1, 0, 0, 0, 0, 0, 0, 0, 0})
	h, err := f.MeasurementJacobian(x)
	require.NoError(t, err)
	want := [stateDim]float64{1, 0, 0, 0, 0, 0, 0, 0, 0}
	for j, w := range want {
		require.InDeltaf(t, w, h.At(2, j), 1e-12, "H[range][%d]", j)
	}
}

func TestMeasurementModelAtAxisPoint(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	x := vec9([stateDim]float64{1, 0, 0, 0, 0, 0, 0, 0, 0})
	y, err := f.MeasurementModel(x)
	require.NoError(t, err)
	require.InDelta(t, 0, y.At(0, 0), 1e-12, "azimuth")
	require.InDelta(t, math.Pi/2, y.At(1, 0), 1e-12, "zenith")
	require.InDelta(t, 1, y.At(2, 0), 1e-12, "range")
	require.InDelta(t, 0, y.At(3, 0), 1e-12, "range-rate")
}

func TestDynamicsJacobianIsBlockTriangular(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	a, err := f.DynamicsJacobian(2, nil)
	require.NoError(t, err)
	require.InDelta(t, 2, a.At(idxP0, idxV0), 1e-12, "F[x][xd]")
	require.InDelta(t, 2, a.At(idxP0, idxA0), 1e-12, "F[x][xdd]")
	require.InDelta(t, 2, a.At(idxV0, idxA0), 1e-12, "F[xd][xdd]")
	require.InDelta(t, 1, a.At(idxA0, idxA0), 1e-12, "F[xdd][xdd]")
}

func buffer() []Measurement {
	return []Measurement{
		{Time: 0, Azimuth: 0, Zenith: math.Pi / 2, Range: 1000, RangeRate: 5, Units: kinematic.Radians},
		{Time: 1, Azimuth: 0.01, Zenith: math.Pi/2 + 0.01, Range: 1005, RangeRate: 5, Units: kinematic.Radians},
		{Time: 2, Azimuth: 0.02, Zenith: math.Pi/2 + 0.02, Range: 1010, RangeRate: 5, Units: kinematic.Radians},
	}
}

func TestTrackFilterInitializeProducesFiniteCartesianState(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.LeastSquares{}, buffer(), 1)
	x0, p0, q0, r0, err := f.Initialize()
	require.NoError(t, err)
	require.Zero(t, x0.At(idxA0, 0))
	require.Zero(t, x0.At(idxA1, 0))
	require.Zero(t, x0.At(idxA2, 0))
	for i := 0; i < stateDim; i++ {
		require.Falsef(t, math.IsNaN(x0.At(i, 0)), "x0[%d] is NaN", i)
	}
	rows, cols := p0.Dims()
	require.Equal(t, stateDim, rows)
	require.Equal(t, stateDim, cols)
	rows, cols = q0.Dims()
	require.Equal(t, stateDim, rows)
	require.Equal(t, stateDim, cols)
	rows, cols = r0.Dims()
	require.Equal(t, measurementDim, rows)
	require.Equal(t, measurementDim, cols)
}

func TestTrackFilterInitializeRejectsEmptyBuffer(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.LeastSquares{}, nil, 1)
	_, _, _, _, err := f.Initialize()
	require.Error(t, err)
}

func TestConvertedMeasurementMeasurementModelIsPositionSelection(t *testing.T) {
	f := NewConvertedMeasurementFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	x := vec9([stateDim]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	y, err := f.MeasurementModel(x)
	require.NoError(t, err)
	require.InDelta(t, 1, y.At(0, 0), 1e-12, "x")
	require.InDelta(t, 2, y.At(1, 0), 1e-12, "y")
	require.InDelta(t, 3, y.At(2, 0), 1e-12, "z")
}

func TestConvertedMeasurementInitialize(t *testing.T) {
	f := NewConvertedMeasurementFilter(config.Empty(), aggregate.LeastSquares{}, buffer(), 1)
	_, p0, _, r0, err := f.Initialize()
	require.NoError(t, err)
	rows, cols := p0.Dims()
	require.Equal(t, stateDim, rows)
	require.Equal(t, stateDim, cols)
	rows, cols = r0.Dims()
	require.Equal(t, 3, rows)
	require.Equal(t, 3, cols)
}

func TestConvertedEstimateMeasurementModelSelectsSphericalComponents(t *testing.T) {
	f := NewConvertedEstimateFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	x := vec9([stateDim]float64{0.1, 0.2, 1000, 0.3, 0.4, 5, 0, 0, 0})
	y, err := f.MeasurementModel(x)
	require.NoError(t, err)
	require.InDelta(t, 0.1, y.At(0, 0), 1e-12, "azimuth")
	require.InDelta(t, 0.2, y.At(1, 0), 1e-12, "zenith")
	require.InDelta(t, 1000, y.At(2, 0), 1e-12, "range")
	require.InDelta(t, 5, y.At(3, 0), 1e-12, "range-rate")
}

func TestConvertedEstimateInitializeZeroFillsRatesAndAcceleration(t *testing.T) {
	f := NewConvertedEstimateFilter(config.Empty(), aggregate.LeastSquares{}, buffer(), 1)
	x0, _, _, _, err := f.Initialize()
	require.NoError(t, err)
	require.Zero(t, x0.At(sIdxAzd, 0))
	require.Zero(t, x0.At(sIdxZed, 0))
	for _, i := range []int{6, 7, 8} {
		require.Zerof(t, x0.At(i, 0), "acceleration at index %d", i)
	}
}

func TestConvertedEstimatePostProcessRoundTripsZenithPlane(t *testing.T) {
	f := NewConvertedEstimateFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	xh := vec9([stateDim]float64{0, math.Pi / 2, 1000, 0, 0, 0, 0, 0, 0})
	out := f.PostProcess(xh)
	require.InDelta(t, 1000, out.At(idxP0, 0), 1e-9, "x")
	require.InDelta(t, 0, out.At(idxP1, 0), 1e-9, "y")
	require.InDelta(t, 0, out.At(idxP2, 0), 1e-9, "z")
}

func TestNewTrackFilterAssignsTrackID(t *testing.T) {
	f := NewTrackFilter(config.Empty(), aggregate.Latest{}, nil, 1)
	require.Regexp(t, `^trk_[0-9a-f-]{36}$`, f.TrackID)
}

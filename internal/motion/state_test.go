package motion

import (
	"math"
	"testing"

	"github.com/banshee-data/kinestate/internal/frame"
	"github.com/banshee-data/kinestate/internal/kinematic"
)

func TestSetPayloadClearsOwnCache(t *testing.T) {
	root := frame.NewRoot("world")
	child, _ := root.NewChild("child")
	m := New(child, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 1}}, kinematic.Radians, Cartesian)

	if _, err := m.Transform(root, frame.DefaultStateTag, false, 0); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if m.cache == nil {
		t.Fatal("expected cache to be populated")
	}
	m.SetPayload(0, Payload{P: kinematic.Triple{X: 2}})
	if m.cache != nil {
		t.Error("expected SetPayload to clear the cache")
	}
}

func TestToCoordinateSystemRoundTrip(t *testing.T) {
	m := New(nil, frame.DefaultStateTag, 0, Payload{
		P: kinematic.Triple{X: 100, Y: 50, Z: -30},
		V: kinematic.Triple{X: 1, Y: -2, Z: 0.5},
		A: kinematic.Triple{X: 0.1, Y: 0.2, Z: -0.05},
	}, kinematic.Radians, Cartesian)

	sph := m.ToCoordinateSystem(Spherical)
	back := sph.ToCoordinateSystem(Cartesian)

	want, got := m.Payload(), back.Payload()
	if !almostEqualTriple(want.P, got.P, 1e-6) {
		t.Errorf("P round trip: got %+v, want %+v", got.P, want.P)
	}
	if !almostEqualTriple(want.V, got.V, 1e-6) {
		t.Errorf("V round trip: got %+v, want %+v", got.V, want.V)
	}
	if !almostEqualTriple(want.A, got.A, 1e-4) {
		t.Errorf("A round trip: got %+v, want %+v", got.A, want.A)
	}
}

// Scenario 1 (spec.md §8): az=0, ze=pi/2, r=1000 -> preprocessed position
// (1000, 0, 0).
func TestSphericalToCartesianScenario1(t *testing.T) {
	sph := New(nil, frame.DefaultStateTag, 0, Payload{
		P: kinematic.Triple{X: 0, Y: math.Pi / 2, Z: 1000},
	}, kinematic.Radians, Spherical)

	cart := sph.ToCoordinateSystem(Cartesian)
	want := kinematic.Triple{X: 1000, Y: 0, Z: 0}
	if !almostEqualTriple(cart.Payload().P, want, 1e-9) {
		t.Errorf("P = %+v, want %+v", cart.Payload().P, want)
	}
}

func TestSphericalZeroRangeYieldsZeroDerivatives(t *testing.T) {
	pos, vel, acc := cartesianToSpherical(kinematic.Triple{}, kinematic.Triple{X: 1}, kinematic.Triple{})
	if pos != (sphericalTriple{}) || vel != (sphericalTriple{}) || acc != (sphericalTriple{}) {
		t.Errorf("expected zero components at r=0, got pos=%+v vel=%+v acc=%+v", pos, vel, acc)
	}
}

func TestEnableCachingFalseClearsCache(t *testing.T) {
	root := frame.NewRoot("world")
	child, _ := root.NewChild("child")
	m := New(child, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 1}}, kinematic.Radians, Cartesian)

	if _, err := m.Transform(root, frame.DefaultStateTag, false, 0); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	m.EnableCaching(false)
	if m.cache != nil {
		t.Error("expected EnableCaching(false) to clear the cache")
	}
}

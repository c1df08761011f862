package motion

import (
	"math"
	"testing"

	"github.com/banshee-data/kinestate/internal/frame"
	"github.com/banshee-data/kinestate/internal/kinematic"
)

func almostEqualTriple(a, b kinematic.Triple, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

// Scenario 3 (spec.md §8): frame F at origin, zero rotations; motion state
// p=(1,2,3), v=(0,0,0) in F transformed to F returns (1,2,3), (0,0,0).
func TestTransformIdentity(t *testing.T) {
	root := frame.NewRoot("world")
	m := New(root, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 1, Y: 2, Z: 3}}, kinematic.Radians, Cartesian)

	out, err := m.Transform(root, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	pl := out.Payload()
	if !almostEqualTriple(pl.P, kinematic.Triple{X: 1, Y: 2, Z: 3}, 1e-12) {
		t.Errorf("P = %+v, want (1,2,3)", pl.P)
	}
	if !almostEqualTriple(pl.V, kinematic.Triple{}, 1e-12) {
		t.Errorf("V = %+v, want zero", pl.V)
	}
}

// Scenario 4: parent frame at origin; child rotated yaw=90deg, otherwise
// coincident; point p_child=(1,0,0) -> p_parent=(0,1,0).
func TestTransformChildToParentWithRotation(t *testing.T) {
	root := frame.NewRoot("world")
	child, err := root.NewChild("vehicle")
	if err != nil {
		t.Fatalf("NewChild: %v", err)
	}
	child.SetState(frame.DefaultStateTag, frame.State{E: kinematic.Triple{Z: 90}, Units: kinematic.Degrees})

	m := New(child, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 1}}, kinematic.Radians, Cartesian)
	out, err := m.Transform(root, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !almostEqualTriple(out.Payload().P, kinematic.Triple{Y: 1}, 1e-12) {
		t.Errorf("P = %+v, want (0,1,0)", out.Payload().P)
	}
}

// Scenario 5: child yaw-rate = 1 rad/s about z, coincident origin;
// stationary point in child at (1,0,0) -> velocity in parent (0,1,0).
func TestTransformRotatingFrameVelocityTransport(t *testing.T) {
	root := frame.NewRoot("world")
	child, err := root.NewChild("vehicle")
	if err != nil {
		t.Fatalf("NewChild: %v", err)
	}
	child.SetState(frame.DefaultStateTag, frame.State{EDot: kinematic.Triple{Z: 1}})

	m := New(child, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 1}}, kinematic.Radians, Cartesian)
	out, err := m.Transform(root, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !almostEqualTriple(out.Payload().V, kinematic.Triple{Y: 1}, 1e-12) {
		t.Errorf("V = %+v, want (0,1,0)", out.Payload().V)
	}
}

func buildTestTree(t *testing.T) (root, a, b *frame.Frame) {
	t.Helper()
	root = frame.NewRoot("world")
	var err error
	a, err = root.NewChild("a")
	if err != nil {
		t.Fatalf("NewChild(a): %v", err)
	}
	a.SetState(frame.DefaultStateTag, frame.State{
		P: kinematic.Triple{X: 10, Y: -3, Z: 2},
		V: kinematic.Triple{X: 1},
		E: kinematic.Triple{X: 0.3, Y: -0.2, Z: 1.1},
	})
	b, err = a.NewChild("b")
	if err != nil {
		t.Fatalf("NewChild(b): %v", err)
	}
	b.SetState(frame.DefaultStateTag, frame.State{
		P:    kinematic.Triple{X: -1, Y: 4, Z: 0.5},
		V:    kinematic.Triple{Y: 0.5},
		A:    kinematic.Triple{Z: 0.1},
		E:    kinematic.Triple{Z: 0.4},
		EDot: kinematic.Triple{X: 0.05},
	})
	return root, a, b
}

func TestTransformRoundTripRigid(t *testing.T) {
	_, _, b := buildTestTree(t)
	m := New(b, frame.DefaultStateTag, 5, Payload{
		P: kinematic.Triple{X: 3, Y: -1, Z: 7},
		V: kinematic.Triple{X: 0.2, Y: 0.1, Z: -0.3},
		A: kinematic.Triple{X: 0.01},
	}, kinematic.Radians, Cartesian)

	root := b.Root()
	toRoot, err := m.Transform(root, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform to root: %v", err)
	}
	back, err := toRoot.Transform(b, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform back to b: %v", err)
	}

	orig := m.Payload()
	got := back.Payload()
	for _, pair := range []struct {
		name       string
		want, have kinematic.Triple
	}{
		{"P", orig.P, got.P},
		{"V", orig.V, got.V},
		{"A", orig.A, got.A},
	} {
		if !almostEqualTriple(pair.want, pair.have, 1e-9) {
			t.Errorf("round trip %s: got %+v, want %+v", pair.name, pair.have, pair.want)
		}
	}
}

func TestTransformRoundTripTemporal(t *testing.T) {
	_, _, b := buildTestTree(t)
	m := New(b, frame.DefaultStateTag, 0, Payload{
		P: kinematic.Triple{X: 3, Y: -1, Z: 7},
		V: kinematic.Triple{X: 0.2, Y: 0.1, Z: -0.3},
	}, kinematic.Radians, Cartesian)

	root := b.Root()
	toRoot, err := m.Transform(root, frame.DefaultStateTag, true, 1.0)
	if err != nil {
		t.Fatalf("Transform to root: %v", err)
	}
	back, err := toRoot.Transform(b, frame.DefaultStateTag, true, 0.0)
	if err != nil {
		t.Fatalf("Transform back to b: %v", err)
	}
	if !almostEqualTriple(m.Payload().P, back.Payload().P, 1e-6) {
		t.Errorf("temporal round trip P: got %+v, want %+v", back.Payload().P, m.Payload().P)
	}
}

func TestCacheEquivalence(t *testing.T) {
	_, _, b := buildTestTree(t)
	root := b.Root()

	cached := NewWithCaching(b, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 5, Y: 6, Z: 7}}, kinematic.Radians, Cartesian, true)
	uncached := NewWithCaching(b, frame.DefaultStateTag, 0, Payload{P: kinematic.Triple{X: 5, Y: 6, Z: 7}}, kinematic.Radians, Cartesian, false)

	want, err := uncached.Transform(root, frame.DefaultStateTag, false, 0)
	if err != nil {
		t.Fatalf("Transform (uncached): %v", err)
	}
	_, err = cached.Transform(root, frame.DefaultStateTag, false, 0) // populate cache
	if err != nil {
		t.Fatalf("Transform (populate cache): %v", err)
	}
	got, err := cached.Transform(root, frame.DefaultStateTag, false, 0) // should hit cache
	if err != nil {
		t.Fatalf("Transform (cache hit): %v", err)
	}
	if got.Payload() != want.Payload() {
		t.Errorf("cached result %+v != uncached result %+v", got.Payload(), want.Payload())
	}

	if cached.cache == nil {
		t.Fatal("expected cache to be populated")
	}
	b.SetState(frame.DefaultStateTag, frame.State{})
	if cached.cache != nil {
		t.Error("expected ancestor mutation to clear cache")
	}
}

func TestDetachClearsFrame(t *testing.T) {
	root := frame.NewRoot("world")
	child, _ := root.NewChild("child")
	m := New(child, frame.DefaultStateTag, 0, Payload{}, kinematic.Radians, Cartesian)

	child.DestroySubtree()

	if !m.Detached() {
		t.Error("expected motion state to be detached after subtree destruction")
	}
	if _, err := m.Transform(root, frame.DefaultStateTag, false, 0); err == nil {
		t.Error("expected Transform on a detached motion state to fail")
	}
}

package frame

import (
	"errors"
	"testing"

	"github.com/banshee-data/kinestate/internal/kinematic"
	"github.com/banshee-data/kinestate/internal/kinerr"
)

func TestNewChildNameUniqueness(t *testing.T) {
	root := NewRoot("root")
	if _, err := root.NewChild("a"); err != nil {
		t.Fatalf("NewChild(a): %v", err)
	}
	if _, err := root.NewChild("a"); !errors.Is(err, kinerr.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported on duplicate name, got %v", err)
	}
}

func TestParentChildInvariant(t *testing.T) {
	root := NewRoot("root")
	child, err := root.NewChild("child")
	if err != nil {
		t.Fatalf("NewChild: %v", err)
	}
	if child.Parent() != root {
		t.Error("child.Parent() != root")
	}
	found := false
	for _, c := range root.Children() {
		if c == child {
			found = true
		}
	}
	if !found {
		t.Error("root.Children() does not contain child")
	}
}

func TestRemoveChildClearsParent(t *testing.T) {
	root := NewRoot("root")
	child, _ := root.NewChild("child")
	if err := root.RemoveChild(child); err != nil {
		t.Fatalf("RemoveChild: %v", err)
	}
	if child.Parent() != nil {
		t.Error("child.Parent() should be nil after removal")
	}
	for _, c := range root.Children() {
		if c == child {
			t.Error("root still lists removed child")
		}
	}
}

func TestFindByNameSearchesSubtree(t *testing.T) {
	root := NewRoot("root")
	a, _ := root.NewChild("a")
	b, _ := a.NewChild("b")

	found, ok := root.FindByName("b")
	if !ok || found != b {
		t.Fatalf("FindByName(b) = %v, %v, want %v, true", found, ok, b)
	}
	_, ok = root.FindByName("nonexistent")
	if ok {
		t.Error("FindByName(nonexistent) should report not found")
	}
}

func TestLeastCommonAncestorSameTree(t *testing.T) {
	root := NewRoot("root")
	a, _ := root.NewChild("a")
	b, _ := root.NewChild("b")
	aa, _ := a.NewChild("aa")

	lca, lca2, err := LeastCommonAncestor(aa, b)
	if err != nil {
		t.Fatalf("LeastCommonAncestor: %v", err)
	}
	if lca != root || lca2 != root {
		t.Errorf("lca = %v, %v, want root", lca.Name(), lca2.Name())
	}
}

func TestLeastCommonAncestorCrossTreeByName(t *testing.T) {
	root1 := NewRoot("world")
	veh1, _ := root1.NewChild("vehicle")
	sensor1, _ := veh1.NewChild("sensor")

	root2 := NewRoot("other-world")
	veh2, _ := root2.NewChild("vehicle")

	ancA, ancB, err := LeastCommonAncestor(sensor1, veh2)
	if err != nil {
		t.Fatalf("LeastCommonAncestor: %v", err)
	}
	if ancA != veh1 {
		t.Errorf("ancA = %v, want vehicle (tree1)", ancA.Name())
	}
	if ancB != veh2 {
		t.Errorf("ancB = %v, want vehicle (tree2)", ancB.Name())
	}
}

func TestLeastCommonAncestorTreeMismatch(t *testing.T) {
	root1 := NewRoot("world1")
	root2 := NewRoot("world2")
	_, _, err := LeastCommonAncestor(root1, root2)
	if !errors.Is(err, kinerr.ErrTreeMismatch) {
		t.Fatalf("expected ErrTreeMismatch, got %v", err)
	}
}

func TestDestroySubtreeDetachesMotionStates(t *testing.T) {
	root := NewRoot("root")
	child, _ := root.NewChild("child")

	attached := &recordingAttachable{}
	child.Attach(attached)

	child.DestroySubtree()

	if !attached.detached {
		t.Error("expected DetachFrame to be called")
	}
	if !child.Destroyed() {
		t.Error("expected child to be marked destroyed")
	}
	if child.Parent() != nil {
		t.Error("expected child parent to be nil after destruction")
	}
}

func TestSetStateInvalidatesSubtreeCaches(t *testing.T) {
	root := NewRoot("root")
	child, _ := root.NewChild("child")
	grandchild, _ := child.NewChild("grandchild")

	a1 := &recordingAttachable{}
	a2 := &recordingAttachable{}
	child.Attach(a1)
	grandchild.Attach(a2)

	child.SetState(DefaultStateTag, State{})

	if !a1.invalidated {
		t.Error("expected direct attachment to be invalidated")
	}
	if !a2.invalidated {
		t.Error("expected descendant attachment to be invalidated")
	}
}

func TestStateFallsBackToDefaultForUnknownTag(t *testing.T) {
	root := NewRoot("root")
	s, ok := root.State("scenario-7")
	if !ok {
		t.Fatal("expected fallback to default state")
	}
	_ = s
}

func TestMergeRequiresNonRotating(t *testing.T) {
	root := NewRoot("root")
	a, _ := root.NewChild("a")
	b, _ := root.NewChild("b")
	a.SetState(DefaultStateTag, State{E: kinematic.Triple{X: 1}})

	if _, err := Merge(a, b, "merged", false); !errors.Is(err, kinerr.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestMergeComposesTranslation(t *testing.T) {
	root := NewRoot("root")
	a, _ := root.NewChild("a")
	b, _ := root.NewChild("b")
	a.SetState(DefaultStateTag, State{P: kinematic.Triple{X: 1, Y: 2, Z: 3}, V: kinematic.Triple{X: 1}})
	b.SetState(DefaultStateTag, State{P: kinematic.Triple{X: 4, Y: 0, Z: -1}, A: kinematic.Triple{Z: 2}})

	merged, err := Merge(a, b, "merged", false)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Name() != "merged" {
		t.Errorf("merged.Name() = %q, want merged", merged.Name())
	}
	s, _ := merged.State(DefaultStateTag)
	if s.P != (kinematic.Triple{X: 5, Y: 2, Z: 2}) || s.V != (kinematic.Triple{X: 1}) || s.A != (kinematic.Triple{Z: 2}) {
		t.Errorf("merged state P=%+v V=%+v A=%+v, want P=(5,2,2) V=(1,0,0) A=(0,0,2)", s.P, s.V, s.A)
	}
}

func TestCloneSubtreePreservesStructure(t *testing.T) {
	root := NewRoot("root")
	a, _ := root.NewChild("a")
	_, _ = a.NewChild("b")

	clone := root.CloneSubtree()
	if clone.Name() != "root" {
		t.Fatalf("clone name = %q", clone.Name())
	}
	if len(clone.Children()) != 1 {
		t.Fatalf("clone children = %d, want 1", len(clone.Children()))
	}
	if found, ok := clone.FindByName("b"); !ok || found.Parent().Name() != "a" {
		t.Errorf("clone structure mismatch: found=%v ok=%v", found, ok)
	}
}

type recordingAttachable struct {
	invalidated bool
	detached    bool
}

func (r *recordingAttachable) InvalidateTransformCache() { r.invalidated = true }
func (r *recordingAttachable) DetachFrame()              { r.detached = true }

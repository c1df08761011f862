package timeline

import "testing"

type sample struct {
	ID   string
	Time float64
	Val  int
}

func newTestContainer(maxSize int, deleted *[]int) *Container[string, sample] {
	var deleter func(*sample)
	if deleted != nil {
		deleter = func(s *sample) { *deleted = append(*deleted, s.Val) }
	}
	return New(maxSize, func(s *sample) string { return s.ID }, func(s *sample) float64 { return s.Time }, deleter)
}

func TestAddOrdersByTime(t *testing.T) {
	c := newTestContainer(0, nil)
	c.Add(&sample{ID: "a", Time: 3, Val: 3})
	c.Add(&sample{ID: "a", Time: 1, Val: 1})
	c.Add(&sample{ID: "a", Time: 2, Val: 2})

	all := c.GetAll("a")
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []int{1, 2, 3} {
		if all[i].Val != want {
			t.Errorf("all[%d].Val = %d, want %d", i, all[i].Val, want)
		}
	}
}

func TestAddReplacesExactTime(t *testing.T) {
	var deleted []int
	c := newTestContainer(0, &deleted)
	c.Add(&sample{ID: "a", Time: 1, Val: 1})
	c.Add(&sample{ID: "a", Time: 1, Val: 2})

	all := c.GetAll("a")
	if len(all) != 1 {
		t.Fatalf("len = %d, want 1", len(all))
	}
	if all[0].Val != 2 {
		t.Errorf("Val = %d, want 2 (replaced)", all[0].Val)
	}
	if len(deleted) != 1 || deleted[0] != 1 {
		t.Errorf("deleted = %v, want [1]", deleted)
	}
}

func TestCapacityEviction(t *testing.T) {
	var deleted []int
	c := newTestContainer(2, &deleted)
	c.Add(&sample{ID: "a", Time: 1, Val: 1})
	c.Add(&sample{ID: "a", Time: 2, Val: 2})
	c.Add(&sample{ID: "a", Time: 3, Val: 3})

	if got := c.SizeOf("a"); got != 2 {
		t.Fatalf("SizeOf = %d, want 2", got)
	}
	all := c.GetAll("a")
	if all[0].Val != 2 || all[1].Val != 3 {
		t.Errorf("all = %+v, want [2,3]", all)
	}
	if len(deleted) != 1 || deleted[0] != 1 {
		t.Errorf("deleted = %v, want [1]", deleted)
	}
}

func TestGetLatestAndMostRecentAvailable(t *testing.T) {
	c := newTestContainer(0, nil)
	for _, tm := range []float64{1, 2, 5} {
		c.Add(&sample{ID: "a", Time: tm, Val: int(tm)})
	}

	latest, ok := c.GetLatest("a")
	if !ok || latest.Val != 5 {
		t.Errorf("GetLatest = %+v, ok=%v, want Val=5", latest, ok)
	}

	mra, ok := c.GetMostRecentAvailable("a", 3)
	if !ok || mra.Val != 2 {
		t.Errorf("GetMostRecentAvailable(3) = %+v, want Val=2", mra)
	}

	mraExact, ok := c.GetMostRecentAvailable("a", 5)
	if !ok || mraExact.Val != 5 {
		t.Errorf("GetMostRecentAvailable(5) = %+v, want Val=5", mraExact)
	}

	_, ok = c.GetMostRecentAvailable("a", 0)
	if ok {
		t.Error("GetMostRecentAvailable(0) should report not found")
	}
}

func TestRangeQueryConsistency(t *testing.T) {
	c := newTestContainer(0, nil)
	for _, tm := range []float64{1, 2, 3, 4, 5} {
		c.Add(&sample{ID: "a", Time: tm, Val: int(tm)})
	}
	got := c.Get("a", 2, 4)
	all := c.GetAll("a")

	var wantSubset []*sample
	for _, e := range all {
		if e.Time >= 2 && e.Time <= 4 {
			wantSubset = append(wantSubset, e)
		}
	}
	if len(got) != len(wantSubset) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(wantSubset))
	}
	for i := range got {
		if got[i] != wantSubset[i] {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], wantSubset[i])
		}
	}
}

func TestDeleteRangeReturnsFollowingEntry(t *testing.T) {
	c := newTestContainer(0, nil)
	for _, tm := range []float64{1, 2, 3, 4} {
		c.Add(&sample{ID: "a", Time: tm, Val: int(tm)})
	}
	next, ok := c.Delete("a", 2, 3)
	if !ok || next.Val != 4 {
		t.Errorf("Delete(2,3) next = %+v, ok=%v, want Val=4", next, ok)
	}
	if c.SizeOf("a") != 2 {
		t.Errorf("SizeOf = %d, want 2", c.SizeOf("a"))
	}
}

func TestDeleteEntryByIdentity(t *testing.T) {
	c := newTestContainer(0, nil)
	e := &sample{ID: "a", Time: 1, Val: 1}
	c.Add(e)
	c.Add(&sample{ID: "a", Time: 2, Val: 2})

	if !c.DeleteEntry(e) {
		t.Fatal("DeleteEntry returned false")
	}
	if c.SizeOf("a") != 1 {
		t.Errorf("SizeOf = %d, want 1", c.SizeOf("a"))
	}
}

func TestRemoveReleasesOwnershipWithoutDeleter(t *testing.T) {
	var deleted []int
	c := newTestContainer(0, &deleted)
	c.Add(&sample{ID: "a", Time: 1, Val: 1})

	removed := c.Remove("a", 0, 10)
	if len(removed) != 1 || removed[0].Val != 1 {
		t.Fatalf("Remove = %+v, want 1 entry", removed)
	}
	if len(deleted) != 0 {
		t.Errorf("deleter should not have been invoked by Remove, got %v", deleted)
	}
	if c.SizeOf("a") != 0 {
		t.Errorf("SizeOf = %d, want 0", c.SizeOf("a"))
	}
}

func TestEmptyAndSize(t *testing.T) {
	c := newTestContainer(0, nil)
	if !c.Empty() {
		t.Error("expected empty container")
	}
	c.Add(&sample{ID: "a", Time: 1, Val: 1})
	c.Add(&sample{ID: "b", Time: 1, Val: 2})
	if c.Empty() {
		t.Error("expected non-empty container")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

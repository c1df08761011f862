package timeline

import (
	"sort"
	"sync"
)

// Container is a generic map from an id to a time-ordered sequence of
// entries, bounded to maxSize entries per id. Concurrent add/delete/query
// are guarded by an internal mutex per spec.md §5 ("the sorted entry
// container is not inherently thread-safe — a wrapping mutex must guard
// concurrent add/delete/query").
type Container[ID comparable, T any] struct {
	mu      sync.Mutex
	maxSize int
	idOf    func(*T) ID
	timeOf  func(*T) float64
	deleter func(*T)
	entries map[ID][]*T
}

// New constructs a Container bounded to maxSize entries per id. deleter, if
// non-nil, is invoked on every entry evicted by capacity pressure, replaced
// by Add, or removed by Delete — mirroring the original's "configured
// deleter" (spec.md §4.B). maxSize <= 0 means unbounded.
func New[ID comparable, T any](maxSize int, idOf func(*T) ID, timeOf func(*T) float64, deleter func(*T)) *Container[ID, T] {
	return &Container[ID, T]{
		maxSize: maxSize,
		idOf:    idOf,
		timeOf:  timeOf,
		deleter: deleter,
		entries: make(map[ID][]*T),
	}
}

// lowerBound returns the index of the first entry in seq with time >= t.
func (c *Container[ID, T]) lowerBound(seq []*T, t float64) int {
	return sort.Search(len(seq), func(i int) bool {
		return c.timeOf(seq[i]) >= t
	})
}

// Add places entry under id = idOf(entry) at the position given by
// lower-bound on time = timeOf(entry). An existing entry at the exact same
// (id, time) is replaced (the old one passed to the deleter). After
// insertion, if the id's sequence exceeds maxSize, the oldest entries are
// evicted from the front (also passed to the deleter).
func (c *Container[ID, T]) Add(entry *T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.idOf(entry)
	t := c.timeOf(entry)
	seq := c.entries[id]
	idx := c.lowerBound(seq, t)

	if idx < len(seq) && c.timeOf(seq[idx]) == t {
		old := seq[idx]
		seq[idx] = entry
		if c.deleter != nil {
			c.deleter(old)
		}
	} else {
		seq = append(seq, nil)
		copy(seq[idx+1:], seq[idx:])
		seq[idx] = entry
	}

	if c.maxSize > 0 {
		for len(seq) > c.maxSize {
			old := seq[0]
			seq = seq[1:]
			if c.deleter != nil {
				c.deleter(old)
			}
		}
	}
	c.entries[id] = seq
}

// GetLatest returns the entry with the greatest time for id.
func (c *Container[ID, T]) GetLatest(id ID) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	if len(seq) == 0 {
		return nil, false
	}
	return seq[len(seq)-1], true
}

// GetMostRecentAvailable returns the entry with the greatest time <= t, or
// false if no such entry exists.
func (c *Container[ID, T]) GetMostRecentAvailable(id ID, t float64) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	idx := c.lowerBound(seq, t)
	if idx < len(seq) && c.timeOf(seq[idx]) == t {
		return seq[idx], true
	}
	if idx == 0 {
		return nil, false
	}
	return seq[idx-1], true
}

// Get returns the entries for id with t0 <= time <= t1 (inclusive on both
// ends), oldest first.
func (c *Container[ID, T]) Get(id ID, t0, t1 float64) []*T {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	lo := c.lowerBound(seq, t0)
	hi := sort.Search(len(seq), func(i int) bool {
		return c.timeOf(seq[i]) > t1
	})
	if lo >= hi {
		return nil
	}
	out := make([]*T, hi-lo)
	copy(out, seq[lo:hi])
	return out
}

// GetAll returns every entry for id, oldest first.
func (c *Container[ID, T]) GetAll(id ID) []*T {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	out := make([]*T, len(seq))
	copy(out, seq)
	return out
}

// Delete erases entries for id with t0 <= time <= t1 (calling the deleter
// on each), and returns the entry that immediately follows the deleted
// range, if any.
func (c *Container[ID, T]) Delete(id ID, t0, t1 float64) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	lo := c.lowerBound(seq, t0)
	hi := sort.Search(len(seq), func(i int) bool {
		return c.timeOf(seq[i]) > t1
	})
	if lo >= hi {
		if lo < len(seq) {
			return seq[lo], true
		}
		return nil, false
	}
	if c.deleter != nil {
		for _, e := range seq[lo:hi] {
			c.deleter(e)
		}
	}
	seq = append(seq[:lo], seq[hi:]...)
	c.entries[id] = seq
	if lo < len(seq) {
		return seq[lo], true
	}
	return nil, false
}

// DeleteEntry erases a single entry by pointer identity, calling the
// deleter on it. Reports whether the entry was found.
func (c *Container[ID, T]) DeleteEntry(entry *T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.idOf(entry)
	seq := c.entries[id]
	for i, e := range seq {
		if e == entry {
			c.entries[id] = append(seq[:i], seq[i+1:]...)
			if c.deleter != nil {
				c.deleter(e)
			}
			return true
		}
	}
	return false
}

// Remove erases entries for id with t0 <= time <= t1 without invoking the
// deleter, releasing ownership to the caller via the returned slice. This
// is the "removing without deleting" distinction in spec.md §4.B.
func (c *Container[ID, T]) Remove(id ID, t0, t1 float64) []*T {
	c.mu.Lock()
	defer c.mu.Unlock()
	seq := c.entries[id]
	lo := c.lowerBound(seq, t0)
	hi := sort.Search(len(seq), func(i int) bool {
		return c.timeOf(seq[i]) > t1
	})
	if lo >= hi {
		return nil
	}
	removed := make([]*T, hi-lo)
	copy(removed, seq[lo:hi])
	c.entries[id] = append(seq[:lo], seq[hi:]...)
	return removed
}

// Size returns the total entry count across all ids.
func (c *Container[ID, T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, seq := range c.entries {
		n += len(seq)
	}
	return n
}

// SizeOf returns the entry count for id.
func (c *Container[ID, T]) SizeOf(id ID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[id])
}

// Empty reports whether the container holds no entries for any id.
func (c *Container[ID, T]) Empty() bool {
	return c.Size() == 0
}

// Triple is the (id, time, entry) unit yielded by All.
type Triple[ID comparable, T any] struct {
	ID    ID
	Time  float64
	Entry *T
}

// All returns every (id, time, entry) triple across the container. Order
// across distinct ids is unspecified; entries within an id are ordered by
// time.
func (c *Container[ID, T]) All() []Triple[ID, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Triple[ID, T], 0, len(c.entries))
	for id, seq := range c.entries {
		for _, e := range seq {
			out = append(out, Triple[ID, T]{ID: id, Time: c.timeOf(e), Entry: e})
		}
	}
	return out
}

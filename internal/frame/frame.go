package frame

import (
	"fmt"
	"sync"

	"github.com/banshee-data/kinestate/internal/kinerr"
)

// Attachable is implemented by anything that registers itself with a Frame
// to receive cache-invalidation and detachment notifications (component D
// motion states implement this). Kept as a small interface here, rather
// than importing the motion package, to avoid a frame <-> motion import
// cycle (motion depends on frame, not the reverse).
type Attachable interface {
	InvalidateTransformCache()
	DetachFrame()
}

// Frame is a node in an ordered, parent-owned tree (spec.md §3.1). The
// zero value is not usable; construct with NewRoot.
type Frame struct {
	mu        sync.RWMutex
	name      string
	parent    *Frame
	children  []*Frame
	states    map[StateTag]*State
	attached  []Attachable
	destroyed bool
}

// NewRoot creates a new, parentless frame with a "default" state equal to
// the zero State (origin, no motion, no rotation).
func NewRoot(name string) *Frame {
	return &Frame{
		name:   name,
		states: map[StateTag]*State{DefaultStateTag: {}},
	}
}

// Name returns the frame's name.
func (f *Frame) Name() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

// Parent returns the frame's parent, or nil if it is a root.
func (f *Frame) Parent() *Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.parent
}

// Children returns a snapshot of the frame's ordered children.
func (f *Frame) Children() []*Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*Frame, len(f.children))
	copy(out, f.children)
	return out
}

// Root walks up to the tree's root.
func (f *Frame) Root() *Frame {
	cur := f
	for {
		p := cur.Parent()
		if p == nil {
			return cur
		}
		cur = p
	}
}

// State returns the named state variant. A nonexistent tag falls back to
// the default state (spec.md §4.C: "requesting a nonexistent state tag
// returns the default"). Reports false only if even the default is absent,
// which cannot happen for a frame constructed via NewRoot/NewChild.
func (f *Frame) State(tag StateTag) (State, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if s, ok := f.states[tag]; ok {
		return *s, true
	}
	if s, ok := f.states[DefaultStateTag]; ok {
		return *s, true
	}
	return State{}, false
}

// SetState installs or replaces the named state variant, invalidating the
// transform cache of every motion state attached within this frame's
// subtree (spec.md §4.D caching rule).
func (f *Frame) SetState(tag StateTag, s State) {
	f.mu.Lock()
	if f.states == nil {
		f.states = make(map[StateTag]*State)
	}
	cp := s
	f.states[tag] = &cp
	f.mu.Unlock()
	f.invalidateSubtree()
}

// UpdateState advances the named state to time t (absolute semantics) or
// by dt (delta semantics), per spec.md §4.C, then invalidates caches in
// this frame's subtree.
func (f *Frame) UpdateState(tag StateTag, delta bool, value float64) error {
	f.mu.Lock()
	s, ok := f.states[tag]
	if !ok {
		s, ok = f.states[DefaultStateTag]
	}
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("frame %q: %w", f.name, kinerr.ErrUnknownState)
	}
	var next State
	if delta {
		next = s.PropagateDelta(value)
	} else {
		next = s.PropagateTo(value)
	}
	f.states[tag] = &next
	f.mu.Unlock()
	f.invalidateSubtree()
	return nil
}

// Attach registers a for cache-invalidation/detach notifications.
func (f *Frame) Attach(a Attachable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached = append(f.attached, a)
}

// Detach removes a from the attachment list, if present.
func (f *Frame) Detach(a Attachable) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.attached {
		if existing == a {
			f.attached = append(f.attached[:i], f.attached[i+1:]...)
			return
		}
	}
}

// invalidateSubtree pushes a cache-invalidation notification to every
// motion state attached anywhere within f's subtree (spec.md §4.D: "any
// mutating call on an ancestor frame clears caches of motion states
// attached within that subtree").
func (f *Frame) invalidateSubtree() {
	f.mu.RLock()
	attached := make([]Attachable, len(f.attached))
	copy(attached, f.attached)
	children := make([]*Frame, len(f.children))
	copy(children, f.children)
	f.mu.RUnlock()

	for _, a := range attached {
		a.InvalidateTransformCache()
	}
	for _, c := range children {
		c.invalidateSubtree()
	}
}

// NewChild creates and links a new child frame named name. Fails with
// ErrUnsupported if name collides with an existing name in the tree.
func (f *Frame) NewChild(name string) (*Frame, error) {
	if existing, ok := f.Root().FindByName(name); ok && existing != nil {
		return nil, fmt.Errorf("frame name %q already exists in tree: %w", name, kinerr.ErrUnsupported)
	}
	child := &Frame{
		name:   name,
		parent: f,
		states: map[StateTag]*State{DefaultStateTag: {}},
	}
	f.mu.Lock()
	f.children = append(f.children, child)
	f.mu.Unlock()
	return child, nil
}

// NewSibling creates a new frame as a child of f's parent. Fails if f is a
// root (no parent to attach to).
func (f *Frame) NewSibling(name string) (*Frame, error) {
	p := f.Parent()
	if p == nil {
		return nil, fmt.Errorf("frame %q is a root, has no parent to add a sibling under: %w", f.name, kinerr.ErrUnsupported)
	}
	return p.NewChild(name)
}

// AddChild attaches an existing, detached frame as a child of f, updating
// the child's parent back-pointer atomically with tree membership
// (spec.md §4.C).
func (f *Frame) AddChild(child *Frame) error {
	if child == nil {
		return fmt.Errorf("nil child: %w", kinerr.ErrUnsupported)
	}
	if existing, ok := f.Root().FindByName(child.Name()); ok && existing != nil {
		return fmt.Errorf("frame name %q already exists in tree: %w", child.Name(), kinerr.ErrUnsupported)
	}
	child.mu.Lock()
	child.parent = f
	child.mu.Unlock()

	f.mu.Lock()
	f.children = append(f.children, child)
	f.mu.Unlock()
	return nil
}

// RemoveChild detaches child from f's children, clearing its parent
// back-pointer. The removed subtree is returned to the caller intact
// (motion states attached to it are not invalidated, since they remain
// valid relative to the detached root).
func (f *Frame) RemoveChild(child *Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.children {
		if c == child {
			f.children = append(f.children[:i], f.children[i+1:]...)
			child.mu.Lock()
			child.parent = nil
			child.mu.Unlock()
			return nil
		}
	}
	return fmt.Errorf("frame %q is not a child of %q: %w", child.Name(), f.name, kinerr.ErrUnsupported)
}

// DestroySubtree detaches f from its parent (if any) and recursively
// clears the frame back-reference of every attached motion state, without
// destroying the motion states themselves (spec.md §3.3/§5 ownership
// rule). After this call f and its descendants are unusable.
func (f *Frame) DestroySubtree() {
	if p := f.Parent(); p != nil {
		_ = p.RemoveChild(f)
	}
	f.destroyRecursive()
}

func (f *Frame) destroyRecursive() {
	f.mu.Lock()
	f.destroyed = true
	attached := f.attached
	f.attached = nil
	children := make([]*Frame, len(f.children))
	copy(children, f.children)
	f.children = nil
	f.mu.Unlock()

	for _, a := range attached {
		a.DetachFrame()
	}
	for _, c := range children {
		c.destroyRecursive()
	}
}

// Destroyed reports whether DestroySubtree has been called on f or an
// ancestor.
func (f *Frame) Destroyed() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.destroyed
}

// FindByName searches f's subtree (pre-order, f included) for a frame
// named name.
func (f *Frame) FindByName(name string) (*Frame, bool) {
	if f.Name() == name {
		return f, true
	}
	for _, c := range f.Children() {
		if found, ok := c.FindByName(name); ok {
			return found, true
		}
	}
	return nil, false
}

// PreOrder returns every frame in f's subtree, f first, in pre-order —
// the "explicit finite iterator... restartable" design note (spec.md §9).
func (f *Frame) PreOrder() []*Frame {
	out := []*Frame{f}
	for _, c := range f.Children() {
		out = append(out, c.PreOrder()...)
	}
	return out
}

// ancestors returns f and every ancestor up to and including the root,
// closest first.
func (f *Frame) ancestors() []*Frame {
	out := []*Frame{f}
	for cur := f.Parent(); cur != nil; cur = cur.Parent() {
		out = append(out, cur)
	}
	return out
}

// LeastCommonAncestor finds the pivot frame(s) for transforming between a
// and b (spec.md §4.C/§4.D step 2). When a and b share a root, it returns
// the single common ancestor frame (ancestorA == ancestorB). When they
// belong to different trees, it falls back to name matching: it walks a's
// ancestor chain from closest to root and, for each name, searches b's
// tree in pre-order for the first frame with that name — the first such
// match (by a's distance from a, then by b's pre-order position) is
// authoritative, resolving the ambiguity the specification leaves open
// (spec.md §9 Open Questions; see DESIGN.md).
func LeastCommonAncestor(a, b *Frame) (ancestorA, ancestorB *Frame, err error) {
	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("nil frame: %w", kinerr.ErrTreeMismatch)
	}
	if a.Root() == b.Root() {
		aAnc := a.ancestors()
		bAnc := make(map[*Frame]bool, len(b.ancestors()))
		for _, f := range b.ancestors() {
			bAnc[f] = true
		}
		for _, f := range aAnc {
			if bAnc[f] {
				return f, f, nil
			}
		}
		return nil, nil, fmt.Errorf("frames share a root but no common ancestor found: %w", kinerr.ErrTreeMismatch)
	}

	bRoot := b.Root()
	for _, anc := range a.ancestors() {
		if match, ok := bRoot.FindByName(anc.Name()); ok {
			return anc, match, nil
		}
	}
	return nil, nil, fmt.Errorf("no frame name shared between trees: %w", kinerr.ErrTreeMismatch)
}

// Clone returns a new, parentless frame with a deep copy of f's states,
// but none of f's children.
func (f *Frame) Clone() *Frame {
	f.mu.RLock()
	defer f.mu.RUnlock()
	states := make(map[StateTag]*State, len(f.states))
	for tag, s := range f.states {
		cp := *s
		states[tag] = &cp
	}
	return &Frame{name: f.name, states: states}
}

// CloneBranch clones the chain of frames from f (an ancestor) down to
// descendant, inclusive, preserving parent-child structure along that
// single path. Fails if descendant is not actually within f's subtree.
func (f *Frame) CloneBranch(descendant *Frame) (*Frame, error) {
	chain := descendant.ancestors()
	idx := -1
	for i, anc := range chain {
		if anc == f {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("frame %q is not an ancestor of %q: %w", f.name, descendant.name, kinerr.ErrUnsupported)
	}
	// chain is descendant-to-ancestor; reverse the relevant prefix to get
	// root(f)-to-descendant order.
	ordered := make([]*Frame, idx+1)
	for i, orig := range chain[:idx+1] {
		ordered[idx-i] = orig
	}
	clonedRoot := ordered[0].Clone()
	cur := clonedRoot
	for _, orig := range ordered[1:] {
		child := orig.Clone()
		child.parent = cur
		cur.children = append(cur.children, child)
		cur = child
	}
	return clonedRoot, nil
}

// CloneSubtree deep-clones f and every descendant, preserving structure.
func (f *Frame) CloneSubtree() *Frame {
	root := f.Clone()
	for _, c := range f.Children() {
		childClone := c.CloneSubtree()
		childClone.parent = root
		root.children = append(root.children, childClone)
	}
	return root
}

// CopyTreeInto deep-copies src's subtree structure and states into dst,
// replacing dst's existing children. dst keeps its own name, parent, and
// attachments.
func CopyTreeInto(dst, src *Frame) {
	src.mu.RLock()
	states := make(map[StateTag]*State, len(src.states))
	for tag, s := range src.states {
		cp := *s
		states[tag] = &cp
	}
	children := make([]*Frame, len(src.children))
	copy(children, src.children)
	src.mu.RUnlock()

	dst.mu.Lock()
	dst.states = states
	dst.children = nil
	dst.mu.Unlock()

	for _, c := range children {
		childClone := c.CloneSubtree()
		dst.mu.Lock()
		childClone.parent = dst
		dst.children = append(dst.children, childClone)
		dst.mu.Unlock()
	}
}

// Merge composes two non-rotating frames (translation-only parametric
// states) into a new, parentless frame whose state is the vector sum of
// a's and b's parent-relative positions/velocities/accelerations. Fails
// with ErrUnsupported if either frame has any nonzero rotation component.
// If pruneSingletonAncestors is true and a or b's parent is left with no
// other children after the merge, that parent is spliced out of the tree
// (its own parent adopts its remaining child directly).
func Merge(a, b *Frame, newName string, pruneSingletonAncestors bool) (*Frame, error) {
	sa, _ := a.State(DefaultStateTag)
	sb, _ := b.State(DefaultStateTag)
	if !sa.IsNonRotating() || !sb.IsNonRotating() {
		return nil, fmt.Errorf("merge requires non-rotating frames: %w", kinerr.ErrUnsupported)
	}
	merged := &Frame{
		name: newName,
		states: map[StateTag]*State{
			DefaultStateTag: {
				P: sa.P.Add(sb.P),
				V: sa.V.Add(sb.V),
				A: sa.A.Add(sb.A),
			},
		},
	}

	if pruneSingletonAncestors {
		pruneSingleton(a)
		pruneSingleton(b)
	}
	return merged, nil
}

// pruneSingleton splices f's parent out of the tree if f is its only
// child: the parent is removed from its own parent, which then adopts f
// directly (spec.md §4.C: "optionally prunes now-singleton ancestors").
func pruneSingleton(f *Frame) {
	p := f.Parent()
	if p == nil {
		return
	}
	if len(p.Children()) != 1 {
		return
	}
	grandparent := p.Parent()
	if grandparent == nil {
		return
	}
	_ = grandparent.RemoveChild(p)
	_ = grandparent.AddChild(f)
}

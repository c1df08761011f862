package motion

import (
	"sync"

	"github.com/banshee-data/kinestate/internal/frame"
	"github.com/banshee-data/kinestate/internal/kinematic"
	"github.com/banshee-data/kinestate/internal/kinerr"
)

// CoordinateSystem discriminates how a State's Payload.P/V/A triples are
// interpreted (spec.md §4.D "State machine (implicit)").
type CoordinateSystem int

const (
	// Cartesian interprets P, V, A as (x, y, z) and their time derivatives.
	Cartesian CoordinateSystem = iota
	// Spherical interprets P, V, A as (azimuth, zenith, range) and their
	// time derivatives, with azimuth measured counter-clockwise from +x and
	// zenith measured from +z.
	Spherical
)

// Payload is the nine-quantity kinematic state shared by a motion state and
// a frame's parametric state (spec.md §3.2/§3.3): position/velocity/
// acceleration plus Euler angle/rate/acceleration triples describing the
// body's own orientation.
type Payload struct {
	P, V, A        kinematic.Triple
	E, EDot, EDDot kinematic.Triple
}

// State is a body's kinematics defined in one (frame, state tag) pair
// (spec.md §3.3). The zero value is not usable; construct with New.
type State struct {
	mu       sync.Mutex
	t        float64
	payload  Payload
	units    kinematic.AngleUnit
	coord    CoordinateSystem
	fr       *frame.Frame
	stateTag frame.StateTag

	cachingEnabled bool
	cache          map[cacheKey]*State
}

// DefaultCachingEnabled mirrors the original's process-wide default
// ("the process-wide 'default transform-caching enabled' flag becomes an
// explicit configuration struct threaded through the motion-state
// constructor", spec.md §9). New motion states honor this package variable
// at construction time unless told otherwise via NewWithCaching.
var DefaultCachingEnabled = true

// New constructs a State at time t with the given payload, units, and
// coordinate system, described in (fr, tag). If fr is non-nil, the state
// registers itself with fr so ancestor mutations push cache invalidation.
func New(fr *frame.Frame, tag frame.StateTag, t float64, payload Payload, units kinematic.AngleUnit, coord CoordinateSystem) *State {
	return NewWithCaching(fr, tag, t, payload, units, coord, DefaultCachingEnabled)
}

// NewWithCaching is New with an explicit per-instance caching override.
func NewWithCaching(fr *frame.Frame, tag frame.StateTag, t float64, payload Payload, units kinematic.AngleUnit, coord CoordinateSystem, cachingEnabled bool) *State {
	s := &State{
		t:              t,
		payload:        payload,
		units:          units,
		coord:          coord,
		fr:             fr,
		stateTag:       tag,
		cachingEnabled: cachingEnabled,
	}
	if fr != nil {
		fr.Attach(s)
	}
	return s
}

// Clone returns a deep copy of s, detached from no frame's cache bookkeeping
// (it shares s's frame pointer and state tag but has its own empty cache and
// is not re-attached — callers that want the clone to receive invalidation
// notifications must Attach it themselves).
func (s *State) Clone() *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &State{
		t:              s.t,
		payload:        s.payload,
		units:          s.units,
		coord:          s.coord,
		fr:             s.fr,
		stateTag:       s.stateTag,
		cachingEnabled: s.cachingEnabled,
	}
}

// Frame returns the state's current containing frame, or nil if detached.
func (s *State) Frame() *frame.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fr
}

// StateTag returns the state tag under which s is described in its frame.
func (s *State) StateTag() frame.StateTag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateTag
}

// Time returns the time at which s's payload is defined.
func (s *State) Time() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.t
}

// Payload returns a copy of s's kinematic payload.
func (s *State) Payload() Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payload
}

// CoordinateSystem reports whether s is Cartesian or Spherical.
func (s *State) CoordinateSystem() CoordinateSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coord
}

// Units reports the angle-unit convention of s's Euler-family components.
func (s *State) Units() kinematic.AngleUnit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units
}

// SetFrame reattaches s to a new (frame, tag), detaching from any previous
// frame and clearing s's own cache (a motion state's frame is part of its
// identity for caching purposes).
func (s *State) SetFrame(fr *frame.Frame, tag frame.StateTag) {
	s.mu.Lock()
	old := s.fr
	s.fr = fr
	s.stateTag = tag
	s.cache = nil
	s.mu.Unlock()
	if old != nil {
		old.Detach(s)
	}
	if fr != nil {
		fr.Attach(s)
	}
}

// SetPayload replaces s's kinematic payload at time t, clearing s's own
// transform cache (spec.md §4.D "any mutation of the motion state itself
// clears its own cache").
func (s *State) SetPayload(t float64, payload Payload) {
	s.mu.Lock()
	s.t = t
	s.payload = payload
	s.cache = nil
	s.mu.Unlock()
}

// EnableCaching turns transform memoization on or off for s, clearing any
// existing cache when disabled.
func (s *State) EnableCaching(enabled bool) {
	s.mu.Lock()
	s.cachingEnabled = enabled
	if !enabled {
		s.cache = nil
	}
	s.mu.Unlock()
}

// CachingEnabled reports whether s currently memoizes transform results.
func (s *State) CachingEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cachingEnabled
}

// InvalidateTransformCache implements frame.Attachable: called by an
// ancestor frame's mutation to clear s's transform cache (spec.md §4.D).
func (s *State) InvalidateTransformCache() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// DetachFrame implements frame.Attachable: called when s's containing
// frame's subtree is destroyed. Clears the back-reference but leaves s
// itself alive (spec.md §3.3 ownership invariant).
func (s *State) DetachFrame() {
	s.mu.Lock()
	s.fr = nil
	s.cache = nil
	s.mu.Unlock()
}

// Detached reports whether s currently has no containing frame.
func (s *State) Detached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fr == nil
}

var _ frame.Attachable = (*State)(nil)

// requireFrame returns s's frame or ErrDetachedFrame.
func (s *State) requireFrame() (*frame.Frame, error) {
	s.mu.Lock()
	fr := s.fr
	s.mu.Unlock()
	if fr == nil {
		return nil, kinerr.ErrDetachedFrame
	}
	return fr, nil
}

package overlay

import (
	"errors"
	"time"

	"markerdui/pkg/realtime"
)

// Events published to an overlay's subscribers.
const (
	EventSurface  = "surface"
	EventDistance = "distance"
)

// ErrNotFound is returned when an overlay ID is unknown.
var ErrNotFound = errors.New("overlay not found")

// Store holds overlays and delegates to realtime.Registry for broadcast and
// frame loops.
type Store struct {
	r             *realtime.Registry[*Overlay]
	opts          Options
	frameInterval time.Duration
}

// NewStore creates an in-memory overlay store. Every overlay it creates shares
// opts.
func NewStore(opts Options, frameInterval time.Duration) *Store {
	if frameInterval <= 0 {
		frameInterval = realtime.DefaultFrameInterval
	}
	return &Store{
		r:             realtime.NewRegistry[*Overlay](),
		opts:          opts,
		frameInterval: frameInterval,
	}
}

// Create registers a new overlay. An empty id gets a random one. When id is
// already taken the existing overlay is returned with created false.
func (s *Store) Create(id string) (o *Overlay, created bool) {
	for {
		o = New(id, s.opts)
		inst, ok := s.r.CreateIfAbsent(o.ID, o)
		if ok || id != "" {
			return inst.State, ok
		}
	}
}

// Get returns an overlay by ID.
func (s *Store) Get(id string) (*Overlay, bool) {
	inst, ok := s.r.Get(id)
	if !ok {
		return nil, false
	}
	return inst.State, true
}

// Lookup is Get with an error for callers that propagate it.
func (s *Store) Lookup(id string) (*Overlay, error) {
	o, ok := s.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// IDs returns the IDs of all overlays.
func (s *Store) IDs() []string {
	return s.r.IDs()
}

// Delete stops the overlay's frame loop and drops it.
func (s *Store) Delete(id string) bool {
	return s.r.Delete(id)
}

// Broadcaster returns the SSE broadcaster for an overlay.
func (s *Store) Broadcaster(id string) *realtime.Broadcaster {
	return s.r.Broadcaster(id)
}

// Publish notifies subscribers of an overlay update.
func (s *Store) Publish(id string, event string) {
	s.r.Publish(id, event)
}

// FrameInterval returns the pacing of animation frames.
func (s *Store) FrameInterval() time.Duration {
	return s.frameInterval
}

// EnsureFrameLoop starts the animation loop for an overlay, or wakes it if it
// is already running. The loop ends when the distance transition converges.
func (s *Store) EnsureFrameLoop(id string) {
	tick := func(o *Overlay, ok bool, now time.Time) (time.Time, []string, bool) {
		if !ok || o == nil {
			return time.Time{}, nil, true
		}
		if !o.Animating() {
			return time.Time{}, nil, true
		}
		more := o.Tick(now)
		if !more {
			return time.Time{}, []string{EventDistance}, true
		}
		next, _ := o.NextFrame(now, s.frameInterval)
		return next, []string{EventDistance}, false
	}
	s.r.RunLoop(id, tick)
}

// WakeFrameLoop makes a running frame loop tick now, so it notices a run that
// was stopped by a direct write and retires without waiting for its next
// frame.
func (s *Store) WakeFrameLoop(id string) {
	s.r.Wake(id)
}

// FrameLoopRunning reports whether an overlay currently has a frame loop.
func (s *Store) FrameLoopRunning(id string) bool {
	return s.r.Running(id)
}

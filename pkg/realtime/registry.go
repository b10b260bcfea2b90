package realtime

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Instance holds state and a broadcaster for one live surface.
type Instance[T any] struct {
	ID    string
	State T
	hub   *Broadcaster
}

// Registry manages instances, their broadcasters and their frame loops.
type Registry[T any] struct {
	mu        sync.RWMutex
	instances map[string]*Instance[T]
	loops     map[string]context.CancelFunc
	wakes     map[string]chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		instances: make(map[string]*Instance[T]),
		loops:     make(map[string]context.CancelFunc),
		wakes:     make(map[string]chan struct{}),
	}
}

// CreateIfAbsent adds an instance with the given id and state, and a new
// Broadcaster, unless id is already taken. It returns the instance registered
// under id and whether this call created it.
func (s *Registry[T]) CreateIfAbsent(id string, state T) (*Instance[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[id]; ok {
		return inst, false
	}
	inst := &Instance[T]{ID: id, State: state, hub: NewBroadcaster()}
	s.instances[id] = inst
	return inst, true
}

// Get returns the instance by ID if it exists.
func (s *Registry[T]) Get(id string) (*Instance[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.instances[id]
	return inst, ok
}

// IDs returns the registered instance IDs in sorted order.
func (s *Registry[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Delete stops the instance's loop, closes its subscribers and removes it.
func (s *Registry[T]) Delete(id string) bool {
	s.mu.Lock()
	inst, ok := s.instances[id]
	if cancel, running := s.loops[id]; running {
		cancel()
		delete(s.loops, id)
		delete(s.wakes, id)
	}
	delete(s.instances, id)
	s.mu.Unlock()
	if ok && inst.hub != nil {
		inst.hub.Close()
	}
	return ok
}

// Publish notifies subscribers of the instance's broadcaster.
func (s *Registry[T]) Publish(id string, event string) {
	s.Broadcaster(id).Publish(event)
}

// Broadcaster returns the broadcaster for the instance. Unknown IDs get a
// detached broadcaster so callers never need a nil check.
func (s *Registry[T]) Broadcaster(id string) *Broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return NewBroadcaster()
	}
	if inst.hub == nil {
		inst.hub = NewBroadcaster()
	}
	return inst.hub
}

// TickFunc is called by RunLoop once per frame. It returns the next wake time
// and the events to publish for this frame; stop true ends the loop after the
// events are published. ok is false when the instance no longer exists.
type TickFunc[T any] func(state T, ok bool, now time.Time) (next time.Time, events []string, stop bool)

// RunLoop starts a frame loop for the instance. If a loop is already running
// for id it is woken instead, so a loop that is about to retire picks up work
// scheduled in the meantime.
func (s *Registry[T]) RunLoop(id string, tick TickFunc[T]) {
	s.mu.Lock()
	if wake, ok := s.wakes[id]; ok {
		signal(wake)
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)
	s.loops[id] = cancel
	s.wakes[id] = wake
	s.mu.Unlock()

	go func() {
		defer cancel()
		for {
			var state T
			inst, ok := s.Get(id)
			if ok {
				state = inst.State
			}
			next, events, stop := tick(state, ok, time.Now().UTC())
			for _, e := range events {
				s.Publish(id, e)
			}
			if stop {
				if s.retire(id, wake) {
					return
				}
				continue
			}
			wait := time.Until(next)
			if wait < 0 {
				wait = 0
			}
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			case <-wake:
				timer.Stop()
			}
		}
	}()
}

// retire removes the loop bookkeeping for id unless a wake arrived after the
// last tick, in which case the loop keeps running.
func (s *Registry[T]) retire(id string, wake chan struct{}) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-wake:
		return false
	default:
	}
	if s.wakes[id] == wake {
		delete(s.loops, id)
		delete(s.wakes, id)
	}
	return true
}

// Running reports whether a frame loop is active for id.
func (s *Registry[T]) Running(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.loops[id]
	return ok
}

// Wake unblocks the instance's loop so it ticks immediately.
func (s *Registry[T]) Wake(id string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if wake, ok := s.wakes[id]; ok {
		signal(wake)
	}
}

// signal leaves at most one pending wake on the channel. Callers hold s.mu so
// retire cannot drop the loop between the lookup and the send.
func signal(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}

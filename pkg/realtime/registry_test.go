package realtime

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewRegistry(t *testing.T) {
	s := NewRegistry[string]()
	if s == nil {
		t.Fatal("NewRegistry returned nil")
	}
}

func TestRegistry_CreateIfAbsent_Get(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("dui1", "state1")
	inst, ok := s.Get("dui1")
	if !ok {
		t.Fatal("Get returned false for existing instance")
	}
	if inst.ID != "dui1" {
		t.Errorf("instance ID %q, want dui1", inst.ID)
	}
	if inst.State != "state1" {
		t.Errorf("instance State %q, want state1", inst.State)
	}

	if _, ok := s.Get("nonexistent"); ok {
		t.Error("Get should return false for missing ID")
	}
}

func TestRegistry_CreateIfAbsent(t *testing.T) {
	s := NewRegistry[int]()
	first, created := s.CreateIfAbsent("r1", 1)
	if !created {
		t.Fatal("CreateIfAbsent should create a missing instance")
	}
	again, created := s.CreateIfAbsent("r1", 2)
	if created {
		t.Error("CreateIfAbsent must not replace an existing instance")
	}
	if again != first || again.State != 1 {
		t.Errorf("CreateIfAbsent returned %+v, want the original instance", again)
	}
}

func TestRegistry_CreateIfAbsent_Concurrent(t *testing.T) {
	s := NewRegistry[int]()
	const callers = 16
	var wg sync.WaitGroup
	var created atomic.Int32
	instances := make([]*Instance[int], callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inst, ok := s.CreateIfAbsent("shared", i)
			if ok {
				created.Add(1)
			}
			instances[i] = inst
		}(i)
	}
	wg.Wait()

	if n := created.Load(); n != 1 {
		t.Fatalf("%d callers created the instance, want 1", n)
	}
	for i, inst := range instances {
		if inst != instances[0] {
			t.Errorf("caller %d got a different instance", i)
		}
	}
}

func TestRegistry_IDsSorted(t *testing.T) {
	s := NewRegistry[int]()
	s.CreateIfAbsent("b", 2)
	s.CreateIfAbsent("a", 1)
	ids := s.IDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("IDs %v, want [a b]", ids)
	}
}

func TestRegistry_Publish(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("r1", "x")
	hub := s.Broadcaster("r1")
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	s.Publish("r1", "event1")
	if got := <-ch; got != "event1" {
		t.Errorf("got %q, want event1", got)
	}
}

func TestRegistry_BroadcasterUnknownIsDetached(t *testing.T) {
	s := NewRegistry[string]()
	hub := s.Broadcaster("missing")
	if hub == nil {
		t.Fatal("Broadcaster returned nil for unknown ID")
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Broadcaster must not register unknown IDs")
	}
}

func TestRegistry_Delete(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("r1", "x")
	ch := s.Broadcaster("r1").Subscribe()

	if !s.Delete("r1") {
		t.Fatal("Delete returned false for existing instance")
	}
	if _, open := <-ch; open {
		t.Error("subscribers should be closed on Delete")
	}
	if s.Delete("r1") {
		t.Error("second Delete should return false")
	}
}

func TestRegistry_RunLoop_StopsAndPublishesFinalEvents(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("r1", "x")
	ch := s.Broadcaster("r1").Subscribe()
	defer s.Broadcaster("r1").Unsubscribe(ch)

	var ticks atomic.Int32
	s.RunLoop("r1", func(state string, ok bool, now time.Time) (time.Time, []string, bool) {
		n := ticks.Add(1)
		if n >= 3 {
			return time.Time{}, []string{"done"}, true
		}
		return now.Add(time.Millisecond), []string{"frame"}, false
	})

	want := []string{"frame", "frame", "done"}
	for i, w := range want {
		select {
		case got := <-ch:
			if got != w {
				t.Errorf("event %d = %q, want %q", i, got, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	deadline := time.Now().Add(time.Second)
	for s.Running("r1") {
		if time.Now().After(deadline) {
			t.Fatal("loop did not retire")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestRegistry_RunLoop_MissingInstance(t *testing.T) {
	s := NewRegistry[string]()
	done := make(chan bool, 1)
	s.RunLoop("ghost", func(state string, ok bool, now time.Time) (time.Time, []string, bool) {
		done <- ok
		return time.Time{}, nil, true
	})
	select {
	case ok := <-done:
		if ok {
			t.Error("tick should see ok=false for a missing instance")
		}
	case <-time.After(time.Second):
		t.Fatal("tick was not called")
	}
}

func TestRegistry_Wake_NoPanicWhenNoLoop(t *testing.T) {
	s := NewRegistry[string]()
	s.Wake("nonexistent")
}

// parkedLoop starts a loop whose first tick schedules the next frame an hour
// out, so only a wake can produce the second tick.
func parkedLoop(t *testing.T, s *Registry[string], id string) (first, second <-chan struct{}) {
	t.Helper()
	firstCh := make(chan struct{})
	secondCh := make(chan struct{})
	var ticks atomic.Int32
	s.RunLoop(id, func(state string, ok bool, now time.Time) (time.Time, []string, bool) {
		switch ticks.Add(1) {
		case 1:
			close(firstCh)
			return now.Add(time.Hour), nil, false
		case 2:
			close(secondCh)
		}
		return time.Time{}, nil, true
	})
	return firstCh, secondCh
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestRegistry_Wake_TicksParkedLoop(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("r1", "x")
	first, second := parkedLoop(t, s, "r1")
	waitFor(t, first, "first tick")

	s.Wake("r1")
	waitFor(t, second, "tick after Wake")
}

func TestRegistry_RunLoop_WakesRunningLoop(t *testing.T) {
	s := NewRegistry[string]()
	s.CreateIfAbsent("r1", "x")
	first, second := parkedLoop(t, s, "r1")
	waitFor(t, first, "first tick")

	var replaced atomic.Bool
	s.RunLoop("r1", func(string, bool, time.Time) (time.Time, []string, bool) {
		replaced.Store(true)
		return time.Time{}, nil, true
	})
	waitFor(t, second, "tick after second RunLoop")
	if replaced.Load() {
		t.Error("RunLoop on a running id must wake the existing loop, not start another")
	}
}

package realtime

import "time"

// Transition holds the timing state for one eased transition: when it started
// and how long it runs. It does not hold the values being interpolated; the
// caller composes it and maps Progress(now) onto its own state.
type Transition struct {
	Started  time.Time
	Duration time.Duration
}

// DefaultFrameInterval is the usual pacing between frames (~60 fps).
const DefaultFrameInterval = 16 * time.Millisecond

// Start begins the transition at now.
func (t *Transition) Start(now time.Time, duration time.Duration) {
	t.Started = now
	t.Duration = duration
}

// Stop clears the timing state.
func (t *Transition) Stop() {
	t.Started = time.Time{}
	t.Duration = 0
}

// Active reports whether Start has been called since the last Stop.
func (t *Transition) Active() bool {
	return !t.Started.IsZero()
}

// Progress returns the normalized elapsed time in [0, 1]. A transition with a
// non-positive duration is complete as soon as it starts.
func (t *Transition) Progress(now time.Time) float64 {
	if !t.Active() {
		return 0
	}
	if t.Duration <= 0 {
		return 1
	}
	elapsed := now.Sub(t.Started)
	if elapsed <= 0 {
		return 0
	}
	p := float64(elapsed) / float64(t.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// Done reports whether the transition has reached the end at now.
func (t *Transition) Done(now time.Time) bool {
	return t.Active() && t.Progress(now) >= 1
}

// NextWake returns when the next frame should run, and whether the transition
// is still running. The final frame is clamped to the end of the transition.
func (t *Transition) NextWake(now time.Time, frame time.Duration) (time.Time, bool) {
	if !t.Active() || t.Done(now) {
		return time.Time{}, false
	}
	next := now.Add(frame)
	if end := t.Started.Add(t.Duration); next.After(end) {
		return end, true
	}
	return next, true
}

// Smoothstep eases x in [0, 1] with a cubic curve that starts and ends at rest.
func Smoothstep(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}
	return x * x * (3 - 2*x)
}

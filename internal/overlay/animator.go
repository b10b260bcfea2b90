package overlay

import (
	"math"
	"strconv"
	"time"

	"markerdui/pkg/realtime"
)

// distanceRun is one in-flight distance transition.
type distanceRun struct {
	realtime.Transition
	from       float64
	to         float64
	target     string
	generation uint64
}

// animator owns the single distance transition of an overlay. Every start or
// direct write bumps the generation; a frame for an older generation writes
// nothing and ends.
type animator struct {
	generation uint64
	run        *distanceRun
	last       float64
}

// supersede invalidates the in-flight run, if any, and reports whether one
// was running. The old run's timing is cleared so it can no longer report
// progress.
func (a *animator) supersede() bool {
	a.generation++
	if a.run == nil {
		return false
	}
	a.run.Stop()
	a.run = nil
	return true
}

// origin returns where a new run starts: the last value put on screen when a
// run is in flight, otherwise the committed baseline.
func (a *animator) origin(baseline string) (float64, bool) {
	if a.run != nil {
		return a.last, true
	}
	return Number(baseline)
}

func (a *animator) start(from, to float64, target string, d time.Duration, now time.Time) bool {
	superseded := a.supersede()
	run := &distanceRun{
		from:       from,
		to:         to,
		target:     target,
		generation: a.generation,
	}
	run.Start(now, d)
	a.run = run
	a.last = from
	return superseded
}

func (a *animator) running() bool {
	return a.run != nil
}

// frame advances the run to now. It returns the text to display, whether the
// run converged, and ok=false when there is nothing to draw.
func (a *animator) frame(now time.Time) (text string, done bool, ok bool) {
	run := a.run
	if run == nil {
		return "", false, false
	}
	if run.generation != a.generation {
		a.run = nil
		return "", false, false
	}
	p := run.Progress(now)
	if p >= 1 {
		a.run = nil
		a.last = run.to
		return run.target, true, true
	}
	v := run.from + (run.to-run.from)*realtime.Smoothstep(p)
	a.last = v
	return strconv.FormatFloat(math.Floor(v+0.5), 'f', -1, 64), false, true
}

// nextWake returns when the next frame is due.
func (a *animator) nextWake(now time.Time, frame time.Duration) (time.Time, bool) {
	if a.run == nil {
		return time.Time{}, false
	}
	next, ok := a.run.NextWake(now, frame)
	if !ok {
		// Converged but not yet drawn; draw right away.
		return now, true
	}
	return next, true
}

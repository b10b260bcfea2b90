package overlay

import (
	"crypto/rand"
	"encoding/base32"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// MarkerType is the visual variant currently shown.
type MarkerType string

const (
	TypeNone       MarkerType = ""
	TypeSmall      MarkerType = "small"
	TypeCheckpoint MarkerType = "checkpoint"
)

// SurfaceTypes lists the marker types that have a surface on the page.
var SurfaceTypes = []MarkerType{TypeSmall, TypeCheckpoint}

// HasSurface reports whether t addresses one of the marker surfaces.
func (t MarkerType) HasSurface() bool {
	return t == TypeSmall || t == TypeCheckpoint
}

const (
	// DefaultLabel is shown when a label is cleared.
	DefaultLabel = "CHECKPOINT"
	// DefaultDistance is shown when no distance has been set.
	DefaultDistance = "0"
	// DefaultColor is the marker color restored by reset.
	DefaultColor = "#ffffff"
)

// Result tells the caller what a message did.
type Result int

const (
	// Ignored means nothing happened: unknown action or a surface-less type.
	Ignored Result = iota
	// Handled means the message ran but the surface did not change.
	Handled
	// Changed means the surface changed and should be re-rendered.
	Changed
	// Animating means a distance transition started and needs frames.
	Animating
)

// Notifier sends fire-and-forget events to the host process.
type Notifier interface {
	Notify(event string, payload any)
}

// Options configures a new overlay.
type Options struct {
	DefaultColor string
	Notifier     Notifier
	Logger       *slog.Logger
}

// Overlay holds the state of one marker overlay. All access goes through its
// lock, so message handling and animation frames never interleave.
type Overlay struct {
	mu           sync.Mutex
	ID           string
	CreatedAt    time.Time
	doc          *Document
	active       MarkerType
	baseline     string
	hasBaseline  bool
	anim         animator
	defaultColor string
	notifier     Notifier
	logger       *slog.Logger
	metrics      *metrics
}

var sharedMetrics = newMetrics()

// New creates an overlay in its reset state.
func New(id string, opts Options) *Overlay {
	if id == "" {
		id = newID()
	}
	if opts.DefaultColor == "" {
		opts.DefaultColor = DefaultColor
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Overlay{
		ID:           id,
		CreatedAt:    time.Now().UTC(),
		doc:          NewDocument(),
		defaultColor: opts.DefaultColor,
		notifier:     opts.Notifier,
		logger:       logger.With("overlay", id),
		metrics:      sharedMetrics,
	}
	o.reset()
	return o
}

// Handle applies one message. Unknown actions are ignored. A handler that
// panics is logged and treated as ignored so later messages still run.
func (o *Overlay) Handle(msg Message, now time.Time) (res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	h, ok := actions[msg.Action]
	if !ok {
		o.metrics.countIgnored(msg.Action)
		o.logger.Debug("ignoring message", "action", msg.Action)
		return Ignored
	}
	defer func() {
		if r := recover(); r != nil {
			o.metrics.countIgnored(msg.Action)
			o.logger.Error("message handler panicked", "action", msg.Action, "panic", r)
			res = Ignored
		}
	}()
	res = h(o, msg, now)
	o.metrics.countHandled(msg.Action)
	return res
}

// Tick draws one animation frame at now and reports whether more frames are
// needed. The run commits its target as the new baseline when it converges.
func (o *Overlay) Tick(now time.Time) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	text, done, ok := o.anim.frame(now)
	if !ok {
		return false
	}
	o.writeDistanceValue(text)
	if done {
		o.baseline = text
		o.hasBaseline = true
		return false
	}
	return true
}

// NextFrame returns when the next animation frame is due, or false when no
// transition is running.
func (o *Overlay) NextFrame(now time.Time, interval time.Duration) (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.anim.nextWake(now, interval)
}

// Snapshot is a consistent copy of the overlay state for rendering.
type Snapshot struct {
	ID          string            `json:"id"`
	Type        MarkerType        `json:"type"`
	Baseline    string            `json:"baseline,omitempty"`
	HasBaseline bool              `json:"hasBaseline"`
	Animating   bool              `json:"animating"`
	Generation  uint64            `json:"generation"`
	Properties  map[string]string `json:"properties"`
	Elements    []Element         `json:"elements"`
	Doc         *Document         `json:"-"`
}

// Snapshot returns a copy of the current state.
func (o *Overlay) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc := o.doc.Clone()
	return Snapshot{
		ID:          o.ID,
		Type:        o.active,
		Baseline:    o.baseline,
		HasBaseline: o.hasBaseline,
		Animating:   o.anim.running(),
		Generation:  o.anim.generation,
		Properties:  doc.Properties(),
		Elements:    doc.Elements(),
		Doc:         doc,
	}
}

// Animating reports whether a distance transition is in flight.
func (o *Overlay) Animating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.anim.running()
}

// ActiveType returns the marker type currently selected.
func (o *Overlay) ActiveType() MarkerType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

func newID() string {
	// 10 bytes -> 16 chars of base32, short and url-safe.
	buf := make([]byte, 10)
	_, _ = rand.Read(buf)
	encoder := base32.StdEncoding.WithPadding(base32.NoPadding)
	return strings.ToLower(encoder.EncodeToString(buf))
}

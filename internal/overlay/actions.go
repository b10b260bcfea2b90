package overlay

import "time"

type actionFunc func(o *Overlay, msg Message, now time.Time) Result

var actions = map[string]actionFunc{
	ActionLoad:         (*Overlay).load,
	ActionSetType:      (*Overlay).setType,
	ActionSetColor:     (*Overlay).setColor,
	ActionSetIcon:      (*Overlay).setIcon,
	ActionSetImage:     (*Overlay).setImage,
	ActionSetLabel:     (*Overlay).setLabel,
	ActionSetDistance:  (*Overlay).setDistance,
	ActionShowDistance: (*Overlay).showDistance,
	ActionHide:         (*Overlay).hide,
	ActionShow:         (*Overlay).show,
	ActionReset:        (*Overlay).resetAction,
}

// Actions returns the names of all supported actions.
func Actions() []string {
	out := make([]string, 0, len(actions))
	for name := range actions {
		out = append(out, name)
	}
	return out
}

func (o *Overlay) load(msg Message, _ time.Time) Result {
	if o.notifier == nil {
		return Handled
	}
	o.notifier.Notify(ActionLoad, map[string]any{"id": msg.ID})
	return Handled
}

func (o *Overlay) setType(msg Message, _ time.Time) Result {
	o.hideSurfaces()
	o.active = MarkerType(msg.Type)
	if el, ok := o.doc.Element("marker-" + msg.Type); ok {
		el.Display = DisplayFlex
	}
	return Changed
}

func (o *Overlay) setColor(msg Message, _ time.Time) Result {
	o.doc.SetProperty(ColorProperty, msg.Color)
	return Changed
}

func (o *Overlay) setIcon(msg Message, _ time.Time) Result {
	if !o.active.HasSurface() {
		return Ignored
	}
	p := string(o.active)
	if msg.Icon == "" {
		o.byClass(p+"-icon-container", hideElement)
		return Changed
	}
	o.byID(p+"-icon", func(el *Element) {
		el.ClassName = ResolveIcon(msg.Icon)
		if msg.IconColor != "" {
			el.Color = msg.IconColor
		}
	})
	o.byClass(p+"-icon-container", flexElement)
	o.byClass(p+"-image-container", hideElement)
	return Changed
}

func (o *Overlay) setImage(msg Message, _ time.Time) Result {
	if !o.active.HasSurface() {
		return Ignored
	}
	p := string(o.active)
	if msg.URL == "" {
		o.byID(p+"-image", hideElement)
		o.byClass(p+"-image-container", hideElement)
		o.byClass(p+"-icon-container", hideElement)
		return Changed
	}
	o.byID(p+"-image", func(el *Element) {
		el.Src = msg.URL
		el.Display = DisplayBlock
	})
	o.byClass(p+"-image-container", flexElement)
	o.byClass(p+"-icon-container", hideElement)
	return Changed
}

func (o *Overlay) setLabel(msg Message, _ time.Time) Result {
	if !o.active.HasSurface() {
		return Ignored
	}
	text := msg.Text
	if text == "" {
		text = DefaultLabel
	}
	o.byID(string(o.active)+"-label", func(el *Element) { el.Text = text })
	return Changed
}

func (o *Overlay) setDistance(msg Message, now time.Time) Result {
	target := msg.Value.Or(DefaultDistance)
	duration := msg.distanceDuration()
	if !o.hasBaseline || duration <= minAnimatedDuration {
		o.commitDistance(target)
		return Changed
	}
	from, okFrom := o.anim.origin(o.baseline)
	to, okTo := Number(target)
	if !okFrom || !okTo {
		o.commitDistance(target)
		return Changed
	}
	superseded := o.anim.start(from, to, target, millis(duration), now)
	o.metrics.countAnimation(superseded)
	if superseded {
		o.logger.Debug("distance transition superseded", "generation", o.anim.generation)
	}
	return Animating
}

func (o *Overlay) showDistance(msg Message, _ time.Time) Result {
	display := DisplayNone
	if msg.Show {
		display = DisplayFlex
	}
	o.byID(o.distanceType()+"-distance", func(el *Element) { el.Display = display })
	return Changed
}

func (o *Overlay) hide(Message, time.Time) Result {
	o.hideSurfaces()
	return Changed
}

func (o *Overlay) show(Message, time.Time) Result {
	if o.active == TypeNone {
		return Ignored
	}
	o.byID("marker-"+string(o.active), flexElement)
	return Changed
}

func (o *Overlay) resetAction(Message, time.Time) Result {
	o.reset()
	return Changed
}

// reset restores the initial state: no type, no baseline, hidden surfaces and
// default content on every surface. Distance rows are shown again.
func (o *Overlay) reset() {
	o.active = TypeNone
	o.baseline = ""
	o.hasBaseline = false
	o.anim.supersede()
	o.hideSurfaces()
	o.doc.SetProperty(ColorProperty, o.defaultColor)
	for _, t := range SurfaceTypes {
		p := string(t)
		o.byID(p+"-icon", func(el *Element) {
			el.ClassName = ""
			el.Color = ""
		})
		o.byID(p+"-image", func(el *Element) {
			el.Src = ""
			el.Display = DisplayNone
		})
		o.byID(p+"-label", func(el *Element) { el.Text = DefaultLabel })
		o.byID(p+"-distance-value", func(el *Element) { el.Text = DefaultDistance })
		o.byClass(p+"-icon-container", hideElement)
		o.byClass(p+"-image-container", hideElement)
		o.byID(p+"-distance", flexElement)
	}
}

// commitDistance writes a value without animating and makes it the baseline.
// Any run in flight is superseded so it cannot overwrite the value.
func (o *Overlay) commitDistance(text string) {
	o.anim.supersede()
	o.writeDistanceValue(text)
	o.baseline = text
	o.hasBaseline = true
}

// writeDistanceValue targets the surface active at the time of the write.
func (o *Overlay) writeDistanceValue(text string) {
	o.byID(o.distanceType()+"-distance-value", func(el *Element) { el.Text = text })
}

// distanceType picks the surface for distance writes: checkpoint when it is
// active, the small marker otherwise.
func (o *Overlay) distanceType() string {
	if o.active == TypeCheckpoint {
		return string(TypeCheckpoint)
	}
	return string(TypeSmall)
}

func (o *Overlay) hideSurfaces() {
	for _, el := range o.doc.QueryAll(ClassMarkerType) {
		el.Display = DisplayNone
	}
}

func (o *Overlay) byID(id string, fn func(*Element)) {
	el, ok := o.doc.Element(id)
	if !ok {
		o.logger.Debug("element missing", "selector", "#"+id)
		return
	}
	fn(el)
}

func (o *Overlay) byClass(class string, fn func(*Element)) {
	el, ok := o.doc.Query(class)
	if !ok {
		o.logger.Debug("element missing", "selector", "."+class)
		return
	}
	fn(el)
}

func hideElement(el *Element) { el.Display = DisplayNone }
func flexElement(el *Element) { el.Display = DisplayFlex }

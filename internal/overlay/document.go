package overlay

// Display values written to an element's style.display.
const (
	DisplayNone  = "none"
	DisplayFlex  = "flex"
	DisplayBlock = "block"
)

const (
	// ClassMarkerType marks the top-level surface of every marker type.
	ClassMarkerType = "marker-type"
	// ColorProperty is the custom property shared by all marker surfaces.
	ColorProperty = "--marker-color"
)

// Element is the server-side state of one element of the overlay page.
// An empty Display leaves the stylesheet default in place.
type Element struct {
	ID        string   `json:"id,omitempty"`
	Classes   []string `json:"classes,omitempty"`
	Display   string   `json:"display,omitempty"`
	ClassName string   `json:"className,omitempty"`
	Color     string   `json:"color,omitempty"`
	Src       string   `json:"src,omitempty"`
	Text      string   `json:"text,omitempty"`
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// Document is the fixed element set the overlay page is rendered from.
type Document struct {
	elements []*Element
	byID     map[string]*Element
	props    map[string]string
}

// NewDocument builds the element layout for the small and checkpoint surfaces.
func NewDocument() *Document {
	d := &Document{
		byID:  make(map[string]*Element),
		props: make(map[string]string),
	}
	for _, t := range SurfaceTypes {
		p := string(t)
		d.add(&Element{ID: "marker-" + p, Classes: []string{ClassMarkerType}, Display: DisplayNone})
		d.add(&Element{Classes: []string{p + "-icon-container"}, Display: DisplayNone})
		d.add(&Element{ID: p + "-icon"})
		d.add(&Element{Classes: []string{p + "-image-container"}, Display: DisplayNone})
		d.add(&Element{ID: p + "-image"})
		d.add(&Element{ID: p + "-label"})
		d.add(&Element{ID: p + "-distance"})
		d.add(&Element{ID: p + "-distance-value"})
	}
	return d
}

func (d *Document) add(el *Element) {
	d.elements = append(d.elements, el)
	if el.ID != "" {
		d.byID[el.ID] = el
	}
}

// Element looks up an element by id.
func (d *Document) Element(id string) (*Element, bool) {
	el, ok := d.byID[id]
	return el, ok
}

// Query returns the first element carrying class.
func (d *Document) Query(class string) (*Element, bool) {
	for _, el := range d.elements {
		if el.HasClass(class) {
			return el, true
		}
	}
	return nil, false
}

// QueryAll returns every element carrying class, in layout order.
func (d *Document) QueryAll(class string) []*Element {
	var out []*Element
	for _, el := range d.elements {
		if el.HasClass(class) {
			out = append(out, el)
		}
	}
	return out
}

// SetProperty sets a document-level custom property.
func (d *Document) SetProperty(name, value string) {
	d.props[name] = value
}

// Property returns a document-level custom property.
func (d *Document) Property(name string) string {
	return d.props[name]
}

// Clone returns a deep copy that is safe to read without the overlay lock.
func (d *Document) Clone() *Document {
	c := &Document{
		elements: make([]*Element, 0, len(d.elements)),
		byID:     make(map[string]*Element, len(d.byID)),
		props:    make(map[string]string, len(d.props)),
	}
	for _, el := range d.elements {
		cp := *el
		cp.Classes = append([]string(nil), el.Classes...)
		c.add(&cp)
	}
	for k, v := range d.props {
		c.props[k] = v
	}
	return c
}

// Elements returns copies of all elements in layout order.
func (d *Document) Elements() []Element {
	out := make([]Element, 0, len(d.elements))
	for _, el := range d.elements {
		out = append(out, *el)
	}
	return out
}

// Properties returns a copy of the custom properties.
func (d *Document) Properties() map[string]string {
	out := make(map[string]string, len(d.props))
	for k, v := range d.props {
		out[k] = v
	}
	return out
}

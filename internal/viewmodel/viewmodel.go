package viewmodel

// ColorProperty is the custom property the marker stylesheet reads.
const ColorProperty = "--marker-color"

// Surface holds data for one marker surface.
type Surface struct {
	Type            string
	Display         string
	IconClass       string
	IconColor       string
	IconBoxDisplay  string
	ImageSrc        string
	ImageDisplay    string
	ImageBoxDisplay string
	Label           string
	DistanceDisplay string
	DistanceValue   string
}

// Markers holds data for the marker fragment streamed on every surface change.
type Markers struct {
	OverlayID string
	Color     string
	Surfaces  []Surface
}

// OverlayPage holds data for the full overlay page loaded by the game browser.
type OverlayPage struct {
	Title     string
	OverlayID string
	StreamURL string
	Markers   Markers
}

// OverlaySummary is one row of the index page.
type OverlaySummary struct {
	ID        string
	Type      string
	Distance  string
	Animating bool
}

// IndexPage holds data for the overlay listing.
type IndexPage struct {
	Title    string
	Overlays []OverlaySummary
}

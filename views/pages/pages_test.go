package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markerdui/internal/viewmodel"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestOverlayPage_ConnectsStream(t *testing.T) {
	html := render(t, OverlayPage(viewmodel.OverlayPage{
		Title:     "Marker overlay",
		OverlayID: "dui-1",
		StreamURL: "/overlay/dui-1/stream",
		Markers: viewmodel.Markers{
			Color:    "#ffffff",
			Surfaces: []viewmodel.Surface{{Type: "checkpoint", Label: "CHECKPOINT", DistanceValue: "0"}},
		},
	}))

	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, "<title>Marker overlay</title>")
	assert.Contains(t, html, `<div hx-ext="sse" sse-connect="/overlay/dui-1/stream" data-overlay="dui-1">`)
	assert.Contains(t, html, `<div id="markers" sse-swap="surface"><div class="markers"`)
	assert.Contains(t, html, `id="checkpoint-distance-value" sse-swap="distance-checkpoint">0</span>`)
	assert.Contains(t, html, "/dist/ext/sse.js")
}

func TestIndexPage(t *testing.T) {
	empty := render(t, IndexPage(viewmodel.IndexPage{Title: "Marker overlays"}))
	assert.Contains(t, empty, "<p>No overlays yet.</p>")
	assert.NotContains(t, empty, "<table>")

	html := render(t, IndexPage(viewmodel.IndexPage{
		Title: "Marker overlays",
		Overlays: []viewmodel.OverlaySummary{
			{ID: "dui-1", Distance: "0"},
			{ID: "dui-2", Type: "small", Distance: "120", Animating: true},
		},
	}))
	assert.Contains(t, html, `<td><a href="/overlay/dui-1/">dui-1</a></td><td>none</td><td>0</td><td>idle</td>`)
	assert.Contains(t, html, `<td><a href="/overlay/dui-2/">dui-2</a></td><td>small</td><td>120</td><td>animating</td>`)
	assert.Contains(t, html, `<form method="POST" action="/overlays">`)
}

package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markerdui/internal/overlay"
)

func newTestRouter(store *overlay.Store) http.Handler {
	r := chi.NewRouter()
	overlayHandler := NewOverlayHandler(store, nil)
	overlayHandler.RegisterStreamRoutes(r)
	NewHomeHandler(store).RegisterRoutes(r)
	overlayHandler.RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func state(t *testing.T, h http.Handler, id string) map[string]any {
	t.Helper()
	rec := do(t, h, http.MethodGet, "/overlay/"+id+"/state", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHome_ListsOverlays(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-1")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/overlay/dui-1/"`)

	rec = do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateOverlay(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	h := newTestRouter(store)

	rec := do(t, h, http.MethodPost, "/overlays", "application/json", `{"id":"dui-2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"dui-2"}`, rec.Body.String())
	_, ok := store.Get("dui-2")
	assert.True(t, ok)

	rec = do(t, h, http.MethodPost, "/overlay/dui-2/message", "application/json", `{"action":"setType","type":"checkpoint"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodPost, "/overlays", "application/json", `{"id":"dui-2"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "checkpoint", state(t, h, "dui-2")["type"], "a conflicting create keeps the existing overlay")

	rec = do(t, h, http.MethodPost, "/overlays", "application/json", `{"id":"a/b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/overlays", "application/x-www-form-urlencoded", url.Values{}.Encode())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "/overlay/"))
	assert.Len(t, store.IDs(), 2)
}

func TestOverlayPage(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-3")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodGet, "/overlay/dui-3/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `sse-connect="/overlay/dui-3/stream"`)
	assert.Contains(t, body, `id="marker-checkpoint"`)
	assert.Contains(t, body, `id="small-distance-value" sse-swap="distance-small">0</span>`)

	rec = do(t, h, http.MethodGet, "/overlay/missing/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessage_AppliesActions(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-4")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodPost, "/overlay/dui-4/message", "application/json",
		`[{"action":"setType","type":"checkpoint"},{"action":"setLabel","text":"FINISH"},{"action":"nope"}]`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	got := state(t, h, "dui-4")
	assert.Equal(t, "checkpoint", got["type"])

	instance, _ := store.Get("dui-4")
	label, ok := instance.Snapshot().Doc.Element("checkpoint-label")
	require.True(t, ok)
	assert.Equal(t, "FINISH", label.Text)
}

func TestMessage_Errors(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-5")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodPost, "/overlay/dui-5/message", "application/json", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/overlay/dui-5/message", "application/json", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/overlay/missing/message", "application/json", `{"action":"show"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMessage_DistanceAnimationConverges(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-6")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodPost, "/overlay/dui-6/message", "application/json",
		`[{"action":"setType","type":"small"},{"action":"setDistance","value":100}]`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "100", state(t, h, "dui-6")["baseline"])

	rec = do(t, h, http.MethodPost, "/overlay/dui-6/message", "application/json",
		`{"action":"setDistance","value":200,"duration":80}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	instance, _ := store.Get("dui-6")
	require.Eventually(t, func() bool {
		snap := instance.Snapshot()
		return !snap.Animating && snap.Baseline == "200"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "200", state(t, h, "dui-6")["baseline"])

	value, ok := instance.Snapshot().Doc.Element("small-distance-value")
	require.True(t, ok)
	assert.Equal(t, "200", value.Text)
}

func TestDeleteOverlay(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-7")
	h := newTestRouter(store)

	rec := do(t, h, http.MethodDelete, "/overlay/dui-7/", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/overlay/dui-7/state", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/overlay/dui-7/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// readEvent reads SSE lines until an event named name arrives and returns its
// joined data.
func readEvent(t *testing.T, reader *bufio.Reader, name string) string {
	t.Helper()
	var current string
	var data []string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
			data = nil
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		case line == "" && current != "":
			if current == name {
				return strings.Join(data, "\n")
			}
			current = ""
		}
	}
}

func TestStream_SendsSurfaceUpdates(t *testing.T) {
	store := overlay.NewStore(overlay.Options{}, time.Millisecond)
	store.Create("dui-8")
	server := httptest.NewServer(newTestRouter(store))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/overlay/dui-8/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader, overlay.EventSurface)
	assert.Contains(t, first, `id="checkpoint-label" class="marker-label">CHECKPOINT</span>`)

	post, err := http.Post(server.URL+"/overlay/dui-8/message", "application/json",
		strings.NewReader(`[{"action":"setType","type":"checkpoint"},{"action":"setLabel","text":"GATE 3"}]`))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, post.Body)
	post.Body.Close()
	require.Equal(t, http.StatusNoContent, post.StatusCode)

	for {
		html := readEvent(t, reader, overlay.EventSurface)
		if strings.Contains(html, "GATE 3") {
			assert.Contains(t, html, `id="marker-checkpoint" class="marker-type marker-checkpoint" style="display: flex;"`)
			break
		}
	}
}

func TestBuildMarkers(t *testing.T) {
	o := overlay.New("dui-9", overlay.Options{DefaultColor: "#00ff00"})
	o.Handle(overlay.Message{Action: overlay.ActionSetType, Type: "small"}, time.Now())
	o.Handle(overlay.Message{Action: overlay.ActionSetIcon, Icon: "star", IconColor: "gold"}, time.Now())

	m := buildMarkers(o.Snapshot())
	assert.Equal(t, "dui-9", m.OverlayID)
	assert.Equal(t, "#00ff00", m.Color)
	require.Len(t, m.Surfaces, 2)

	small := m.Surfaces[0]
	assert.Equal(t, "small", small.Type)
	assert.Equal(t, "flex", small.Display)
	assert.Equal(t, "flex", small.IconBoxDisplay)
	assert.Equal(t, "gold", small.IconColor)
	assert.Equal(t, overlay.ResolveIcon("star"), small.IconClass)
	assert.Equal(t, "none", m.Surfaces[1].Display)
}

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"markerdui/internal/overlay"
	"markerdui/internal/viewmodel"
	"markerdui/views/pages"
)

const maxOverlayIDLen = 64

type HomeHandler struct {
	store *overlay.Store
}

func NewHomeHandler(store *overlay.Store) *HomeHandler {
	return &HomeHandler{store: store}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/overlays", h.createOverlay)
	r.Get("/healthz", h.healthz)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	data := viewmodel.IndexPage{Title: "Marker overlays"}
	for _, id := range h.store.IDs() {
		instance, ok := h.store.Get(id)
		if !ok {
			continue
		}
		snapshot := instance.Snapshot()
		data.Overlays = append(data.Overlays, viewmodel.OverlaySummary{
			ID:        id,
			Type:      string(snapshot.Type),
			Distance:  snapshot.Baseline,
			Animating: snapshot.Animating,
		})
	}
	render(w, r, pages.IndexPage(data))
}

// createOverlay accepts an optional id as JSON ({"id": "..."}) or as a form
// value. JSON callers get the id back; form posts are redirected to the page.
func (h *HomeHandler) createOverlay(w http.ResponseWriter, r *http.Request) {
	wantsJSON := isJSON(r.Header.Get("Content-Type")) || strings.Contains(r.Header.Get("Accept"), "application/json")

	var id string
	if isJSON(r.Header.Get("Content-Type")) {
		var body struct {
			ID string `json:"id"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		id = body.ID
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		id = r.FormValue("id")
	}

	id = strings.TrimSpace(id)
	if len(id) > maxOverlayIDLen || strings.ContainsAny(id, "/?#") {
		http.Error(w, "invalid overlay id", http.StatusBadRequest)
		return
	}
	instance, created := h.store.Create(id)
	if !created {
		http.Error(w, "overlay exists", http.StatusConflict)
		return
	}
	if wantsJSON {
		writeJSON(w, http.StatusCreated, map[string]string{"id": instance.ID})
		return
	}
	http.Redirect(w, r, "/overlay/"+instance.ID+"/", http.StatusSeeOther)
}

func (h *HomeHandler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}

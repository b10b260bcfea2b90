package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"markerdui/internal/overlay"
	"markerdui/internal/viewmodel"
	"markerdui/views/components"
	"markerdui/views/pages"
)

const (
	maxMessageBytes = 64 << 10
	keepAlivePeriod = 25 * time.Second
)

type OverlayHandler struct {
	store  *overlay.Store
	logger *slog.Logger
}

func NewOverlayHandler(store *overlay.Store, logger *slog.Logger) *OverlayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverlayHandler{store: store, logger: logger}
}

// RegisterRoutes mounts the request/response routes. The stream route is
// mounted separately so it can stay outside request timeouts.
func (h *OverlayHandler) RegisterRoutes(r chi.Router) {
	r.Route("/overlay/{id}", func(r chi.Router) {
		r.Get("/", h.overlayPage)
		r.Delete("/", h.deleteOverlay)
		r.Post("/message", h.message)
		r.Get("/state", h.state)
	})
}

func (h *OverlayHandler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/overlay/{id}/stream", h.stream)
}

func (h *OverlayHandler) overlayPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	render(w, r, pages.OverlayPage(viewmodel.OverlayPage{
		Title:     "Marker overlay",
		OverlayID: id,
		StreamURL: "/overlay/" + id + "/stream",
		Markers:   buildMarkers(instance.Snapshot()),
	}))
}

// message is the inbound half of the host bridge. The body is one message
// object or an array applied in order.
func (h *OverlayHandler) message(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	msgs, err := overlay.DecodeMessages(body)
	if err != nil {
		h.logger.Debug("rejecting message body", "overlay", id, "error", err)
		http.Error(w, "invalid message", http.StatusBadRequest)
		return
	}

	changed, animating := false, false
	for _, msg := range msgs {
		switch instance.Handle(msg, time.Now()) {
		case overlay.Changed:
			changed = true
		case overlay.Animating:
			animating = true
		}
	}
	if changed || animating {
		h.store.Publish(id, overlay.EventSurface)
	}
	switch {
	case animating && instance.Animating():
		h.store.EnsureFrameLoop(id)
	case changed:
		h.store.WakeFrameLoop(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OverlayHandler) state(w http.ResponseWriter, r *http.Request) {
	instance, err := h.store.Lookup(chi.URLParam(r, "id"))
	if errors.Is(err, overlay.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, instance.Snapshot())
}

func (h *OverlayHandler) deleteOverlay(w http.ResponseWriter, r *http.Request) {
	if !h.store.Delete(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OverlayHandler) stream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	instance, ok := h.store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	hub := h.store.Broadcaster(id)
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSurface := func() {
		markers := buildMarkers(instance.Snapshot())
		writeSSE(w, overlay.EventSurface, renderToString(r, components.Markers(markers)))
		flusher.Flush()
	}
	sendDistance := func() {
		for _, s := range buildMarkers(instance.Snapshot()).Surfaces {
			writeSSE(w, components.DistanceEvent(s.Type), renderToString(r, components.DistanceValue(s.DistanceValue)))
		}
		flusher.Flush()
	}

	sendSurface()

	keepAlive := time.NewTicker(keepAlivePeriod)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				// Overlay deleted.
				return
			}
			switch event {
			case overlay.EventSurface:
				sendSurface()
			case overlay.EventDistance:
				sendDistance()
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

// buildMarkers maps the element state of a snapshot onto the marker fragment.
func buildMarkers(snapshot overlay.Snapshot) viewmodel.Markers {
	doc := snapshot.Doc
	m := viewmodel.Markers{
		OverlayID: snapshot.ID,
		Color:     doc.Property(overlay.ColorProperty),
	}
	for _, t := range overlay.SurfaceTypes {
		p := string(t)
		s := viewmodel.Surface{Type: p}
		if el, ok := doc.Element("marker-" + p); ok {
			s.Display = el.Display
		}
		if el, ok := doc.Query(p + "-icon-container"); ok {
			s.IconBoxDisplay = el.Display
		}
		if el, ok := doc.Element(p + "-icon"); ok {
			s.IconClass = el.ClassName
			s.IconColor = el.Color
		}
		if el, ok := doc.Query(p + "-image-container"); ok {
			s.ImageBoxDisplay = el.Display
		}
		if el, ok := doc.Element(p + "-image"); ok {
			s.ImageSrc = el.Src
			s.ImageDisplay = el.Display
		}
		if el, ok := doc.Element(p + "-label"); ok {
			s.Label = el.Text
		}
		if el, ok := doc.Element(p + "-distance"); ok {
			s.DistanceDisplay = el.Display
		}
		if el, ok := doc.Element(p + "-distance-value"); ok {
			s.DistanceValue = el.Text
		}
		m.Surfaces = append(m.Surfaces, s)
	}
	return m
}

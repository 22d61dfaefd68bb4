package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BadarHossain1/harris-vale-storefront/internal/carousel"
	"github.com/BadarHossain1/harris-vale-storefront/internal/catalog"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httputil"
)

// SlideshowHandler streams a product's image rotation over SSE for ambient
// displays. Each connection owns one carousel engine; disconnecting closes it
// so no timer outlives the stream.
type SlideshowHandler struct {
	catalog *catalog.Service
	logger  *slog.Logger
}

// NewSlideshowHandler creates a slideshow HTTP handler.
func NewSlideshowHandler(catalog *catalog.Service, logger *slog.Logger) *SlideshowHandler {
	return &SlideshowHandler{catalog: catalog, logger: logger}
}

// slideEvent is one SSE frame of the stream.
type slideEvent struct {
	Index     int    `json:"index"`
	Image     string `json:"image"`
	Direction string `json:"direction"`
}

// Stream handles GET /api/storefront/products/{id}/slideshow.
func (h *SlideshowHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "streaming unsupported"},
		})
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// The channel is buffered past any realistic burst so OnChange, which
	// runs with the engine lock held, never blocks on a slow consumer.
	changes := make(chan carousel.SlideState, 16)
	engine := carousel.New(product.Images, carousel.Config{
		OnChange: func(s carousel.SlideState) {
			select {
			case changes <- s:
			default:
			}
		},
	})
	defer engine.Close()

	send := func(s carousel.SlideState) {
		ev := slideEvent{Index: s.Index, Direction: s.Direction.String()}
		if s.Index >= 0 && s.Index < len(product.Images) {
			ev.Image = product.Images[s.Index]
		}
		writeSSE(w, "slide", ev)
		flusher.Flush()
	}

	// Initial frame, then hand control to the autoplay cadence. The stream
	// acts as a permanently attentive viewer.
	send(engine.State())
	engine.SetHover(true)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-changes:
			send(s)
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSE writes one named SSE event with a JSON payload.
func writeSSE(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}

package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
)

const keepAliveInterval = 30 * time.Second

// Handler exposes the hub as a server-sent events stream.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new realtime handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the stream endpoint. The stream is public: it only
// carries data already visible on the status page.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/organizations/{orgID}/stream", h.Stream)
}

// Stream handles GET /organizations/{orgID}/stream.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	orgID := chi.URLParam(r, "orgID")
	events, cancel := h.hub.Subscribe(orgID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	logger := ctxlog.FromContext(r.Context())
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("marshal stream event", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, data)
			flusher.Flush()
		}
	}
}

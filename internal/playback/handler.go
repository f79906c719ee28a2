package playback

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StatusSource reports playback progress.
type StatusSource interface {
	Snapshot() Snapshot
}

// Handler exposes read-only playback status over HTTP using go-chi.
type Handler struct {
	src StatusSource
	log *slog.Logger
}

// NewHandler returns a Handler reporting on src. src may be nil until the
// scheduler exists (e.g. after a failed load); status then reports idle.
func NewHandler(src StatusSource, log *slog.Logger) *Handler {
	return &Handler{src: src, log: log}
}

// Routes mounts the status endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/status", h.Status)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	snap := Snapshot{State: StateIdle.String()}
	if h.src != nil {
		snap = h.src.Snapshot()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		h.log.Debug("write status failed", slog.String("error", err.Error()))
	}
}

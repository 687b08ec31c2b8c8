package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

func newRouter(logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Use(Metrics())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// NewRestRouter routes the retrieval and activation endpoints
func NewRestRouter(h *FileHandler, logger *slog.Logger) http.Handler {
	r := newRouter(logger)
	for _, kind := range []domain.MediaKind{
		domain.MediaDocument,
		domain.MediaPhoto,
		domain.MediaAudio,
		domain.MediaVideo,
	} {
		r.Get(kind.RetrievalPath(), h.Get(kind))
	}
	r.Get("/user/activation", h.Activate)
	return r
}

// NewConverterRouter routes the conversion endpoints
func NewConverterRouter(h *ConvertHandler, logger *slog.Logger) http.Handler {
	r := newRouter(logger)
	r.Post("/api/{kind}/convert", h.Convert)
	return r
}

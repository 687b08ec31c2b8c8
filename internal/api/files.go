package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// Retriever resolves retrieval tokens to stored files
type Retriever interface {
	Retrieve(ctx context.Context, kind domain.MediaKind, token string) (*domain.Media, []byte, error)
}

// Activator confirms a user's email
type Activator interface {
	Activate(ctx context.Context, token string) error
}

const (
	activatedMessage      = "Your account has been activated. Type /cancel in the chat to start uploading files."
	activationFailMessage = "Activation failed. The link may be invalid or expired."
)

// FileHandler serves stored files and the activation link
type FileHandler struct {
	retriever Retriever
	activator Activator
	logger    *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(retriever Retriever, activator Activator, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		retriever: retriever,
		activator: activator,
		logger:    logger.With(slog.String("component", "rest")),
	}
}

// Get returns a handler serving records of kind by their ?id= token
func (h *FileHandler) Get(kind domain.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("id")
		if token == "" {
			writeError(w, http.StatusNotFound, domain.CodeNotFound, "file not found")
			return
		}

		m, data, err := h.retriever.Retrieve(r.Context(), kind, token)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrNotFound) {
				writeError(w, http.StatusNotFound, domain.CodeNotFound, "file not found")
				return
			}
			h.logger.ErrorContext(r.Context(), "failed to retrieve file",
				slog.String("kind", string(kind)),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, domain.CodeInternalError, "failed to read file")
			return
		}

		writeFile(w, m.ContentType(), m.DisplayName(), data)
	}
}

// Activate handles GET /user/activation?id=<token>
func (h *FileHandler) Activate(w http.ResponseWriter, r *http.Request) {
	if err := h.activator.Activate(r.Context(), r.URL.Query().Get("id")); err != nil {
		h.logger.WarnContext(r.Context(), "activation failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, domain.ErrorCode(err), activationFailMessage)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(activatedMessage))
}

package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// formOverhead leaves room for multipart boundaries and the format field
const formOverhead = 1 << 20

// Converter runs a conversion
type Converter interface {
	Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error)
}

// ConvertHandler serves POST /api/{kind}/convert
type ConvertHandler struct {
	converter Converter
	logger    *slog.Logger
}

// NewConvertHandler creates a new conversion handler
func NewConvertHandler(converter Converter, logger *slog.Logger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		logger:    logger.With(slog.String("component", "converter")),
	}
}

// Convert accepts a multipart form with a "file" part and a "format" field.
// Format and size are checked before the file is read.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseConversionKind(chi.URLParam(r, "kind"))
	if !ok {
		writeError(w, http.StatusNotFound, domain.CodeNotFound, "unknown conversion kind")
		return
	}

	// The whole form fits in memory, so nothing is spooled to disk.
	limit := kind.SizeLimit() + formOverhead
	if r.ContentLength > limit {
		h.reject(w, domain.ErrFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.reject(w, domain.ErrFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, domain.CodeValidationError, "expected multipart form data")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	format := domain.NormalizeFormat(r.FormValue("format"))
	if format == "" {
		writeError(w, http.StatusBadRequest, domain.CodeValidationError, "format is required")
		return
	}
	if !kind.Supports(format) {
		h.reject(w, domain.ErrUnsupportedFormat)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeValidationError, "file is required")
		return
	}
	defer file.Close()
	if header.Size > kind.SizeLimit() {
		h.reject(w, domain.ErrFileTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.CodeValidationError, "failed to read file")
		return
	}

	result, err := h.converter.Convert(r.Context(), &repo.ConversionRequest{
		Kind:     kind,
		Format:   format,
		FileName: header.Filename,
		Data:     data,
	})
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrFileTooLarge):
		h.reject(w, err)
		return
	case err != nil:
		h.logger.ErrorContext(r.Context(), "conversion failed",
			slog.String("kind", string(kind)),
			slog.String("format", format),
			slog.String("file", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, domain.ErrorCode(err), "conversion failed")
		return
	}

	writeFile(w, result.MimeType, result.FileName, result.Data)
}

func (h *ConvertHandler) reject(w http.ResponseWriter, err error) {
	writeError(w, http.StatusBadRequest, domain.ErrorCode(err), err.Error())
}

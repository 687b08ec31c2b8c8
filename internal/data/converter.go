package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// converterClient delegates conversions to the converter HTTP service
type converterClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewConverterClient creates a client for the converter service at baseURL.
// The client sets no timeout: a conversion takes as long as the engine does.
func NewConverterClient(baseURL string, httpClient *http.Client, logger *slog.Logger) repo.ConverterRepo {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &converterClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "converter_client")),
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Convert validates the request locally, then posts it as multipart form data
func (c *converterClient) Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error) {
	format := domain.NormalizeFormat(req.Format)
	if err := domain.ValidateConversion(req.Kind, format, int64(len(req.Data))); err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fileName := req.FileName
	if fileName == "" {
		fileName = "file"
	}
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, fmt.Errorf("failed to write form file: %w", err)
	}
	if err := mw.WriteField("format", format); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	url := fmt.Sprintf("%s/api/%s/convert", c.baseURL, req.Kind)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConverterRejected, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read converter response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, c.rejection(data)
	case http.StatusInternalServerError:
		return nil, fmt.Errorf("%w: %s", domain.ErrEngineFailed, errorMessage(data))
	default:
		return nil, fmt.Errorf("%w: status %d", domain.ErrConverterRejected, resp.StatusCode)
	}

	result := &domain.ConversionResult{
		FileName: domain.ConvertedFileName(req.Kind, fileName, format),
		MimeType: resp.Header.Get("Content-Type"),
		Data:     data,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		result.FileName = params["filename"]
	}
	if result.MimeType == "" {
		result.MimeType = domain.MimeTypeFor(format)
	}
	c.logger.Debug("conversion done", "kind", req.Kind, "format", format, "bytes", len(data))
	return result, nil
}

// rejection maps a 400 body to the matching validation error
func (c *converterClient) rejection(data []byte) error {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		if sentinel := domain.ErrorFromCode(eb.Error.Code); sentinel != nil {
			return sentinel
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrConverterRejected, errorMessage(data))
}

func errorMessage(data []byte) string {
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Error.Message != "" {
		return eb.Error.Message
	}
	return strings.TrimSpace(string(data))
}

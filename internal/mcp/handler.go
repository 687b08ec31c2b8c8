package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

// Converter runs a conversion
type Converter interface {
	Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error)
}

// Handler handles MCP tool calls by delegating to the converter service
type Handler struct {
	converter Converter
	logger    *slog.Logger
}

// NewHandler creates a new MCP handler
func NewHandler(converter Converter, logger *slog.Logger) *Handler {
	return &Handler{
		converter: converter,
		logger:    logger.With(slog.String("component", "mcp")),
	}
}

func (h *Handler) convertTool(kind domain.ConversionKind) mcp.ToolHandlerFor[ConvertInput, ConvertOutput] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ConvertInput) (*mcp.CallToolResult, ConvertOutput, error) {
		out, err := h.Convert(ctx, kind, input)
		return nil, out, err
	}
}

// Convert reads input.Path, converts it and writes the result to the output
// directory. Format and size are checked before the file is read.
func (h *Handler) Convert(ctx context.Context, kind domain.ConversionKind, input ConvertInput) (ConvertOutput, error) {
	format := domain.NormalizeFormat(input.Format)
	if !kind.Supports(format) {
		return ConvertOutput{}, fmt.Errorf("%w: %q (supported: %v)", domain.ErrUnsupportedFormat, input.Format, kind.SupportedFormats())
	}

	info, err := os.Stat(input.Path)
	if err != nil {
		return ConvertOutput{}, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return ConvertOutput{}, fmt.Errorf("%s is a directory", input.Path)
	}
	if err := domain.ValidateConversion(kind, format, info.Size()); err != nil {
		return ConvertOutput{}, err
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return ConvertOutput{}, fmt.Errorf("failed to read input: %w", err)
	}

	result, err := h.converter.Convert(ctx, &repo.ConversionRequest{
		Kind:     kind,
		Format:   format,
		FileName: filepath.Base(input.Path),
		Data:     data,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "conversion failed", "kind", kind, "path", input.Path, "error", err)
		return ConvertOutput{}, err
	}

	outPath := outputPath(input.Path, input.OutputDir, result.FileName)
	if err := os.WriteFile(outPath, result.Data, 0644); err != nil {
		return ConvertOutput{}, fmt.Errorf("failed to write output: %w", err)
	}

	h.logger.InfoContext(ctx, "converted", "kind", kind, "path", input.Path, "output", outPath)
	return ConvertOutput{
		Path:     outPath,
		MimeType: result.MimeType,
		Size:     int64(len(result.Data)),
	}, nil
}

// outputPath places name in outDir, or next to the input when outDir is empty.
// A name that would overwrite the input gets a _converted suffix.
func outputPath(inPath, outDir, name string) string {
	if outDir == "" {
		outDir = filepath.Dir(inPath)
	}
	out := filepath.Join(outDir, filepath.Base(name))
	if sameFile(out, inPath) {
		ext := filepath.Ext(out)
		out = strings.TrimSuffix(out, ext) + "_converted" + ext
	}
	return out
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// ListFormats handles the list_formats tool
func (h *Handler) ListFormats(ctx context.Context, req *mcp.CallToolRequest, input ListFormatsInput) (*mcp.CallToolResult, ListFormatsOutput, error) {
	info := func(k domain.ConversionKind) FormatInfo {
		return FormatInfo{Formats: k.SupportedFormats(), MaxBytes: k.SizeLimit()}
	}
	return nil, ListFormatsOutput{
		Audio:    info(domain.ConvertAudio),
		Video:    info(domain.ConvertVideo),
		Document: info(domain.ConvertDocument),
	}, nil
}

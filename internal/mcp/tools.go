// Package mcp exposes the conversion service as MCP tools.
package mcp

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// ConvertInput is the input of the convert_* tools
type ConvertInput struct {
	Path      string `json:"path" jsonschema:"absolute path of the file to convert"`
	Format    string `json:"format" jsonschema:"target format, e.g. mp3 or pdf"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"directory for the converted file, defaults to the input directory"`
}

// ConvertOutput describes a converted file
type ConvertOutput struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

// ListFormatsInput is empty - no input needed
type ListFormatsInput struct{}

// FormatInfo lists the targets and input limit of one conversion kind
type FormatInfo struct {
	Formats  []string `json:"formats"`
	MaxBytes int64    `json:"max_bytes"`
}

// ListFormatsOutput maps conversion kinds to their targets
type ListFormatsOutput struct {
	Audio    FormatInfo `json:"audio"`
	Video    FormatInfo `json:"video"`
	Document FormatInfo `json:"document"`
}

// NewServer creates an MCP server with the conversion tools registered
func NewServer(converter Converter, logger *slog.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "media-converter",
		Version: "v1.0.0",
	}, nil)

	h := NewHandler(converter, logger)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_audio",
		Description: "Convert an audio file with ffmpeg. Targets: mp3, wav, aac, flac, ogg. Max 50 MB.",
	}, h.convertTool(domain.ConvertAudio))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_video",
		Description: "Convert a video file with ffmpeg. Targets: mp4, mkv, mov, webm. Max 75 MB.",
	}, h.convertTool(domain.ConvertVideo))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_document",
		Description: "Convert a document with LibreOffice. Targets: pdf, docx, odt, txt. Max 50 MB.",
	}, h.convertTool(domain.ConvertDocument))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_formats",
		Description: "List the supported target formats and size limits per conversion kind.",
	}, h.ListFormats)

	return server
}

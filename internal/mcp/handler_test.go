package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
)

type stubConverter struct {
	calls int
	err   error
}

func (s *stubConverter) Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ConversionResult{
		FileName: domain.ConvertedFileName(req.Kind, req.FileName, req.Format),
		MimeType: domain.MimeTypeFor(req.Format),
		Data:     append([]byte("converted:"), req.Data...),
	}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connect(t *testing.T, conv Converter) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	ct, st := mcp.NewInMemoryTransports()
	ss, err := NewServer(conv, discardLogger()).Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func writeInput(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestListTools(t *testing.T) {
	cs := connect(t, &stubConverter{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"convert_audio", "convert_video", "convert_document", "list_formats"}, names)
}

func TestConvertTool(t *testing.T) {
	conv := &stubConverter{}
	cs := connect(t, conv)
	in := writeInput(t, "voice.ogg", []byte("ogg"))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "convert_audio",
		Arguments: map[string]any{"path": in, "format": "MP3"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out ConvertOutput
	require.NoError(t, json.Unmarshal(raw, &out))

	assert.Equal(t, filepath.Join(filepath.Dir(in), "voice_converted.mp3"), out.Path)
	assert.Equal(t, "audio/mpeg", out.MimeType)
	data, err := os.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, "converted:ogg", string(data))
	assert.Equal(t, int64(len(data)), out.Size)
}

func TestConvertTool_SameFormatKeepsInput(t *testing.T) {
	cs := connect(t, &stubConverter{})
	in := writeInput(t, "notes.odt", []byte("odt"))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "convert_document",
		Arguments: map[string]any{"path": in, "format": "odt"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out ConvertOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, filepath.Join(filepath.Dir(in), "notes_converted.odt"), out.Path)

	original, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, "odt", string(original))
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/in", "a.pdf"), outputPath("/in/a.docx", "", "a.pdf"))
	assert.Equal(t, filepath.Join("/out", "a.odt"), outputPath("/in/a.odt", "/out", "a.odt"))
	assert.Equal(t, filepath.Join("/in", "a_converted.odt"), outputPath("/in/a.odt", "/in/", "a.odt"))
	assert.Equal(t, filepath.Join("/in", "a.pdf"), outputPath("/in/a.docx", "", "../../a.pdf"))
}

func TestConvertTool_Errors(t *testing.T) {
	tests := []struct {
		name string
		tool string
		args func(t *testing.T) map[string]any
	}{
		{"unsupported format", "convert_document", func(t *testing.T) map[string]any {
			return map[string]any{"path": writeInput(t, "a.docx", []byte("doc")), "format": "mp3"}
		}},
		{"missing file", "convert_video", func(t *testing.T) map[string]any {
			return map[string]any{"path": filepath.Join(t.TempDir(), "nope.mp4"), "format": "webm"}
		}},
		{"oversize", "convert_audio", func(t *testing.T) map[string]any {
			return map[string]any{"path": writeInput(t, "big.wav", make([]byte, 51<<20)), "format": "mp3"}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &stubConverter{}
			cs := connect(t, conv)

			res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: tt.tool, Arguments: tt.args(t)})
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Zero(t, conv.calls)
		})
	}
}

func TestConvertTool_EngineFailure(t *testing.T) {
	cs := connect(t, &stubConverter{err: domain.ErrEngineFailed})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "convert_document",
		Arguments: map[string]any{"path": writeInput(t, "a.docx", []byte("doc")), "format": "pdf"},
	})
	require.NoError(t, err)
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, "conversion engine failed")
}

func TestListFormatsTool(t *testing.T) {
	cs := connect(t, &stubConverter{})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "list_formats"})
	require.NoError(t, err)
	require.False(t, res.IsError)

	raw, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out ListFormatsOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, []string{"pdf", "docx", "odt", "txt"}, out.Document.Formats)
	assert.Equal(t, int64(75<<20), out.Video.MaxBytes)
}

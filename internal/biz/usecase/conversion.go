package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/metrics"
)

// EngineConfig names the engine binaries and the scratch directory
type EngineConfig struct {
	TmpDir      string
	FFmpegPath  string
	SofficePath string
}

// ConversionUsecase converts files by running the external engines
type ConversionUsecase struct {
	engine repo.Engine
	config EngineConfig
	logger *slog.Logger
}

// NewConversionUsecase creates a new conversion usecase
func NewConversionUsecase(engine repo.Engine, config EngineConfig, logger *slog.Logger) *ConversionUsecase {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.SofficePath == "" {
		config.SofficePath = "soffice"
	}
	if config.TmpDir == "" {
		config.TmpDir = os.TempDir()
	}
	return &ConversionUsecase{
		engine: engine,
		config: config,
		logger: logger.With(slog.String("component", "conversion")),
	}
}

// Convert validates the request, then runs the engine in a private scratch
// directory that is always removed afterwards.
func (uc *ConversionUsecase) Convert(ctx context.Context, req *repo.ConversionRequest) (*domain.ConversionResult, error) {
	format := domain.NormalizeFormat(req.Format)
	if err := domain.ValidateConversion(req.Kind, format, int64(len(req.Data))); err != nil {
		uc.observe(req.Kind, err)
		return nil, err
	}

	result, err := uc.run(ctx, req, format)
	uc.observe(req.Kind, err)
	return result, err
}

func (uc *ConversionUsecase) run(ctx context.Context, req *repo.ConversionRequest, format string) (*domain.ConversionResult, error) {
	dir := filepath.Join(uc.config.TmpDir, "convert-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			uc.logger.WarnContext(ctx, "failed to remove scratch dir", "dir", dir, "error", err)
		}
	}()

	inName := inputName(req.FileName)
	inPath := filepath.Join(dir, inName)
	if err := os.WriteFile(inPath, req.Data, 0600); err != nil {
		return nil, fmt.Errorf("failed to write input: %w", err)
	}

	var outPath string
	var err error
	if req.Kind == domain.ConvertDocument {
		outPath, err = uc.runSoffice(ctx, dir, inPath, format)
	} else {
		outPath, err = uc.runFFmpeg(ctx, dir, inPath, format)
	}
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read output: %v", domain.ErrEngineFailed, err)
	}

	uc.logger.InfoContext(ctx, "converted", "kind", req.Kind, "format", format, "in_bytes", len(req.Data), "out_bytes", len(data))
	return &domain.ConversionResult{
		FileName: domain.ConvertedFileName(req.Kind, req.FileName, format),
		MimeType: domain.MimeTypeFor(format),
		Data:     data,
	}, nil
}

// runFFmpeg: ffmpeg -y -i <in> <dir>/<base>_converted.<fmt>
func (uc *ConversionUsecase) runFFmpeg(ctx context.Context, dir, inPath, format string) (string, error) {
	outPath := filepath.Join(dir, domain.BaseName(inPath)+"_converted."+format)
	if _, err := uc.engine.Run(ctx, uc.config.FFmpegPath, "-y", "-i", inPath, outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// runSoffice: soffice --headless --convert-to <fmt>:<filter> --outdir <dir>/out <in>
func (uc *ConversionUsecase) runSoffice(ctx context.Context, dir, inPath, format string) (string, error) {
	outDir := filepath.Join(dir, "out")
	if err := os.MkdirAll(outDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	target := format + ":" + domain.DocumentFilter(format)
	if _, err := uc.engine.Run(ctx, uc.config.SofficePath, "--headless", "--convert-to", target, "--outdir", outDir, inPath); err != nil {
		return "", err
	}

	expected := filepath.Join(outDir, domain.BaseName(inPath)+"."+format)
	if _, err := os.Stat(expected); err == nil {
		return expected, nil
	}

	// soffice sometimes renames the output; take any file of the target format
	matches, _ := filepath.Glob(filepath.Join(outDir, "*."+format))
	if len(matches) > 0 {
		uc.logger.WarnContext(ctx, "conversion output found by scan", "expected", expected, "found", matches[0])
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: no %s output produced", domain.ErrEngineFailed, format)
}

func (uc *ConversionUsecase) observe(kind domain.ConversionKind, err error) {
	outcome := metrics.Success
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		outcome = metrics.FailBecause(domain.ErrUnsupportedFormat)
	case errors.Is(err, domain.ErrFileTooLarge):
		outcome = metrics.FailBecause(domain.ErrFileTooLarge)
	case errors.Is(err, domain.ErrEngineFailed):
		outcome = metrics.FailBecause(domain.ErrEngineFailed)
	case err != nil:
		outcome = metrics.Fail
	}
	metrics.Conversions.With(prometheus.Labels{
		metrics.LabelKind:    string(kind),
		metrics.LabelOutcome: outcome,
	}).Inc()
}

// inputName keeps the uploaded base name so the engine can detect the input type
func inputName(fileName string) string {
	name := filepath.Base(fileName)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "input"
	}
	return name
}

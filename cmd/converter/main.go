package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/devricklin/feishu-media-bridge/internal/api"
	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/infra/engine"
	"github.com/devricklin/feishu-media-bridge/internal/server"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(conf.RoleConverter); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.NewLogger(conf.RoleConverter)

	conversionUC := usecase.NewConversionUsecase(engine.NewRunner(logger), usecase.EngineConfig{
		TmpDir:      cfg.Converter.TmpDir,
		FFmpegPath:  cfg.Converter.FFmpegPath,
		SofficePath: cfg.Converter.SofficePath,
	}, logger)

	handler := api.NewConvertHandler(conversionUC, logger)
	srv := server.NewHTTPServer(cfg.Converter.Addr, api.NewConverterRouter(handler, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("converter starting", "tmp_dir", cfg.Converter.TmpDir, "ffmpeg", cfg.Converter.FFmpegPath, "soffice", cfg.Converter.SofficePath)
	if err := srv.Run(ctx); err != nil {
		logger.Error("converter exited", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devricklin/feishu-media-bridge/internal/api"
	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/hashid"
	"github.com/devricklin/feishu-media-bridge/internal/server"
)

const (
	metadataCacheSize = 1024
	metadataCacheTTL  = 10 * time.Minute
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
	if err := cfg.Validate(conf.RoleRest); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.NewLogger(conf.RoleRest)

	db, err := data.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repos := data.NewRepositories(db)
	defer repos.Close()

	tokens, err := hashid.New(cfg.HashID.Salt, cfg.HashID.MinLength)
	if err != nil {
		log.Fatalf("Failed to create token codec: %v", err)
	}

	// activation never sends mail
	registrationUC := usecase.NewRegistrationUsecase(repos.User, nil, tokens, cfg.Replies, cfg.Rest.BaseURL, logger)
	retrievalUC := usecase.NewRetrievalUsecase(repos.Media, repos.Content, tokens, metadataCacheSize, metadataCacheTTL, logger)

	handler := api.NewFileHandler(retrievalUC, registrationUC, logger)
	srv := server.NewHTTPServer(cfg.Rest.Addr, api.NewRestRouter(handler, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("rest server exited", "error", err)
		os.Exit(1)
	}
}

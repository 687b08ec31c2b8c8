package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/feishu"
	"github.com/devricklin/feishu-media-bridge/internal/infra/hashid"
	"github.com/devricklin/feishu-media-bridge/internal/infra/mail"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
	"github.com/devricklin/feishu-media-bridge/internal/server"
	"github.com/devricklin/feishu-media-bridge/internal/service"
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
	if err := cfg.Validate(conf.RoleNode); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.NewLogger(conf.RoleNode)

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

	mailer, err := mail.NewSender(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to create mail sender: %v", err)
	}

	broker := queue.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, logger)
	defer broker.Close()

	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger)
	converter := data.NewConverterClient(cfg.Converter.URL, nil, logger)

	// Initialize usecase layer
	registrationUC := usecase.NewRegistrationUsecase(repos.User, mailer, tokens, cfg.Replies, cfg.Rest.BaseURL, logger)
	acquisitionUC := usecase.NewAcquisitionUsecase(feishuClient, repos.Content, repos.Media, tokens, cfg.Rest.BaseURL, logger)
	uploadUC := usecase.NewUploadUsecase(registrationUC, acquisitionUC, converter, cfg.Replies, logger)

	// Initialize service layer
	node := service.NewNodeService(registrationUC, uploadUC, data.NewAnswerPublisher(broker), cfg.Replies, logger)
	node.Register(broker, cfg.Kafka.Workers)

	metricsServer := server.NewHTTPServer(cfg.MetricsAddr, promhttp.Handler(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return broker.Run(ctx) })
	g.Go(func() error { return metricsServer.Run(ctx) })

	logger.Info("node starting", "workers", cfg.Kafka.Workers, "converter", cfg.Converter.URL)
	if err := g.Wait(); err != nil {
		logger.Error("node exited", "error", err)
		os.Exit(1)
	}
}

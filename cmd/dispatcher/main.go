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

	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/feishu"
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
	if err := cfg.Validate(conf.RoleDispatcher); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.NewLogger(conf.RoleDispatcher)

	db, err := data.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	repos := data.NewRepositories(db)
	defer repos.Close()

	broker := queue.New(cfg.Kafka.Brokers, cfg.Kafka.GroupID, logger)
	defer broker.Close()

	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, logger)

	answers := service.NewAnswerService(feishuClient, logger)
	router := service.NewRouterService(repos.RawEvent, data.NewUpdatePublisher(broker), answers, cfg.Replies.Unsupported, logger)
	dispatcher := server.NewDispatcherServer(feishuClient, router, answers, broker, cfg.Kafka.Workers, logger)
	metricsServer := server.NewHTTPServer(cfg.MetricsAddr, promhttp.Handler(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return metricsServer.Run(ctx) })

	logger.Info("dispatcher starting", "db", cfg.Database.Path, "brokers", cfg.Kafka.Brokers)
	if err := g.Wait(); err != nil {
		logger.Error("dispatcher exited", "error", err)
		os.Exit(1)
	}
}

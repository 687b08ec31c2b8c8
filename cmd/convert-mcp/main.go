// convert-mcp serves the conversion tools over MCP stdio. It talks to a
// running converter service at CONVERTER_URL.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/mcp"
)

func main() {
	// stdout carries the protocol, so .env problems go to stderr
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(conf.RoleMCP); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger := cfg.NewLogger(conf.RoleMCP)

	converter := data.NewConverterClient(cfg.Converter.URL, nil, logger)
	server := mcp.NewServer(converter, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, &sdk.StdioTransport{}); err != nil {
		logger.Error("mcp server exited", "error", err)
		os.Exit(1)
	}
}

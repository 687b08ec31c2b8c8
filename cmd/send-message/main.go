// send-message sends a text or a file to a chat through the same binding the
// dispatcher uses. Useful for checking credentials and chat ids.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/conf"
	"github.com/devricklin/feishu-media-bridge/internal/infra/feishu"
)

func main() {
	_ = godotenv.Load()

	cfg, err := conf.LoadFromEnv()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Feishu.AppID == "" || cfg.Feishu.AppSecret == "" {
		fmt.Println("Error: FEISHU_APP_ID and FEISHU_APP_SECRET must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <chat_id> <text>")
		fmt.Println("       send-message <chat_id> --file <path> [caption]")
		os.Exit(1)
	}

	cmd, err := buildCommand(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	client := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.NewLogger("send-message"))
	result, err := client.Send(context.Background(), cmd)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent successfully! (message_id=%s)\n", result.MessageID)
}

func buildCommand(chatID string, args []string) (*domain.SendCommand, error) {
	if args[0] != "--file" {
		return &domain.SendCommand{Type: domain.AnswerText, ChatID: chatID, Text: strings.Join(args, " ")}, nil
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("--file needs a path")
	}

	data, err := os.ReadFile(args[1])
	if err != nil {
		return nil, err
	}
	return &domain.SendCommand{
		Type:    answerTypeFor(args[1]),
		ChatID:  chatID,
		File:    &domain.InMemoryFile{Name: filepath.Base(args[1]), Data: data},
		Caption: strings.Join(args[2:], " "),
	}, nil
}

func answerTypeFor(path string) domain.AnswerType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return domain.AnswerPhoto
	case ".opus", ".mp3", ".ogg", ".wav", ".m4a":
		return domain.AnswerAudio
	}
	return domain.AnswerDocument
}

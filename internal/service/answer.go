package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/metrics"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
)

// AnswerService turns answers into send commands for the chat binding
type AnswerService struct {
	binding repo.ChatBinding
	logger  *slog.Logger
}

// NewAnswerService creates a new answer dispatcher
func NewAnswerService(binding repo.ChatBinding, logger *slog.Logger) *AnswerService {
	if bindingMissing(binding) {
		binding = nil
	}
	return &AnswerService{
		binding: binding,
		logger:  logger.With(slog.String("component", "answer")),
	}
}

// Handle consumes one message of the answer topic. Unknown discriminators
// are dropped; a missing binding stops the consumer.
func (s *AnswerService) Handle(ctx context.Context, msg queue.Message) error {
	answer, err := data.DecodeAnswer(msg)
	if errors.Is(err, domain.ErrUnknownAnswerType) {
		s.observe(msg.Header(data.HeaderAnswerType), metrics.FailBecause(domain.ErrUnknownAnswerType))
		s.logger.WarnContext(ctx, "dropping answer", "error", err)
		return nil
	}
	if err != nil {
		return err
	}

	err = s.Dispatch(ctx, answer)
	if errors.Is(err, domain.ErrBindingUnavailable) {
		return queue.Fatal(err)
	}
	return err
}

// Dispatch sends one answer through the binding
func (s *AnswerService) Dispatch(ctx context.Context, answer *domain.Answer) error {
	if s.binding == nil {
		return domain.ErrBindingUnavailable
	}

	cmd := SendCommand(answer)
	result, err := s.binding.Send(ctx, cmd)
	if err != nil {
		s.observe(string(answer.Type), metrics.Fail)
		return fmt.Errorf("send %s answer to %s: %w", answer.Type, answer.ChatID, err)
	}
	s.observe(string(answer.Type), metrics.Success)
	if result != nil {
		s.logger.DebugContext(ctx, "answer sent", "type", answer.Type, "chat_id", answer.ChatID, "message_id", result.MessageID)
	}
	return nil
}

// SendCommand maps an answer to the binding's send command. File-carrying
// answers get an in-memory file handle.
func SendCommand(answer *domain.Answer) *domain.SendCommand {
	cmd := &domain.SendCommand{
		Type:    answer.Type,
		ChatID:  answer.ChatID,
		Caption: answer.Caption,
	}
	if answer.Type == domain.AnswerText {
		cmd.Text = answer.Text
		return cmd
	}
	cmd.File = &domain.InMemoryFile{Name: answer.FileName, Data: answer.Data}
	return cmd
}

// bindingMissing also catches a nil pointer stored in the interface
func bindingMissing(b repo.ChatBinding) bool {
	if b == nil {
		return true
	}
	v := reflect.ValueOf(b)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

func (s *AnswerService) observe(answerType, outcome string) {
	metrics.AnswersSent.With(prometheus.Labels{
		metrics.LabelType:    answerType,
		metrics.LabelOutcome: outcome,
	}).Inc()
}

package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
)

// Mock implementations

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

type mockRawEventRepo struct {
	log    *callLog
	events []*domain.RawEvent
	err    error
}

func (m *mockRawEventRepo) Append(ctx context.Context, event *domain.RawEvent) error {
	m.log.add("raw")
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type published struct {
	topic string
	event *domain.Event
}

type mockUpdatePublisher struct {
	log       *callLog
	published []published
	err       error
}

func (m *mockUpdatePublisher) PublishUpdate(ctx context.Context, topic string, event *domain.Event) error {
	m.log.add("publish")
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, published{topic: topic, event: event})
	return nil
}

type mockDirect struct {
	answers []*domain.Answer
	err     error
}

func (m *mockDirect) Dispatch(ctx context.Context, answer *domain.Answer) error {
	m.answers = append(m.answers, answer)
	return m.err
}

type mockBinding struct {
	sent []*domain.SendCommand
	err  error
}

func (m *mockBinding) Receive(ctx context.Context, handler repo.EventHandler) error {
	<-ctx.Done()
	return nil
}

func (m *mockBinding) Send(ctx context.Context, cmd *domain.SendCommand) (*domain.SendResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.sent = append(m.sent, cmd)
	return &domain.SendResult{MessageID: "om_sent"}, nil
}

func (m *mockBinding) Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*repo.Download, error) {
	return nil, domain.ErrDownload
}

// capturePublisher records raw broker messages
type capturePublisher struct {
	messages []queue.Message
}

func (c *capturePublisher) Publish(ctx context.Context, msg queue.Message) error {
	c.messages = append(c.messages, msg)
	return nil
}

type mockAnswerPublisher struct {
	answers []*domain.Answer
	err     error
}

func (m *mockAnswerPublisher) PublishAnswer(ctx context.Context, answer *domain.Answer) error {
	if m.err != nil {
		return m.err
	}
	m.answers = append(m.answers, answer)
	return nil
}

type mockTextHandler struct {
	events []*domain.Event
	reply  string
	err    error
}

func (m *mockTextHandler) HandleText(ctx context.Context, event *domain.Event) (string, error) {
	m.events = append(m.events, event)
	return m.reply, m.err
}

type mockUploadHandler struct {
	kinds    []domain.MediaKind
	converts []*domain.Event
	answers  []*domain.Answer
	err      error
}

func (m *mockUploadHandler) HandleUpload(ctx context.Context, kind domain.MediaKind, event *domain.Event) ([]*domain.Answer, error) {
	m.kinds = append(m.kinds, kind)
	return m.answers, m.err
}

func (m *mockUploadHandler) HandleConvertReply(ctx context.Context, event *domain.Event) ([]*domain.Answer, error) {
	m.converts = append(m.converts, event)
	return m.answers, m.err
}

type mockSubscriber struct {
	topics  []string
	workers []int
}

func (m *mockSubscriber) Subscribe(topic string, workers int, handler queue.Handler) {
	m.topics = append(m.topics, topic)
	m.workers = append(m.workers, workers)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

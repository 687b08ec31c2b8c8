package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
	"github.com/devricklin/feishu-media-bridge/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBinding delivers events once, then blocks until ctx is done
type fakeBinding struct {
	events []*domain.Event

	mu   sync.Mutex
	sent []*domain.SendCommand
}

func (b *fakeBinding) Receive(ctx context.Context, handler repo.EventHandler) error {
	for _, e := range b.events {
		handler(ctx, e)
	}
	<-ctx.Done()
	return nil
}

func (b *fakeBinding) Send(ctx context.Context, cmd *domain.SendCommand) (*domain.SendResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, cmd)
	return &domain.SendResult{MessageID: "om_x"}, nil
}

func (b *fakeBinding) Download(ctx context.Context, ref domain.FileRef, kind domain.MediaKind) (*repo.Download, error) {
	return nil, domain.ErrDownload
}

func (b *fakeBinding) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

// memoryQueue delivers published messages to subscribers in-process
type memoryQueue struct {
	mu       sync.Mutex
	handlers map[string]queue.Handler
	pending  chan queue.Message
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{handlers: make(map[string]queue.Handler), pending: make(chan queue.Message, 16)}
}

func (q *memoryQueue) Publish(ctx context.Context, msg queue.Message) error {
	q.pending <- msg
	return nil
}

func (q *memoryQueue) Subscribe(topic string, workers int, handler queue.Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[topic] = handler
}

func (q *memoryQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-q.pending:
			q.mu.Lock()
			h := q.handlers[msg.Topic]
			q.mu.Unlock()
			if h == nil {
				continue
			}
			if err := h(ctx, msg); queue.IsFatal(err) {
				return err
			}
		}
	}
}

type memoryRawEvents struct {
	mu     sync.Mutex
	events []*domain.RawEvent
}

func (m *memoryRawEvents) Append(ctx context.Context, event *domain.RawEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func TestDispatcherServer(t *testing.T) {
	q := newMemoryQueue()
	binding := &fakeBinding{events: []*domain.Event{
		{EventID: "om_1", ChatID: "oc_1", UserID: "ou_1", MsgType: "sticker"},
		{EventID: "om_2", ChatID: "oc_1", UserID: "ou_1", MsgType: "text", Text: "/start"},
	}}

	answers := service.NewAnswerService(binding, discardLogger())
	router := service.NewRouterService(&memoryRawEvents{}, data.NewUpdatePublisher(q), answers, "Unsupported message type!", discardLogger())

	// a node stand-in replies to every text update
	q.Subscribe(repo.TopicTextUpdate, 1, func(ctx context.Context, msg queue.Message) error {
		event, err := data.DecodeEvent(msg)
		if err != nil {
			return err
		}
		return data.NewAnswerPublisher(q).PublishAnswer(ctx, domain.TextAnswer(event.ChatID, "Hello!"))
	})

	srv := NewDispatcherServer(binding, router, answers, q, 1, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool { return binding.sentCount() == 2 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	texts := []string{binding.sent[0].Text, binding.sent[1].Text}
	assert.ElementsMatch(t, []string{"Unsupported message type!", "Hello!"}, texts)
}

func TestDispatcherServer_StopsWithoutBinding(t *testing.T) {
	q := newMemoryQueue()
	binding := &fakeBinding{events: []*domain.Event{
		{EventID: "om_1", ChatID: "oc_1", UserID: "ou_1", MsgType: "sticker"},
	}}

	var missing *fakeBinding
	answers := service.NewAnswerService(missing, discardLogger())
	router := service.NewRouterService(&memoryRawEvents{}, data.NewUpdatePublisher(q), answers, "Unsupported message type!", discardLogger())
	srv := NewDispatcherServer(binding, router, answers, q, 1, discardLogger())

	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, domain.ErrBindingUnavailable)
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher kept running without a binding")
	}
}

func TestHTTPServer(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	srv := NewHTTPServer("127.0.0.1:0", handler, discardLogger())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	cancel()
	assert.NoError(t, <-done)
}

package server

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
	"github.com/devricklin/feishu-media-bridge/internal/service"
)

// Consumer is the queue side of the dispatcher
type Consumer interface {
	Subscribe(topic string, workers int, handler queue.Handler)
	Run(ctx context.Context) error
}

// DispatcherServer connects the chat binding to the queue: inbound events go
// through the router, answers come back through the answer service.
type DispatcherServer struct {
	binding  repo.ChatBinding
	router   *service.RouterService
	answers  *service.AnswerService
	consumer Consumer
	workers  int
	logger   *slog.Logger
}

// NewDispatcherServer creates a new dispatcher server
func NewDispatcherServer(
	binding repo.ChatBinding,
	router *service.RouterService,
	answers *service.AnswerService,
	consumer Consumer,
	workers int,
	logger *slog.Logger,
) *DispatcherServer {
	return &DispatcherServer{
		binding:  binding,
		router:   router,
		answers:  answers,
		consumer: consumer,
		workers:  workers,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Run receives chat events and consumes answers until ctx is done, either
// side fails, or the router reports a missing binding
func (s *DispatcherServer) Run(ctx context.Context) error {
	s.consumer.Subscribe(repo.TopicAnswer, s.workers, s.answers.Handle)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.binding.Receive(ctx, s.router.OnEvent)
	})
	g.Go(func() error {
		return s.consumer.Run(ctx)
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case err := <-s.router.Fatal():
			return err
		}
	})

	s.logger.Info("dispatcher started", "answer_workers", s.workers)
	err := g.Wait()
	s.logger.Info("dispatcher stopped", "error", err)
	return err
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/biz/usecase"
	"github.com/devricklin/feishu-media-bridge/internal/data"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
)

// Subscriber registers topic consumers
type Subscriber interface {
	Subscribe(topic string, workers int, handler queue.Handler)
}

// TextHandler runs the registration state machine
type TextHandler interface {
	HandleText(ctx context.Context, event *domain.Event) (string, error)
}

// UploadHandler processes attachment events and convert replies to stored files
type UploadHandler interface {
	HandleUpload(ctx context.Context, kind domain.MediaKind, event *domain.Event) ([]*domain.Answer, error)
	HandleConvertReply(ctx context.Context, event *domain.Event) ([]*domain.Answer, error)
}

// NodeService consumes the update topics and publishes replies to the answer topic
type NodeService struct {
	text    TextHandler
	upload  UploadHandler
	answers repo.AnswerPublisher
	replies usecase.Replies
	logger  *slog.Logger
}

// NewNodeService creates a new node service
func NewNodeService(
	text TextHandler,
	upload UploadHandler,
	answers repo.AnswerPublisher,
	replies usecase.Replies,
	logger *slog.Logger,
) *NodeService {
	return &NodeService{
		text:    text,
		upload:  upload,
		answers: answers,
		replies: replies,
		logger:  logger.With(slog.String("component", "node")),
	}
}

// Register subscribes one pool of workers per update topic
func (s *NodeService) Register(sub Subscriber, workers int) {
	sub.Subscribe(repo.TopicTextUpdate, workers, s.HandleText)
	sub.Subscribe(repo.TopicDocUpdate, workers, s.uploadHandler(domain.MediaDocument))
	sub.Subscribe(repo.TopicPhotoUpdate, workers, s.uploadHandler(domain.MediaPhoto))
	sub.Subscribe(repo.TopicAudioUpdate, workers, s.uploadHandler(domain.MediaAudio))
	sub.Subscribe(repo.TopicVideoUpdate, workers, s.uploadHandler(domain.MediaVideo))
}

// HandleText handles a message of the text topic. A "/convert <format>" sent
// as a reply to a stored file goes to the upload side instead of the state machine.
func (s *NodeService) HandleText(ctx context.Context, msg queue.Message) error {
	event, err := data.DecodeEvent(msg)
	if err != nil {
		return err
	}

	if usecase.IsConvertReply(event) {
		answers, err := s.upload.HandleConvertReply(ctx, event)
		if err != nil {
			s.logger.ErrorContext(ctx, "convert reply failed", "event_id", event.EventID, "parent_id", event.ParentID, "error", err)
			answers = []*domain.Answer{domain.TextAnswer(event.ChatID, s.replies.InternalError)}
		}
		return s.publishAll(ctx, answers)
	}

	reply, err := s.text.HandleText(ctx, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "text handling failed", "event_id", event.EventID, "user_id", event.UserID, "error", err)
		reply = s.replies.InternalError
	}
	return s.publish(ctx, domain.TextAnswer(event.ChatID, reply))
}

// HandleUpload handles a message of one of the attachment topics
func (s *NodeService) HandleUpload(ctx context.Context, kind domain.MediaKind, msg queue.Message) error {
	event, err := data.DecodeEvent(msg)
	if err != nil {
		return err
	}

	answers, err := s.upload.HandleUpload(ctx, kind, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "upload failed", "kind", kind, "event_id", event.EventID, "user_id", event.UserID, "error", err)
		answers = []*domain.Answer{domain.TextAnswer(event.ChatID, s.replies.InternalError)}
	}
	return s.publishAll(ctx, answers)
}

func (s *NodeService) uploadHandler(kind domain.MediaKind) queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		return s.HandleUpload(ctx, kind, msg)
	}
}

func (s *NodeService) publishAll(ctx context.Context, answers []*domain.Answer) error {
	for _, answer := range answers {
		if err := s.publish(ctx, answer); err != nil {
			return err
		}
	}
	return nil
}

func (s *NodeService) publish(ctx context.Context, answer *domain.Answer) error {
	if err := s.answers.PublishAnswer(ctx, answer); err != nil {
		return fmt.Errorf("publish %s answer: %w", answer.Type, err)
	}
	return nil
}

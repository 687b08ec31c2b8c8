package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/metrics"
)

// Direct sends an answer without going through the queue
type Direct interface {
	Dispatch(ctx context.Context, answer *domain.Answer) error
}

// RouterService classifies inbound chat events and publishes each one to
// the update topic of its content kind
type RouterService struct {
	rawEvents   repo.RawEventRepo
	updates     repo.UpdatePublisher
	direct      Direct
	unsupported string // reply to content of unknown kind
	fatal       chan error
	logger      *slog.Logger
}

// NewRouterService creates a new router service
func NewRouterService(
	rawEvents repo.RawEventRepo,
	updates repo.UpdatePublisher,
	direct Direct,
	unsupportedReply string,
	logger *slog.Logger,
) *RouterService {
	return &RouterService{
		rawEvents:   rawEvents,
		updates:     updates,
		direct:      direct,
		unsupported: unsupportedReply,
		fatal:       make(chan error, 1),
		logger:      logger.With(slog.String("component", "router")),
	}
}

// TopicFor returns the update topic of a content kind, or "" for unknown content.
// Callback queries share the text topic.
func TopicFor(kind domain.ContentKind) string {
	switch kind {
	case domain.KindText, domain.KindCallback:
		return repo.TopicTextUpdate
	case domain.KindDocument:
		return repo.TopicDocUpdate
	case domain.KindPhoto:
		return repo.TopicPhotoUpdate
	case domain.KindAudio:
		return repo.TopicAudioUpdate
	case domain.KindVideo:
		return repo.TopicVideoUpdate
	}
	return ""
}

// OnEvent is the binding's event handler. A direct reply that finds no
// binding is reported on Fatal.
func (s *RouterService) OnEvent(ctx context.Context, event *domain.Event) {
	err := s.Route(ctx, event)
	if err == nil {
		return
	}
	s.logger.ErrorContext(ctx, "failed to route event", "event_id", event.EventID, "error", err)
	if errors.Is(err, domain.ErrBindingUnavailable) {
		select {
		case s.fatal <- err:
		default:
		}
	}
}

// Fatal delivers the first error that must stop the dispatcher
func (s *RouterService) Fatal() <-chan error {
	return s.fatal
}

// Route records the event in the raw log and publishes it. Malformed events
// are dropped without a reply; unknown content is answered directly.
func (s *RouterService) Route(ctx context.Context, event *domain.Event) error {
	s.record(ctx, event)

	kind := domain.KindUnknown
	if !event.Valid() {
		s.observe(kind, metrics.FailBecause(errMalformed))
		s.logger.WarnContext(ctx, "dropping malformed event", "event_id", event.EventID, "chat_id", event.ChatID)
		return nil
	}

	kind = event.Kind()
	topic := TopicFor(kind)
	if topic == "" {
		err := s.direct.Dispatch(ctx, domain.TextAnswer(event.ChatID, s.unsupported))
		if err != nil {
			s.observe(kind, metrics.Fail)
			return fmt.Errorf("reply to unsupported %s: %w", event.MsgType, err)
		}
		s.observe(kind, metrics.Success)
		s.logger.DebugContext(ctx, "unsupported message", "event_id", event.EventID, "msg_type", event.MsgType)
		return nil
	}

	if err := s.updates.PublishUpdate(ctx, topic, event); err != nil {
		s.observe(kind, metrics.Fail)
		return err
	}
	s.observe(kind, metrics.Success)
	s.logger.DebugContext(ctx, "routed event", "event_id", event.EventID, "topic", topic)
	return nil
}

var errMalformed = errors.New("malformed")

// record appends the event to the audit log. A failing write does not stop routing.
func (s *RouterService) record(ctx context.Context, event *domain.Event) {
	payload := event.Raw
	if len(payload) == 0 {
		var err error
		if payload, err = json.Marshal(event); err != nil {
			s.logger.ErrorContext(ctx, "failed to encode raw event", "event_id", event.EventID, "error", err)
			return
		}
	}
	raw := &domain.RawEvent{
		EventID:   event.EventID,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := s.rawEvents.Append(ctx, raw); err != nil {
		s.logger.ErrorContext(ctx, "failed to record raw event", "event_id", event.EventID, "error", err)
	}
}

func (s *RouterService) observe(kind domain.ContentKind, outcome string) {
	metrics.EventsRouted.With(prometheus.Labels{
		metrics.LabelKind:    string(kind),
		metrics.LabelOutcome: outcome,
	}).Inc()
}

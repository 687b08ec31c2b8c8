package data

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
)

// HeaderAnswerType is the header carrying the answer discriminator
const HeaderAnswerType = "type"

// Publisher is the broker side used by the publishers below
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

type updatePublisher struct {
	broker Publisher
}

// NewUpdatePublisher creates a publisher for the update topics
func NewUpdatePublisher(broker Publisher) repo.UpdatePublisher {
	return &updatePublisher{broker: broker}
}

// PublishUpdate encodes the event as JSON. Events are keyed by chat so that
// one chat's updates stay ordered within a partition.
func (p *updatePublisher) PublishUpdate(ctx context.Context, topic string, event *domain.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return p.broker.Publish(ctx, queue.Message{
		Topic: topic,
		Key:   []byte(event.ChatID),
		Value: value,
	})
}

type answerPublisher struct {
	broker Publisher
}

// NewAnswerPublisher creates a publisher for the answer topic
func NewAnswerPublisher(broker Publisher) repo.AnswerPublisher {
	return &answerPublisher{broker: broker}
}

// PublishAnswer encodes the answer body as JSON and its type as a header
func (p *answerPublisher) PublishAnswer(ctx context.Context, answer *domain.Answer) error {
	if !answer.Type.Known() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownAnswerType, answer.Type)
	}
	value, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	return p.broker.Publish(ctx, queue.Message{
		Topic:   repo.TopicAnswer,
		Key:     []byte(answer.ChatID),
		Value:   value,
		Headers: map[string]string{HeaderAnswerType: string(answer.Type)},
	})
}

// DecodeEvent decodes a message from one of the update topics
func DecodeEvent(msg queue.Message) (*domain.Event, error) {
	var event domain.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, fmt.Errorf("failed to decode event from %s: %w", msg.Topic, err)
	}
	return &event, nil
}

// DecodeAnswer decodes a message from the answer topic.
// An unrecognized discriminator yields domain.ErrUnknownAnswerType.
func DecodeAnswer(msg queue.Message) (*domain.Answer, error) {
	t := domain.AnswerType(msg.Header(HeaderAnswerType))
	if !t.Known() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAnswerType, t)
	}
	var answer domain.Answer
	if err := json.Unmarshal(msg.Value, &answer); err != nil {
		return nil, fmt.Errorf("failed to decode answer: %w", err)
	}
	answer.Type = t
	return &answer, nil
}

package repo

import (
	"context"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
)

// Topic names
const (
	TopicTextUpdate  = "text-update"
	TopicDocUpdate   = "doc-update"
	TopicPhotoUpdate = "photo-update"
	TopicAudioUpdate = "audio-update"
	TopicVideoUpdate = "video-update"
	TopicAnswer      = "answer"
)

// UpdatePublisher publishes inbound events to update topics
type UpdatePublisher interface {
	PublishUpdate(ctx context.Context, topic string, event *domain.Event) error
}

// AnswerPublisher publishes outbound replies to the answer topic
type AnswerPublisher interface {
	PublishAnswer(ctx context.Context, answer *domain.Answer) error
}

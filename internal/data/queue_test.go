package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devricklin/feishu-media-bridge/internal/biz/domain"
	"github.com/devricklin/feishu-media-bridge/internal/biz/repo"
	"github.com/devricklin/feishu-media-bridge/internal/infra/queue"
)

type mockPublisher struct {
	msgs []queue.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg queue.Message) error {
	m.msgs = append(m.msgs, msg)
	return nil
}

func TestAnswerPublisher_HeaderCarriesType(t *testing.T) {
	pub := &mockPublisher{}
	answers := NewAnswerPublisher(pub)

	answer := domain.FileAnswer(domain.AnswerDocument, "oc_1", "a.pdf", []byte("%PDF"), "done")
	require.NoError(t, answers.PublishAnswer(context.Background(), answer))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, repo.TopicAnswer, msg.Topic)
	assert.Equal(t, "document", msg.Header(HeaderAnswerType))
	assert.NotContains(t, string(msg.Value), `"type"`)

	got, err := DecodeAnswer(msg)
	require.NoError(t, err)
	assert.Equal(t, answer, got)
}

func TestAnswerPublisher_RejectsUnknownType(t *testing.T) {
	pub := &mockPublisher{}
	err := NewAnswerPublisher(pub).PublishAnswer(context.Background(), &domain.Answer{Type: "sticker", ChatID: "oc_1"})
	assert.ErrorIs(t, err, domain.ErrUnknownAnswerType)
	assert.Empty(t, pub.msgs)
}

func TestDecodeAnswer_UnknownDiscriminator(t *testing.T) {
	_, err := DecodeAnswer(queue.Message{
		Topic:   repo.TopicAnswer,
		Value:   []byte(`{"chat_id":"oc_1"}`),
		Headers: map[string]string{HeaderAnswerType: "voice"},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownAnswerType)

	_, err = DecodeAnswer(queue.Message{Topic: repo.TopicAnswer, Value: []byte(`{}`)})
	assert.ErrorIs(t, err, domain.ErrUnknownAnswerType)
}

func TestUpdatePublisher_KeyedByChat(t *testing.T) {
	pub := &mockPublisher{}
	event := &domain.Event{
		EventID:  "om_1",
		ChatID:   "oc_1",
		UserID:   "ou_1",
		MsgType:  "file",
		Caption:  "/convert pdf",
		Document: &domain.FileRef{MessageID: "om_1", FileKey: "file_1", FileName: "a.docx", Size: 10},
	}
	require.NoError(t, NewUpdatePublisher(pub).PublishUpdate(context.Background(), repo.TopicDocUpdate, event))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, repo.TopicDocUpdate, pub.msgs[0].Topic)
	assert.Equal(t, []byte("oc_1"), pub.msgs[0].Key)

	got, err := DecodeEvent(pub.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, event.Document, got.Document)
	assert.Equal(t, "/convert pdf", got.Caption)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	_, err := DecodeEvent(queue.Message{Topic: repo.TopicTextUpdate, Value: []byte("{")})
	assert.Error(t, err)
}

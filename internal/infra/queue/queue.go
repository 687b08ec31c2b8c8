// Package queue is a thin Kafka broker: fire-and-forget publishing and
// per-topic consumer pools with fetch, handle, commit semantics.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/devricklin/feishu-media-bridge/internal/infra/metrics"
)

// maxMessageBytes bounds a single message. Answers carry whole files.
const maxMessageBytes = 100 << 20

// Message is one queue record
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Header returns the value of a header, or "" when absent
func (m Message) Header(key string) string {
	return m.Headers[key]
}

// Handler processes one message. Returning an error wrapped by Fatal stops
// the consumer without committing the message; any other error is logged
// and the message is committed.
type Handler func(ctx context.Context, msg Message) error

type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// Fatal marks err as a consumer-stopping error
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &fatalError{err: err}
}

// IsFatal reports whether err was marked by Fatal
func IsFatal(err error) bool {
	var fe *fatalError
	return errors.As(err, &fe)
}

// writer is implemented by kafka-go's kafka.Writer and by the test dummy.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// reader is implemented by kafka-go's kafka.Reader and by the test dummy.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type subscription struct {
	topic   string
	workers int
	handler Handler
}

// Broker publishes to and consumes from Kafka topics
type Broker struct {
	writer    writer
	newReader func(topic string) reader
	logger    *slog.Logger
	subs      []subscription
}

// New creates a broker for the given bootstrap servers. All consumers join groupID.
func New(brokers []string, groupID string, logger *slog.Logger) *Broker {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		BatchBytes:             maxMessageBytes,
		AllowAutoTopicCreation: true,
	}
	newReader := func(topic string) reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: maxMessageBytes,
		})
	}
	logger.Info("created kafka broker", "brokers", brokers, "group", groupID)
	return &Broker{
		writer:    w,
		newReader: newReader,
		logger:    logger,
	}
}

// Publish writes one message. It does not wait for any consumer.
func (b *Broker) Publish(ctx context.Context, msg Message) error {
	km := kafka.Message{
		Topic: msg.Topic,
		Key:   msg.Key,
		Value: msg.Value,
	}
	for k, v := range msg.Headers {
		km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	if err := b.writer.WriteMessages(ctx, km); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", msg.Topic, err)
	}
	return nil
}

// Subscribe registers a consumer pool of workers goroutines for topic.
// Consumption starts with Run.
func (b *Broker) Subscribe(topic string, workers int, handler Handler) {
	if workers < 1 {
		workers = 1
	}
	b.subs = append(b.subs, subscription{topic: topic, workers: workers, handler: handler})
}

// Run consumes all subscribed topics until ctx is done or a handler returns
// a fatal error. Each worker owns its own group member reader.
func (b *Broker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, sub := range b.subs {
		for i := 0; i < sub.workers; i++ {
			sub, worker := sub, i
			g.Go(func() error {
				return b.consume(ctx, sub, worker)
			})
		}
	}
	return g.Wait()
}

func (b *Broker) consume(ctx context.Context, sub subscription, worker int) error {
	logger := b.logger.With("topic", sub.topic, "worker", worker)
	r := b.newReader(sub.topic)
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("failed to close reader", "error", err)
		}
	}()

	logger.Debug("consumer started")
	for {
		km, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to fetch from %s: %w", sub.topic, err)
		}

		msg := Message{
			Topic:   km.Topic,
			Key:     km.Key,
			Value:   km.Value,
			Headers: make(map[string]string, len(km.Headers)),
		}
		for _, h := range km.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}

		if err := sub.handler(ctx, msg); err != nil {
			metrics.QueueMessages.With(prometheus.Labels{
				metrics.LabelTopic:   sub.topic,
				metrics.LabelOutcome: metrics.Fail,
			}).Inc()
			if IsFatal(err) {
				logger.Error("fatal handler error, stopping consumer", "offset", km.Offset, "error", err)
				return err
			}
			logger.Error("handler failed", "offset", km.Offset, "error", err)
		} else {
			metrics.QueueMessages.With(prometheus.Labels{
				metrics.LabelTopic:   sub.topic,
				metrics.LabelOutcome: metrics.Success,
			}).Inc()
		}

		if err := r.CommitMessages(ctx, km); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit %s offset %d: %w", sub.topic, km.Offset, err)
		}
	}
}

// Close flushes and closes the writer
func (b *Broker) Close() error {
	return b.writer.Close()
}

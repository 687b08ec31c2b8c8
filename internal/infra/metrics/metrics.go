// Package metrics holds the Prometheus collectors shared by all processes.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Label keys and values.
	LabelOutcome = "outcome"
	LabelKind    = "kind"
	LabelTopic   = "topic"
	LabelType    = "type"
	LabelCode    = "code"

	Success = "success"
	Fail    = "fail"

	ns = "media_bridge"
)

var (
	// EventsRouted counts inbound chat events by content kind and routing outcome
	EventsRouted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "events_routed_total",
			Help:      "Inbound chat events by content kind",
		},
		[]string{LabelKind, LabelOutcome},
	)

	// QueueMessages counts messages handled by the queue consumers
	QueueMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "queue_messages_total",
			Help:      "(Un)successfully handled queue messages",
		},
		[]string{LabelTopic, LabelOutcome},
	)

	// AnswersSent counts outbound replies by answer type
	AnswersSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "answers_sent_total",
			Help:      "(Un)successfully dispatched answers",
		},
		[]string{LabelType, LabelOutcome},
	)

	// Conversions counts engine runs by conversion kind
	Conversions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "conversions_total",
			Help:      "(Un)successful file conversions",
		},
		[]string{LabelKind, LabelOutcome},
	)

	// HTTPResponses counts HTTP responses of the rest and converter services
	HTTPResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_responses_total",
			Help:      "HTTP responses by status code",
		},
		[]string{LabelCode},
	)
)

// FailBecause turns an error into a label value, e.g. "fail (timeout)".
// Keep the cardinality low by passing sentinel errors only.
func FailBecause(err error) string {
	return fmt.Sprintf("%s (%s)", Fail, err.Error())
}

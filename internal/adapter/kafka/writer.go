package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

// Writer produces messages to any topic named on the message. It implements
// verification.Dispatcher, sending each task to <prefix><source>.
type Writer struct {
	writer *kafkago.Writer
	prefix string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer. Messages are partitioned by key, so
// every task for one claim lands on the same partition of its topic.
func NewWriter(brokers []string, dispatchPrefix string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, prefix: dispatchPrefix, logger: logger}
}

// Dispatch publishes task to its source's dispatch topic.
func (w *Writer) Dispatch(ctx context.Context, task domain.DispatchTask) error {
	event, err := domain.SerializeDispatchTask(w.prefix, task)
	if err != nil {
		return err
	}
	if err := w.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish %s task for %s: %w", task.Source, task.ClaimID, err)
	}
	w.logger.Debug("task dispatched", "claim_id", task.ClaimID, "source", task.Source, "topic", event.Topic)
	return nil
}

// Publish writes events in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, events ...domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = toMessage(events[i])
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage converts an OutputEvent, emitting headers in key order.
func toMessage(event domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return kafkago.Message{
		Topic:   event.Topic,
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}

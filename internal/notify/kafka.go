// Package notify announces completed harvest runs to downstream consumers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/IshaanNene/napwatch/internal/config"
	"github.com/IshaanNene/napwatch/internal/types"
)

// MessageWriter is the subset of *kafka.Writer the notifier needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RefreshEvent is published after every successful run.
type RefreshEvent struct {
	RunID      string        `json:"run_id"`
	Trigger    types.Trigger `json:"trigger"`
	Records    int           `json:"records"`
	LinksFound int           `json:"links_found"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// KafkaNotifier publishes RefreshEvents keyed by run id.
type KafkaNotifier struct {
	writer MessageWriter
	topic  string
	logger *slog.Logger
}

// NewKafkaNotifier creates a synchronous producer for cfg.Topic.
func NewKafkaNotifier(cfg config.NotifyConfig, logger *slog.Logger) *KafkaNotifier {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: 10 * time.Second,
	}
	return NewKafkaNotifierWithWriter(writer, cfg.Topic, logger)
}

// NewKafkaNotifierWithWriter creates a notifier over an existing writer.
func NewKafkaNotifierWithWriter(w MessageWriter, topic string, logger *slog.Logger) *KafkaNotifier {
	logger = logger.With("component", "kafka_notifier", "topic", topic)
	logger.Info("kafka notifier initialized")
	return &KafkaNotifier{writer: w, topic: topic, logger: logger}
}

func (n *KafkaNotifier) Name() string { return "kafka" }

// Notify publishes the refresh event for result.
func (n *KafkaNotifier) Notify(ctx context.Context, result *types.RunResult) error {
	event := RefreshEvent{
		RunID:      result.RunID,
		Trigger:    result.Trigger,
		Records:    result.Records,
		LinksFound: result.LinksFound,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal refresh event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.RunID),
		Value: value,
		Time:  result.FinishedAt,
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write refresh event to kafka: %w", err)
	}

	n.logger.Debug("refresh event published", "run_id", result.RunID, "records", result.Records)
	return nil
}

// Close flushes and closes the writer.
func (n *KafkaNotifier) Close() error {
	n.logger.Info("closing kafka notifier")
	return n.writer.Close()
}

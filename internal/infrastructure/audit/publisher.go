// Package audit publishes account-lifecycle events to Kafka.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tilvane/accountd/internal/config"
	"github.com/tilvane/accountd/pkg/logger"
)

// Event is one audit record. Fields carry identifiers only, never
// credentials or token material.
type Event struct {
	Type      string    `json:"type"`
	AccountID string    `json:"accountId,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	LoginSK   string    `json:"loginSk,omitempty"`
	Success   bool      `json:"success"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types published by the login service.
const (
	EventLogin        = "account.login"
	EventRefresh      = "account.refresh"
	EventLoginDeleted = "account.login_deleted"
	EventKeyRotated   = "account.key_rotated"
)

// Publisher records audit events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// kafkaWriter is the slice of kafka.Writer the publisher uses; tests
// substitute a fake.
type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes audit events to a Kafka topic.
type KafkaPublisher struct {
	writer kafkaWriter
	logger logger.Logger
}

// NewKafkaPublisher creates a publisher for the configured brokers/topic.
func NewKafkaPublisher(cfg config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaPublisher{
		writer: writer,
		logger: log.WithComponent("KafkaPublisher"),
	}
}

// Publish sends one event. Publishing is best-effort from the caller's
// perspective; the error is returned for logging but account operations
// do not roll back on audit failure.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal audit event", err)
		return err
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AccountID),
		Value: data,
	})
	if err != nil {
		p.logger.Error(ctx, "failed to write audit event to kafka", err,
			logger.String("type", event.Type))
	}
	return err
}

// Close closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops events; used when Kafka is disabled.
type NopPublisher struct{}

func NewNopPublisher() *NopPublisher { return &NopPublisher{} }

func (*NopPublisher) Publish(context.Context, Event) error { return nil }
func (*NopPublisher) Close() error                         { return nil }

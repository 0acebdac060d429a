package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	AccountCreated   = "account_created"
	AccountUpdated   = "account_updated"
	AccountDeleted   = "account_deleted"
	AccountsImported = "accounts_imported"
	PassIssued       = "pass_issued"
)

type Event struct {
	Type      string    `json:"type"`
	AccountID string    `json:"accountId,omitempty"`
	Count     int64     `json:"count,omitempty"`
	Skipped   int       `json:"skipped,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	PublishEvent(ctx context.Context, key string, event Event) error
	Close() error
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic is empty")
	}
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, key string, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: data}); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Nop is used when KAFKA_BROKERS is unset.
type Nop struct{}

func (Nop) PublishEvent(context.Context, string, Event) error { return nil }
func (Nop) Close() error                                      { return nil }

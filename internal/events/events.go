// Package events publishes pass summaries to a Kafka topic so downstream
// reporting can follow reconciliation runs.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	appconfig "github.com/fincoval/creditsync/internal/config"
	"github.com/fincoval/creditsync/internal/reconcile"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var newWriter = func(cfg appconfig.EventsConfig) messageWriter {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publisher writes one message per summary, keyed by pass name so all runs
// of a pass stay ordered within a partition.
type Publisher struct {
	w     messageWriter
	topic string
}

func NewPublisher(cfg appconfig.EventsConfig) *Publisher {
	return &Publisher{w: newWriter(cfg), topic: cfg.Topic}
}

func (p *Publisher) Publish(ctx context.Context, s *reconcile.Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary %s: %w", s.RunID, err)
	}

	result := "ok"
	if s.Failed() {
		result = "failed"
	}

	msg := kafka.Message{
		Key:   []byte(s.Pass),
		Value: body,
		Time:  s.FinishedAt,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(s.RunID)},
			{Key: "direction", Value: []byte(s.Direction)},
			{Key: "result", Value: []byte(result)},
		},
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", s.RunID, p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

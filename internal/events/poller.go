// Package events publishes the checkout outbox to Kafka.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/fjod/go_cart/storefront/internal/checkout"
)

const batchSize = 100

type Store interface {
	Unpublished(ctx context.Context, limit int) ([]checkout.Event, error)
	MarkPublished(ctx context.Context, id int64) error
}

// MessageWriter is the part of *kafka.Writer the poller uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(topic string, brokers ...string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

type OutboxPoller struct {
	store     Store
	writer    MessageWriter
	eventTick time.Duration
	log       *slog.Logger
}

func NewOutboxPoller(store Store, writer MessageWriter, log *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		store:     store,
		writer:    writer,
		eventTick: time.Second,
		log:       log,
	}
}

// Run publishes pending events every tick until ctx is done.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublishedEvents publishes one batch in order. An event that fails
// to publish stays pending and stops the batch, so per-aggregate order holds.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	events, err := p.store.Unpublished(ctx, batchSize)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to fetch events", slog.Any("error", err))
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publishToKafka(ctx, event); err != nil {
			p.log.WarnContext(ctx, "failed to publish event", slog.Any("event", event), slog.Any("error", err))
			return published
		}

		if err := p.store.MarkPublished(ctx, event.ID); err != nil {
			// published but unmarked: consumers see it again next tick
			p.log.ErrorContext(ctx, "failed to mark event as published", slog.Any("event", event), slog.Any("error", err))
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event checkout.Event) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

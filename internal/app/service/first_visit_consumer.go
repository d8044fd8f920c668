package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/reflens/reflens/internal/app/model"
	"go.uber.org/zap"
)

// FirstVisitConsumer consumes first-visit events from NATS JetStream and
// hands them to the notifier.
type FirstVisitConsumer struct {
	js       nats.JetStreamContext
	logger   *zap.Logger
	notifier Notifier
}

// NewFirstVisitConsumer creates a new first-visit event consumer.
func NewFirstVisitConsumer(js nats.JetStreamContext, logger *zap.Logger, notifier Notifier) *FirstVisitConsumer {
	return &FirstVisitConsumer{js: js, logger: logger, notifier: notifier}
}

// Start ensures the stream and durable consumer exist and begins consuming.
func (c *FirstVisitConsumer) Start() error {
	_, err := c.js.StreamInfo(model.FirstVisitStreamName)
	if err != nil {
		_, err = c.js.AddStream(&nats.StreamConfig{
			Name:     model.FirstVisitStreamName,
			Subjects: []string{model.FirstVisitStreamSubject},
			MaxBytes: model.FirstVisitStreamMaxBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to create stream: %w", err)
		}
	}

	_, err = c.js.ConsumerInfo(model.FirstVisitStreamName, model.FirstVisitConsumerName)
	if err != nil {
		_, err = c.js.AddConsumer(model.FirstVisitStreamName, &nats.ConsumerConfig{
			Durable:   model.FirstVisitConsumerName,
			AckPolicy: nats.AckExplicitPolicy,
		})
		if err != nil {
			return fmt.Errorf("failed to create consumer: %w", err)
		}
	}

	sub, err := c.js.PullSubscribe(model.FirstVisitStreamSubject, model.FirstVisitConsumerName)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	go c.consume(sub)
	return nil
}

func (c *FirstVisitConsumer) consume(sub *nats.Subscription) {
	ctx := context.Background()
	for {
		msgs, err := sub.Fetch(10, nats.MaxWait(5*time.Second))
		if err != nil && err != nats.ErrTimeout {
			c.logger.Error("failed to fetch first visit events", zap.Error(err))
			continue
		}

		for _, msg := range msgs {
			var event model.FirstVisitEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				c.logger.Error("failed to unmarshal first visit event", zap.Error(err))
				msg.Ack()
				continue
			}

			// The notifier logs and swallows its own failures; there is
			// no redelivery for a missed notification, so always ack.
			c.notifier.NotifyFirstVisit(ctx, event.RefCode)

			c.logger.Debug("first visit event handled",
				zap.String("id", event.ID),
				zap.String("ref_code", event.RefCode),
				zap.Time("timestamp", event.Timestamp),
			)

			msg.Ack()
		}
	}
}

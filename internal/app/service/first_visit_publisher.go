package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/reflens/reflens/internal/app/model"
)

// FirstVisitPublisher publishes first-visit events to NATS JetStream so the
// request path only enqueues and never waits on mail delivery.
type FirstVisitPublisher struct {
	js nats.JetStreamContext
}

// NewFirstVisitPublisher creates a new first-visit event publisher.
func NewFirstVisitPublisher(js nats.JetStreamContext) *FirstVisitPublisher {
	return &FirstVisitPublisher{js: js}
}

// Publish puts a first-visit event for the given code onto the stream.
func (p *FirstVisitPublisher) Publish(refCode string) error {
	event := model.FirstVisitEvent{
		ID:        uuid.New().String(),
		RefCode:   refCode,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.FirstVisitStreamSubject, data)
	return err
}

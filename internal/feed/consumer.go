// Civitas - Civic Recreation Venue Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/civitas/internal/logging"
	"github.com/tomtom215/civitas/internal/models"
)

// Applier receives decoded change events.
type Applier interface {
	ApplyChange(ev models.ChangeEvent) (bool, error)
}

// ConsumerStats counts messages handled by a Consumer.
type ConsumerStats struct {
	Received int64
	Applied  int64
	Stale    int64
	Rejected int64
}

// Consumer applies venue change messages from a Watermill subscriber.
type Consumer struct {
	subscriber message.Subscriber
	topic      string
	applier    Applier
	logger     zerolog.Logger

	received atomic.Int64
	applied  atomic.Int64
	stale    atomic.Int64
	rejected atomic.Int64
}

// NewConsumer creates a consumer for topic.
func NewConsumer(sub message.Subscriber, topic string, applier Applier) *Consumer {
	return &Consumer{
		subscriber: sub,
		topic:      topic,
		applier:    applier,
		logger:     logging.WithComponent("venue-feed").With().Str("topic", topic).Logger(),
	}
}

// Run consumes messages until ctx is canceled or the subscription closes.
// A canceled context is a clean stop and returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.topic, err)
	}
	c.logger.Info().Msg("Venue change feed subscribed")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("venue change subscription closed")
			}
			c.handle(msg)
		}
	}
}

func (c *Consumer) handle(msg *message.Message) {
	c.received.Add(1)
	// Every outcome is acked; redelivering a bad or stale event cannot help.
	defer msg.Ack()

	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		c.rejected.Add(1)
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Undecodable venue change message")
		return
	}

	applied, err := c.applier.ApplyChange(ev)
	switch {
	case err != nil:
		c.rejected.Add(1)
		c.logger.Warn().Err(err).Str("message_uuid", msg.UUID).Str("venue_id", ev.ID()).Msg("Venue change rejected")
	case applied:
		c.applied.Add(1)
		c.logger.Debug().Str("venue_id", ev.ID()).Str("kind", string(ev.Kind)).Msg("Venue change applied")
	default:
		c.stale.Add(1)
	}
}

// Stats returns the message counters.
func (c *Consumer) Stats() ConsumerStats {
	return ConsumerStats{
		Received: c.received.Load(),
		Applied:  c.applied.Load(),
		Stale:    c.stale.Load(),
		Rejected: c.rejected.Load(),
	}
}

// NewChangeMessage encodes ev as a Watermill message.
func NewChangeMessage(ev models.ChangeEvent) (*message.Message, error) {
	payload, err := json.Marshal(&ev)
	if err != nil {
		return nil, fmt.Errorf("marshal change event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("venue_id", ev.ID())
	msg.Metadata.Set("kind", string(ev.Kind))
	return msg, nil
}

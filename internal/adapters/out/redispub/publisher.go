// Package redispub implements the fan-out channel over Redis pub/sub.
//
// Every courier session subscribes to its own channel and the admin
// dashboard to a shared one. Publishing is fire-and-forget by contract:
// Redis pub/sub holds no backlog, so a courier that is not subscribed at
// publish time simply misses the message and recovers through the poll
// contract. That property is what lets the arbiter commit state first and
// notify second without a distributed transaction.
package redispub

import (
	"context"
	"encoding/json"
	"log/slog"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"github.com/go-redis/redis/v8"
)

const (
	courierChannelPrefix = "dispatch:courier:"
	adminChannel         = "dispatch:admin"
)

// CourierChannel returns the pub/sub channel name for one courier.
func CourierChannel(courierID kernel.UUID) string {
	return courierChannelPrefix + courierID.String()
}

// AdminChannel returns the admin dashboard channel name.
func AdminChannel() string {
	return adminChannel
}

// Publisher fans events out to courier and admin channels.
type Publisher struct {
	client *redis.Client
	logger *slog.Logger
}

// NewPublisher creates a Publisher over an existing Redis client.
func NewPublisher(client *redis.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// PublishToCouriers delivers the event to each courier's channel. A failed
// publish to one channel does not stop the rest; the first error is
// returned after all channels were attempted.
func (p *Publisher) PublishToCouriers(ctx context.Context, event ports.Event, courierIDs []kernel.UUID) error {
	if len(courierIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var firstErr error
	for _, courierID := range courierIDs {
		channel := CourierChannel(courierID)
		if err = p.client.Publish(ctx, channel, payload).Err(); err != nil {
			p.logger.WarnContext(ctx, "publish failed",
				slog.String("channel", channel),
				slog.String("event", event.Name),
				slog.Any("error", err))
			if firstErr == nil {
				firstErr = errs.NewTransientInfraError("publish "+channel, err)
			}
		}
	}

	return firstErr
}

// PublishToAdmin delivers the event to the admin dashboard channel.
func (p *Publisher) PublishToAdmin(ctx context.Context, event ports.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err = p.client.Publish(ctx, adminChannel, payload).Err(); err != nil {
		return errs.NewTransientInfraError("publish "+adminChannel, err)
	}

	return nil
}

// Package queue provides the Pub/Sub trigger-message source.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"

	"dts-connector/internal/domain"
)

// Compile-time check: PubSubSource implements the message source port.
var _ domain.MessageSource = (*PubSubSource)(nil)

// PubSubSource delivers transfer run triggers from a Pub/Sub subscription.
// Flow control bounds how many messages are in flight at once; the lease
// extension ceiling tracks the run timeout so an in-progress run keeps its
// message leased.
type PubSubSource struct {
	client *pubsub.Client
	sub    *pubsub.Subscription
	logger *slog.Logger
}

// NewPubSubSource opens the subscription
// "projects/{projectID}/subscriptions/{subscription}".
func NewPubSubSource(ctx context.Context, projectID, subscription string,
	maxConcurrent int, maxLease time.Duration, logger *slog.Logger,
	opts ...option.ClientOption) (*PubSubSource, error) {

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create Pub/Sub client: %w", err)
	}

	sub := client.Subscription(subscription)
	if maxConcurrent > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = maxConcurrent
	}
	if maxLease > 0 {
		sub.ReceiveSettings.MaxExtension = maxLease
	}

	return &PubSubSource{client: client, sub: sub, logger: logger}, nil
}

// Receive blocks delivering messages to handler until ctx is cancelled.
func (s *PubSubSource) Receive(ctx context.Context, handler domain.MessageHandler) error {
	s.logger.Info("listening for transfer run triggers", "subscription", s.sub.String())
	return s.sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		handler(ctx, domain.TriggerMessage{
			Data: m.Data,
			Ack:  m.Ack,
			Nack: m.Nack,
		})
	})
}

// Close releases the underlying client.
func (s *PubSubSource) Close() error { return s.client.Close() }

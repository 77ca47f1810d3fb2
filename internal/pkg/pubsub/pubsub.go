package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelEntitlementUpdates = "entitlement_updates"
)

// EntitlementMessage tells connected web clients that a user's
// subscription state changed and should be refetched
type EntitlementMessage struct {
	Type      string `json:"type"`
	UserID    int64  `json:"user_id"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	PlanLabel string `json:"plan_label,omitempty"`
	HasAccess bool   `json:"has_access"`
}

// Publisher publishes entitlement updates to Redis
type Publisher struct {
	client *redis.Client
}

// NewPublisher creates a Publisher
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishEntitlementUpdate publishes an update message
func (p *Publisher) PublishEntitlementUpdate(ctx context.Context, msg *EntitlementMessage) error {
	msg.Type = "entitlement_updated"

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal entitlement message: %w", err)
	}

	return p.client.Publish(ctx, ChannelEntitlementUpdates, data).Err()
}

// Subscriber receives entitlement updates from Redis
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber creates a Subscriber
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe delivers update messages to handler until ctx is done
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*EntitlementMessage)) error {
	pubsub := s.client.Subscribe(ctx, ChannelEntitlementUpdates)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var update EntitlementMessage
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				continue // skip malformed payloads
			}

			handler(&update)
		}
	}
}

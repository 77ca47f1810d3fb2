package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntitlementMessage_JSON(t *testing.T) {
	msg := &EntitlementMessage{
		Type:      "entitlement_updated",
		UserID:    1,
		EventID:   "evt_001",
		EventType: "subscription.updated",
		PlanLabel: "Yearly",
		HasAccess: true,
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	// Verify snake_case keys
	var raw map[string]interface{}
	err = json.Unmarshal(data, &raw)
	require.NoError(t, err)

	assert.Contains(t, raw, "user_id")
	assert.Contains(t, raw, "event_id")
	assert.Contains(t, raw, "event_type")
	assert.Contains(t, raw, "has_access")

	var decoded EntitlementMessage
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)

	assert.Equal(t, msg.UserID, decoded.UserID)
	assert.Equal(t, msg.EventID, decoded.EventID)
	assert.Equal(t, msg.PlanLabel, decoded.PlanLabel)
	assert.True(t, decoded.HasAccess)
}

func TestEntitlementMessage_OmitEmpty(t *testing.T) {
	msg := &EntitlementMessage{
		UserID:    1,
		EventID:   "evt_002",
		EventType: "subscription.canceled",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var raw map[string]interface{}
	err = json.Unmarshal(data, &raw)
	require.NoError(t, err)

	_, hasPlan := raw["plan_label"]
	assert.False(t, hasPlan, "empty plan_label should be omitted")
}

// Integration tests with real Redis (skip if not available)
func TestPublisherSubscriber_Integration(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	publisher := NewPublisher(client)
	subscriber := NewSubscriber(client)

	testCtx, testCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer testCancel()

	received := make(chan *EntitlementMessage, 1)

	go func() {
		subscriber.Subscribe(testCtx, func(msg *EntitlementMessage) {
			received <- msg
		})
	}()

	// Give subscriber time to connect
	time.Sleep(100 * time.Millisecond)

	msg := &EntitlementMessage{
		UserID:    123,
		EventID:   "evt_int",
		EventType: "subscription.activated",
		PlanLabel: "Monthly",
		HasAccess: true,
	}

	err := publisher.PublishEntitlementUpdate(testCtx, msg)
	require.NoError(t, err)

	select {
	case receivedMsg := <-received:
		assert.Equal(t, msg.UserID, receivedMsg.UserID)
		assert.Equal(t, msg.EventID, receivedMsg.EventID)
		assert.Equal(t, "entitlement_updated", receivedMsg.Type)
		assert.True(t, receivedMsg.HasAccess)
	case <-testCtx.Done():
		t.Fatal("Timeout waiting for message")
	}
}

func TestNewPublisher(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer client.Close()

	publisher := NewPublisher(client)
	assert.NotNil(t, publisher)
}

func TestNewSubscriber(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
	})
	defer client.Close()

	subscriber := NewSubscriber(client)
	assert.NotNil(t, subscriber)
}

package paddle

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// ErrInvalidSignature indicates a webhook whose signature does not
// verify against the configured secret
var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifyWebhookSignature validates a Paddle-Signature header of the
// form "ts=<unix>;h1=<hex hmac>" against the raw request body. The
// HMAC-SHA256 input is "<ts>:<body>".
func VerifyWebhookSignature(secret, signatureHeader string, body []byte) error {
	var ts, h1 string
	for _, part := range strings.Split(signatureHeader, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "ts":
			ts = kv[1]
		case "h1":
			h1 = kv[1]
		}
	}
	if ts == "" || h1 == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte(":"))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(h1)) {
		return ErrInvalidSignature
	}
	return nil
}

// WebhookEvent is the outer shape of a Paddle webhook notification
type WebhookEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Webhook event types the account server reacts to
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionUpdated   = "subscription.updated"
	EventSubscriptionCanceled  = "subscription.canceled"
	EventSubscriptionPastDue   = "subscription.past_due"
	EventTransactionCompleted  = "transaction.completed"
)

// ParseWebhookEvent decodes the webhook envelope
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, err
	}
	if evt.EventID == "" || evt.EventType == "" {
		return nil, errors.New("webhook event missing id or type")
	}
	return &evt, nil
}

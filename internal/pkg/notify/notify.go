// Package notify posts operational notifications to a Slack incoming
// webhook. Failures are surfaced but callers treat them as best-effort;
// a dropped notification never blocks a user flow.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Service struct {
	webhookURL string
	client     *http.Client
}

func NewService(webhookURL string) *Service {
	return &Service{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook URL is configured
func (s *Service) Enabled() bool {
	return s.webhookURL != ""
}

// NotifyCheckoutCompleted reports a completed checkout
func (s *Service) NotifyCheckoutCompleted(ctx context.Context, email, planLabel, amount string) error {
	text := fmt.Sprintf(":moneybag: Checkout completed\n*User:* %s\n*Plan:* %s\n*Amount:* %s", email, planLabel, amount)
	return s.post(ctx, text)
}

// NotifyCancelFeedback reports the reason a user gave when canceling
func (s *Service) NotifyCancelFeedback(ctx context.Context, email, reason, detail string) error {
	text := fmt.Sprintf(":wave: Subscription canceled\n*User:* %s\n*Reason:* %s", email, reason)
	if detail != "" {
		text += fmt.Sprintf("\n*Detail:* %s", detail)
	}
	return s.post(ctx, text)
}

// NotifyAccountDeleted reports an account deletion
func (s *Service) NotifyAccountDeleted(ctx context.Context, email string) error {
	text := fmt.Sprintf(":warning: Account deleted\n*User:* %s", email)
	return s.post(ctx, text)
}

// NotifyWebhookFailure reports a webhook event that could not be applied
func (s *Service) NotifyWebhookFailure(ctx context.Context, eventID, eventType, errMsg string) error {
	text := fmt.Sprintf(":rotating_light: Webhook processing failed\n*Event:* %s (%s)\n*Error:* %s", eventID, eventType, errMsg)
	return s.post(ctx, text)
}

func (s *Service) post(ctx context.Context, text string) error {
	if s.webhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post slack notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

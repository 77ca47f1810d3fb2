package model

import (
	"time"
)

const (
	WebhookStatusPending = "pending"
	WebhookStatusApplied = "applied"
	WebhookStatusFailed  = "failed"
)

// WebhookEvent stores a raw vendor notification. The unique EventID index
// makes redelivered webhooks no-ops.
type WebhookEvent struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	EventID     string     `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	EventType   string     `gorm:"size:50;not null" json:"event_type"`
	Payload     string     `gorm:"type:text" json:"-"`
	Status      string     `gorm:"size:20;default:pending;index" json:"status"`
	Error       string     `gorm:"size:500" json:"error,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

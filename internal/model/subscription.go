package model

import (
	"time"
)

// Subscription type and status enums mirror the Paddle webhook payloads.
const (
	SubscriptionTypeRecurring = "recurring"
	SubscriptionTypeLifetime  = "lifetime"

	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"

	IntervalMonth = "month"
	IntervalYear  = "year"
)

// Subscription is append-only per user: a resubscription inserts a new row
// instead of mutating the old one. Readers must always pick the newest row
// by SubscriptionCreatedAt and never assume a single row per user.
type Subscription struct {
	ID                      int64      `gorm:"primaryKey" json:"id"`
	UserID                  int64      `gorm:"not null;index" json:"user_id"`
	Type                    string     `gorm:"size:20;not null" json:"type"`                     // recurring, lifetime
	Status                  string     `gorm:"size:20;not null;index" json:"status"`             // active, past_due, canceled
	BillingCycleInterval    string     `gorm:"size:10" json:"billing_cycle_interval"`            // month, year (empty for lifetime)
	PriceID                 string     `gorm:"size:100;not null" json:"price_id"`
	PaddleSubscriptionID    *string    `gorm:"size:100;index" json:"-"`
	PaddleTransactionID     string     `gorm:"size:100" json:"-"`
	PaddleCustomerID        string     `gorm:"size:100" json:"-"`
	PeriodStart             time.Time  `gorm:"column:subscription_period_start" json:"subscription_period_start"`
	PeriodEnd               time.Time  `gorm:"column:subscription_period_end" json:"subscription_period_end"`
	NextBilledAt            *time.Time `json:"next_billed_at"`
	CanceledAt              *time.Time `json:"canceled_at"`
	ScheduledChangeAt       *time.Time `gorm:"column:scheduled_change_effective_at" json:"scheduled_change_effective_at"`
	ScheduledChangeInterval *string    `gorm:"column:scheduled_change_billing_cycle_interval;size:10" json:"scheduled_change_billing_cycle_interval"`
	SubscriptionCreatedAt   time.Time  `gorm:"not null;index" json:"subscription_created_at"`
	PaymentMethod           string     `gorm:"size:20" json:"payment_method,omitempty"` // card, paypal
	CardLast4               string     `gorm:"size:4" json:"card_last4,omitempty"`
	CardType                string     `gorm:"size:20" json:"card_type,omitempty"`
	CardExpiryMonth         int        `json:"card_expiry_month,omitempty"`
	CardExpiryYear          int        `json:"card_expiry_year,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

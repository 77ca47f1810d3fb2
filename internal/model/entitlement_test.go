package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

func TestPlanLabel(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		sub      *Subscription
		expected string
	}{
		{"nil is free", nil, "Free"},
		{"monthly", &Subscription{Type: SubscriptionTypeRecurring, BillingCycleInterval: IntervalMonth}, "Monthly"},
		{"yearly", &Subscription{Type: SubscriptionTypeRecurring, BillingCycleInterval: IntervalYear}, "Yearly"},
		{"lifetime", &Subscription{Type: SubscriptionTypeLifetime}, "Lifetime"},
		{"lifetime wins over interval", &Subscription{Type: SubscriptionTypeLifetime, BillingCycleInterval: IntervalYear}, "Lifetime"},
		{"canceled keeps its label", &Subscription{Type: SubscriptionTypeRecurring, BillingCycleInterval: IntervalYear, Status: SubscriptionStatusCanceled, PeriodEnd: now.AddDate(0, 0, 5)}, "Yearly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlanLabel(tt.sub))
		})
	}
}

func TestHasAccessAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		sub      *Subscription
		expected bool
	}{
		{"nil has no access", nil, false},
		{"active", &Subscription{Status: SubscriptionStatusActive}, true},
		{"past due keeps access", &Subscription{Status: SubscriptionStatusPastDue}, true},
		{"canceled inside paid period", &Subscription{Status: SubscriptionStatusCanceled, PeriodEnd: now.AddDate(0, 0, 10)}, true},
		{"canceled past paid period", &Subscription{Status: SubscriptionStatusCanceled, PeriodEnd: now.AddDate(0, 0, -1)}, false},
		{"lifetime active", &Subscription{Type: SubscriptionTypeLifetime, Status: SubscriptionStatusActive}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasAccessAt(tt.sub, now))
		})
	}
}

func TestIsExpiredAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		sub      *Subscription
		expected bool
	}{
		{"nil is expired", nil, true},
		{"active never expires", &Subscription{Status: SubscriptionStatusActive, PeriodEnd: now.AddDate(0, 0, -30)}, false},
		{"past due is not expired", &Subscription{Status: SubscriptionStatusPastDue, PeriodEnd: now.AddDate(0, 0, -30)}, false},
		{"canceled with period behind us", &Subscription{Status: SubscriptionStatusCanceled, PeriodEnd: now.AddDate(0, 0, -1)}, true},
		{"canceled with period remaining", &Subscription{Status: SubscriptionStatusCanceled, PeriodEnd: now.AddDate(0, 0, 5)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsExpiredAt(tt.sub, now))
		})
	}
}

func TestScheduledChangeFacts(t *testing.T) {
	now := time.Now()
	future := now.AddDate(0, 0, 14)
	past := now.AddDate(0, 0, -1)

	t.Run("downgrade carries a target interval", func(t *testing.T) {
		sub := &Subscription{
			Status:                  SubscriptionStatusActive,
			ScheduledChangeAt:       timePtr(future),
			ScheduledChangeInterval: strPtr(IntervalMonth),
		}
		assert.True(t, HasScheduledChange(sub, now))
		assert.False(t, HasScheduledCancel(sub, now))
	})

	t.Run("cancel carries no target interval", func(t *testing.T) {
		sub := &Subscription{
			Status:            SubscriptionStatusActive,
			ScheduledChangeAt: timePtr(future),
		}
		assert.False(t, HasScheduledChange(sub, now))
		assert.True(t, HasScheduledCancel(sub, now))
	})

	t.Run("past schedule is spent", func(t *testing.T) {
		sub := &Subscription{
			Status:                  SubscriptionStatusActive,
			ScheduledChangeAt:       timePtr(past),
			ScheduledChangeInterval: strPtr(IntervalMonth),
		}
		assert.False(t, HasScheduledChange(sub, now))
		assert.False(t, HasScheduledCancel(sub, now))
	})

	t.Run("nil has nothing scheduled", func(t *testing.T) {
		assert.False(t, HasScheduledChange(nil, now))
		assert.False(t, HasScheduledCancel(nil, now))
	})
}

func TestDeriveEntitlement(t *testing.T) {
	now := time.Now()

	t.Run("free user", func(t *testing.T) {
		e := DeriveEntitlement(nil, now)
		assert.Equal(t, "Free", e.PlanLabel)
		assert.False(t, e.Active)
		assert.True(t, e.Expired)
		assert.False(t, e.HasAccess)
	})

	t.Run("active yearly with pending downgrade", func(t *testing.T) {
		sub := &Subscription{
			Type:                    SubscriptionTypeRecurring,
			Status:                  SubscriptionStatusActive,
			BillingCycleInterval:    IntervalYear,
			ScheduledChangeAt:       timePtr(now.AddDate(0, 1, 0)),
			ScheduledChangeInterval: strPtr(IntervalMonth),
		}
		e := DeriveEntitlement(sub, now)
		assert.Equal(t, "Yearly", e.PlanLabel)
		assert.True(t, e.Active)
		assert.True(t, e.ScheduledDowngrade)
		assert.False(t, e.ScheduledCancel)
		assert.True(t, e.HasAccess)
	})

	t.Run("canceled but still paid up", func(t *testing.T) {
		sub := &Subscription{
			Type:                 SubscriptionTypeRecurring,
			Status:               SubscriptionStatusCanceled,
			BillingCycleInterval: IntervalMonth,
			PeriodEnd:            now.AddDate(0, 0, 12),
			CanceledAt:           timePtr(now.AddDate(0, 0, -2)),
		}
		e := DeriveEntitlement(sub, now)
		assert.True(t, e.Canceled)
		assert.False(t, e.Expired)
		assert.True(t, e.HasAccess)
	})
}

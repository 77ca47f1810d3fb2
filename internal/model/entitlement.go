package model

import (
	"time"
)

// Entitlement is the fact set derived from the newest subscription row.
// It is computed on every read and never stored.
type Entitlement struct {
	PlanLabel          string `json:"plan_label"`
	Active             bool   `json:"active"`
	PastDue            bool   `json:"past_due"`
	Canceled           bool   `json:"canceled"`
	Lifetime           bool   `json:"lifetime"`
	Expired            bool   `json:"expired"`
	ScheduledDowngrade bool   `json:"scheduled_downgrade"`
	ScheduledCancel    bool   `json:"scheduled_cancel"`
	HasAccess          bool   `json:"has_access"`
}

// DeriveEntitlement is total over a nil subscription: nil means no
// subscription has ever existed, which reads as Free and expired.
func DeriveEntitlement(sub *Subscription, now time.Time) Entitlement {
	return Entitlement{
		PlanLabel:          PlanLabel(sub),
		Active:             IsActive(sub),
		PastDue:            IsPastDue(sub),
		Canceled:           IsCanceled(sub),
		Lifetime:           IsLifetime(sub),
		Expired:            IsExpiredAt(sub, now),
		ScheduledDowngrade: HasScheduledChange(sub, now),
		ScheduledCancel:    HasScheduledCancel(sub, now),
		HasAccess:          HasAccessAt(sub, now),
	}
}

func IsActive(sub *Subscription) bool {
	return sub != nil && sub.Status == SubscriptionStatusActive
}

func IsPastDue(sub *Subscription) bool {
	return sub != nil && sub.Status == SubscriptionStatusPastDue
}

func IsCanceled(sub *Subscription) bool {
	return sub != nil && sub.Status == SubscriptionStatusCanceled
}

func IsLifetime(sub *Subscription) bool {
	return sub != nil && sub.Type == SubscriptionTypeLifetime
}

// IsExpiredAt reports whether the subscription no longer grants anything:
// canceled with the paid period behind us. Other statuses never expire here,
// past_due is handled by the billing retry cycle.
func IsExpiredAt(sub *Subscription, now time.Time) bool {
	if sub == nil {
		return true
	}
	if sub.Status == SubscriptionStatusCanceled {
		return sub.PeriodEnd.Before(now)
	}
	return false
}

// HasScheduledChange reports a pending downgrade: a scheduled change that has
// not taken effect yet and carries a target interval.
func HasScheduledChange(sub *Subscription, now time.Time) bool {
	if sub == nil || sub.ScheduledChangeAt == nil {
		return false
	}
	return sub.ScheduledChangeAt.After(now) && sub.ScheduledChangeInterval != nil
}

// HasScheduledCancel reports a pending plain cancellation: a scheduled change
// with no target interval.
func HasScheduledCancel(sub *Subscription, now time.Time) bool {
	if sub == nil || sub.ScheduledChangeAt == nil {
		return false
	}
	return sub.ScheduledChangeAt.After(now) && sub.ScheduledChangeInterval == nil
}

// HasAccessAt reports whether the user can use paid features right now.
// Canceled subscriptions keep access until the paid period runs out.
func HasAccessAt(sub *Subscription, now time.Time) bool {
	if sub == nil {
		return false
	}
	switch sub.Status {
	case SubscriptionStatusActive, SubscriptionStatusPastDue:
		return true
	case SubscriptionStatusCanceled:
		return !sub.PeriodEnd.Before(now)
	}
	return false
}

func PlanLabel(sub *Subscription) string {
	if sub == nil {
		return "Free"
	}
	if sub.Type == SubscriptionTypeLifetime {
		return "Lifetime"
	}
	if sub.BillingCycleInterval == IntervalYear {
		return "Yearly"
	}
	return "Monthly"
}

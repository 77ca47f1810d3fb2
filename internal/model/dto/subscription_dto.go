package dto

import (
	"time"

	"github.com/screenpro/account-server/internal/model"
)

// SubscriptionResponse is what the account page renders: the newest row (or
// null for free users) plus the derived fact set. Stale reports whether the
// snapshot came from the cache because the backing fetch failed, so the
// client can tell "confirmed free" from "unknown due to error".
type SubscriptionResponse struct {
	Subscription *model.Subscription `json:"subscription"`
	Entitlement  model.Entitlement   `json:"entitlement"`
	Stale        bool                `json:"stale,omitempty"`
}

type PlanPreviewRequest struct {
	PriceID string `json:"price_id" binding:"required"`
}

type PlanConfirmRequest struct {
	PriceID string `json:"price_id" binding:"required"`
}

// PlanPreviewResponse carries exactly one of the three preview shapes,
// discriminated by Kind. All amounts are integer minor units.
type PlanPreviewResponse struct {
	Kind     string                `json:"kind"` // upgrade, downgrade, lifetime
	Upgrade  *UpgradePreview       `json:"upgrade,omitempty"`
	Schedule *ScheduledChangeInfo  `json:"schedule,omitempty"`
	Lifetime *LifetimePreview      `json:"lifetime,omitempty"`
}

type UpgradePreview struct {
	Credit int64 `json:"credit"`
	Charge int64 `json:"charge"`
	Result int64 `json:"result"`
}

type ScheduledChangeInfo struct {
	EffectiveAt time.Time `json:"effective_at"`
	NewInterval string    `json:"new_interval"`
}

type LifetimePreview struct {
	Credit     int64  `json:"credit"`
	ListPrice  int64  `json:"list_price"`
	NetAmount  int64  `json:"net_amount"`
	DiscountID string `json:"discount_id,omitempty"`
}

// CheckoutDescriptor tells the web client how to open the Paddle.js hosted
// checkout. It is the lifetime path's stand-in for a confirm call.
type CheckoutDescriptor struct {
	PriceID    string `json:"price_id"`
	DiscountID string `json:"discount_id,omitempty"`
	Email      string `json:"email,omitempty"`
	UserID     int64  `json:"user_id"`
}

type PortalResponse struct {
	CancelURL              string `json:"cancel_url"`
	UpdatePaymentMethodURL string `json:"update_payment_method_url"`
}

type CancelFeedbackRequest struct {
	Reason string `json:"reason" binding:"required"`
	Detail string `json:"detail"`
}

package paddle

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Proration modes used when changing subscription items
const (
	ProrationProratedImmediately = "prorated_immediately"
	ProrationDoNotBill           = "do_not_bill"
)

type itemRef struct {
	PriceID  string `json:"price_id"`
	Quantity int    `json:"quantity"`
}

type updateRequest struct {
	Items                []itemRef `json:"items"`
	ProrationBillingMode string    `json:"proration_billing_mode,omitempty"`
	ScheduledChange      *struct{} `json:"scheduled_change,omitempty"`
}

// ResultAction is the direction of a prorated settlement
type ResultAction string

const (
	ResultActionCharge ResultAction = "charge"
	ResultActionCredit ResultAction = "credit"
)

// Amount is a monetary value as Paddle sends it (minor units in a string)
type Amount struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// UpdateSummary is the proration breakdown in a subscription preview
type UpdateSummary struct {
	Credit Amount `json:"credit"`
	Charge Amount `json:"charge"`
	Result struct {
		Action       ResultAction `json:"action"`
		Amount       string       `json:"amount"`
		CurrencyCode string       `json:"currency_code"`
	} `json:"result"`
}

// ScheduledChange describes a pending change on a subscription
type ScheduledChange struct {
	Action      string     `json:"action"`
	EffectiveAt time.Time  `json:"effective_at"`
	ResumeAt    *time.Time `json:"resume_at"`
}

// Subscription is the subset of Paddle's subscription entity the
// account server reads
type Subscription struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	CustomerID      string           `json:"customer_id"`
	CreatedAt       time.Time        `json:"created_at"`
	CanceledAt      *time.Time       `json:"canceled_at"`
	NextBilledAt    *time.Time       `json:"next_billed_at"`
	ScheduledChange *ScheduledChange `json:"scheduled_change"`
	CurrentBillingPeriod *struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
	Items []struct {
		Price struct {
			ID          string `json:"id"`
			BillingCycle *struct {
				Interval  string `json:"interval"`
				Frequency int    `json:"frequency"`
			} `json:"billing_cycle"`
		} `json:"price"`
	} `json:"items"`
}

// PreviewResponse is the result of a subscription update preview
type PreviewResponse struct {
	Status          string           `json:"status"`
	UpdateSummary   *UpdateSummary   `json:"update_summary"`
	ScheduledChange *ScheduledChange `json:"scheduled_change"`
	NextBilledAt    *time.Time       `json:"next_billed_at"`
	CurrentBillingPeriod *struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
	} `json:"current_billing_period"`
}

// GetSubscription fetches a subscription by id
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	err := c.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// PreviewUpdate previews swapping the subscription to priceID without
// applying it. prorationMode controls whether the change would bill
// immediately or wait for the next period.
func (c *Client) PreviewUpdate(ctx context.Context, subscriptionID, priceID, prorationMode string) (*PreviewResponse, error) {
	req := updateRequest{
		Items:                []itemRef{{PriceID: priceID, Quantity: 1}},
		ProrationBillingMode: prorationMode,
	}
	var preview PreviewResponse
	err := c.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/preview", req, &preview)
	if err != nil {
		return nil, err
	}
	return &preview, nil
}

// Update applies a price change to the subscription
func (c *Client) Update(ctx context.Context, subscriptionID, priceID, prorationMode string) (*Subscription, error) {
	req := updateRequest{
		Items:                []itemRef{{PriceID: priceID, Quantity: 1}},
		ProrationBillingMode: prorationMode,
	}
	var sub Subscription
	err := c.do(ctx, http.MethodPatch, "/subscriptions/"+subscriptionID, req, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

type cancelRequest struct {
	EffectiveFrom string `json:"effective_from"`
}

// Cancel schedules cancellation at the end of the current billing
// period
func (c *Client) Cancel(ctx context.Context, subscriptionID string) (*Subscription, error) {
	req := cancelRequest{EffectiveFrom: "next_billing_period"}
	var sub Subscription
	err := c.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/cancel", req, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// Resume removes a scheduled cancellation so billing continues
func (c *Client) Resume(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	err := c.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID+"/resume", struct{}{}, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// RemoveScheduledChange clears a pending scheduled change (used to undo
// a scheduled downgrade or cancellation)
func (c *Client) RemoveScheduledChange(ctx context.Context, subscriptionID string) (*Subscription, error) {
	body := map[string]interface{}{"scheduled_change": nil}
	var sub Subscription
	err := c.do(ctx, http.MethodPatch, "/subscriptions/"+subscriptionID, body, &sub)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// PortalSubscriptionURLs holds the per-subscription deep links in a
// portal session
type PortalSubscriptionURLs struct {
	ID                              string `json:"id"`
	CancelSubscription              string `json:"cancel_subscription"`
	UpdateSubscriptionPaymentMethod string `json:"update_subscription_payment_method"`
}

// PortalSession is a customer-portal session with entry URLs
type PortalSession struct {
	ID   string `json:"id"`
	URLs struct {
		General struct {
			Overview string `json:"overview"`
		} `json:"general"`
		Subscriptions []PortalSubscriptionURLs `json:"subscriptions"`
	} `json:"urls"`
}

type portalSessionRequest struct {
	SubscriptionIDs []string `json:"subscription_ids,omitempty"`
}

// CreatePortalSession creates a customer portal session. Passing
// subscription ids adds per-subscription cancel and payment-method
// deep links to the response.
func (c *Client) CreatePortalSession(ctx context.Context, customerID string, subscriptionIDs ...string) (*PortalSession, error) {
	var session PortalSession
	path := fmt.Sprintf("/customers/%s/portal-sessions", customerID)
	err := c.do(ctx, http.MethodPost, path, portalSessionRequest{SubscriptionIDs: subscriptionIDs}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

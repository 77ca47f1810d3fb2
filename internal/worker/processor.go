package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/pkg/money"
	"github.com/screenpro/account-server/internal/pkg/notify"
	"github.com/screenpro/account-server/internal/pkg/pubsub"
	"github.com/screenpro/account-server/internal/pkg/queue"
	"github.com/screenpro/account-server/internal/repository"
)

var errUserNotResolved = errors.New("could not resolve user for webhook event")

// Processor applies queued webhook events to the subscription store.
// Rows are append-only: each event that changes subscription state
// inserts a fresh row, never mutates an old one.
type Processor struct {
	eventRepo *repository.WebhookEventRepository
	subRepo   *repository.SubscriptionRepository
	userRepo  *repository.UserRepository
	publisher *pubsub.Publisher
	notifier  *notify.Service
	cfg       *config.Config
}

func NewProcessor(
	eventRepo *repository.WebhookEventRepository,
	subRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	publisher *pubsub.Publisher,
	notifier *notify.Service,
	cfg *config.Config,
) *Processor {
	return &Processor{
		eventRepo: eventRepo,
		subRepo:   subRepo,
		userRepo:  userRepo,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// customData is the metadata the web client attaches at checkout time
type customData struct {
	UserID int64 `json:"user_id,string"`
}

// subscriptionEventData is a Paddle subscription entity plus checkout
// metadata
type subscriptionEventData struct {
	paddle.Subscription
	CustomData customData `json:"custom_data"`
}

// transactionEventData is the slice of a Paddle transaction the worker
// reads
type transactionEventData struct {
	ID         string     `json:"id"`
	CustomerID string     `json:"customer_id"`
	CustomData customData `json:"custom_data"`
	BilledAt   *time.Time `json:"billed_at"`
	Items      []struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	Details struct {
		Totals struct {
			GrandTotal   string `json:"grand_total"`
			CurrencyCode string `json:"currency_code"`
		} `json:"totals"`
	} `json:"details"`
	Payments []struct {
		MethodDetails struct {
			Type string `json:"type"`
			Card *struct {
				Type        string `json:"type"`
				Last4       string `json:"last4"`
				ExpiryMonth int    `json:"expiry_month"`
				ExpiryYear  int    `json:"expiry_year"`
			} `json:"card"`
		} `json:"method_details"`
	} `json:"payments"`
}

// Process applies one queued event. Errors are recorded on the event
// row; a failed event is not retried automatically.
func (p *Processor) Process(ctx context.Context, msg *queue.WebhookMessage) error {
	record, err := p.eventRepo.GetByEventID(msg.EventID)
	if err != nil {
		return fmt.Errorf("failed to load webhook event %s: %w", msg.EventID, err)
	}
	if record.Status == model.WebhookStatusApplied {
		// Redelivered via the queue; already done
		return nil
	}

	evt, err := paddle.ParseWebhookEvent([]byte(record.Payload))
	if err != nil {
		p.fail(ctx, record, err)
		return err
	}

	switch evt.EventType {
	case paddle.EventSubscriptionCreated,
		paddle.EventSubscriptionUpdated,
		paddle.EventSubscriptionCanceled,
		paddle.EventSubscriptionPastDue:
		err = p.applySubscriptionEvent(ctx, evt)
	case paddle.EventTransactionCompleted:
		err = p.applyTransactionEvent(ctx, evt)
	default:
		// Unhandled event types are acknowledged, not failed
		log.Printf("Processor: ignoring event type %s (%s)", evt.EventType, evt.EventID)
		return p.eventRepo.MarkApplied(evt.EventID)
	}

	if err != nil {
		p.fail(ctx, record, err)
		return err
	}
	return p.eventRepo.MarkApplied(evt.EventID)
}

func (p *Processor) fail(ctx context.Context, record *model.WebhookEvent, err error) {
	if merr := p.eventRepo.MarkFailed(record.EventID, err.Error()); merr != nil {
		log.Printf("Processor: failed to mark event %s failed: %v", record.EventID, merr)
	}
	if p.notifier.Enabled() {
		if nerr := p.notifier.NotifyWebhookFailure(ctx, record.EventID, record.EventType, err.Error()); nerr != nil {
			log.Printf("Processor: failure notification failed: %v", nerr)
		}
	}
}

func (p *Processor) resolveUser(customerID string, data customData) (*model.User, error) {
	if data.UserID > 0 {
		user, err := p.userRepo.GetByID(data.UserID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if customerID != "" {
		user, err := p.userRepo.GetByPaddleCustomerID(customerID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: customer %q", errUserNotResolved, customerID)
}

// bindCustomer stores the vendor customer id on the user the first
// time we see it, so later events resolve without custom data
func (p *Processor) bindCustomer(user *model.User, customerID string) {
	if customerID == "" || (user.PaddleCustomerID != nil && *user.PaddleCustomerID == customerID) {
		return
	}
	if err := p.userRepo.UpdateFields(user.ID, map[string]interface{}{"paddle_customer_id": customerID}); err != nil {
		log.Printf("Processor: failed to bind customer %s to user %d: %v", customerID, user.ID, err)
	}
}

func (p *Processor) applySubscriptionEvent(ctx context.Context, evt *paddle.WebhookEvent) error {
	var data subscriptionEventData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return fmt.Errorf("failed to decode subscription data: %w", err)
	}

	user, err := p.resolveUser(data.CustomerID, data.CustomData)
	if err != nil {
		return err
	}
	p.bindCustomer(user, data.CustomerID)

	status := data.Status
	var canceledAt *time.Time
	if evt.EventType == paddle.EventSubscriptionCanceled {
		status = model.SubscriptionStatusCanceled
		at := evt.OccurredAt
		canceledAt = &at
		if data.CanceledAt != nil {
			canceledAt = data.CanceledAt
		}
	}

	var priceID, interval string
	if len(data.Items) > 0 {
		priceID = data.Items[0].Price.ID
		if data.Items[0].Price.BillingCycle != nil {
			interval = data.Items[0].Price.BillingCycle.Interval
		}
	}

	subID := data.ID
	row := &model.Subscription{
		UserID:                user.ID,
		Type:                  model.SubscriptionTypeRecurring,
		Status:                status,
		BillingCycleInterval:  interval,
		PriceID:               priceID,
		PaddleSubscriptionID:  &subID,
		PaddleCustomerID:      data.CustomerID,
		NextBilledAt:          data.NextBilledAt,
		CanceledAt:            canceledAt,
		SubscriptionCreatedAt: data.CreatedAt,
	}
	if data.CurrentBillingPeriod != nil {
		row.PeriodStart = data.CurrentBillingPeriod.StartsAt
		row.PeriodEnd = data.CurrentBillingPeriod.EndsAt
	}
	if data.ScheduledChange != nil {
		at := data.ScheduledChange.EffectiveAt
		row.ScheduledChangeAt = &at
		if data.ScheduledChange.Action == "update" {
			// The vendor omits the target interval; a scheduled update on
			// this product is always the yearly-to-monthly downgrade.
			monthly := model.IntervalMonth
			row.ScheduledChangeInterval = &monthly
		}
	}
	if row.SubscriptionCreatedAt.IsZero() {
		row.SubscriptionCreatedAt = evt.OccurredAt
	}

	if err := p.subRepo.Create(row); err != nil {
		return fmt.Errorf("failed to append subscription row: %w", err)
	}

	p.publish(ctx, user.ID, evt, row)
	return nil
}

func (p *Processor) applyTransactionEvent(ctx context.Context, evt *paddle.WebhookEvent) error {
	var data transactionEventData
	if err := json.Unmarshal(evt.Data, &data); err != nil {
		return fmt.Errorf("failed to decode transaction data: %w", err)
	}

	user, err := p.resolveUser(data.CustomerID, data.CustomData)
	if err != nil {
		return err
	}
	p.bindCustomer(user, data.CustomerID)

	lifetime := false
	var priceID string
	for _, item := range data.Items {
		if item.Price.ID == p.cfg.Paddle.PriceLifetime {
			lifetime = true
			priceID = item.Price.ID
			break
		}
	}

	if p.notifier.Enabled() {
		amount := data.Details.Totals.GrandTotal
		if cents, perr := money.ParseVendorAmount(amount); perr == nil {
			amount = money.FormatCents(cents)
		}
		label := "Recurring"
		if lifetime {
			label = "Lifetime"
		}
		if nerr := p.notifier.NotifyCheckoutCompleted(ctx, user.Email, label, amount); nerr != nil {
			log.Printf("Processor: checkout notification failed: %v", nerr)
		}
	}

	if !lifetime {
		// Recurring checkouts are recorded by their subscription events
		return nil
	}

	at := evt.OccurredAt
	if data.BilledAt != nil {
		at = *data.BilledAt
	}
	row := &model.Subscription{
		UserID:                user.ID,
		Type:                  model.SubscriptionTypeLifetime,
		Status:                model.SubscriptionStatusActive,
		PriceID:               priceID,
		PaddleTransactionID:   data.ID,
		PaddleCustomerID:      data.CustomerID,
		SubscriptionCreatedAt: at,
	}
	for _, payment := range data.Payments {
		if payment.MethodDetails.Card != nil {
			row.PaymentMethod = payment.MethodDetails.Type
			row.CardType = payment.MethodDetails.Card.Type
			row.CardLast4 = payment.MethodDetails.Card.Last4
			row.CardExpiryMonth = payment.MethodDetails.Card.ExpiryMonth
			row.CardExpiryYear = payment.MethodDetails.Card.ExpiryYear
			break
		}
	}

	if err := p.subRepo.Create(row); err != nil {
		return fmt.Errorf("failed to append lifetime row: %w", err)
	}

	p.publish(ctx, user.ID, evt, row)
	return nil
}

func (p *Processor) publish(ctx context.Context, userID int64, evt *paddle.WebhookEvent, row *model.Subscription) {
	msg := &pubsub.EntitlementMessage{
		UserID:    userID,
		EventID:   evt.EventID,
		EventType: evt.EventType,
		PlanLabel: model.PlanLabel(row),
		HasAccess: model.HasAccessAt(row, time.Now()),
	}
	if err := p.publisher.PublishEntitlementUpdate(ctx, msg); err != nil {
		log.Printf("Processor: failed to publish entitlement update for user %d: %v", userID, err)
	}
}

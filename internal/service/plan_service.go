package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/money"
	"github.com/screenpro/account-server/internal/repository"
)

var (
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrUnknownPrice         = errors.New("unknown price id")
	ErrConfirmInFlight      = errors.New("a plan change is already in progress")
	ErrPreviewUnavailable   = errors.New("preview unavailable")
	ErrNotScheduledToCancel = errors.New("subscription is not scheduled to change")
)

// Change kinds returned by Preview
const (
	ChangeKindUpgrade   = "upgrade"
	ChangeKindDowngrade = "downgrade"
	ChangeKindLifetime  = "lifetime"
)

// paddleAPI is the slice of the Paddle client the orchestrator uses
type paddleAPI interface {
	PreviewUpdate(ctx context.Context, subscriptionID, priceID, prorationMode string) (*paddle.PreviewResponse, error)
	Update(ctx context.Context, subscriptionID, priceID, prorationMode string) (*paddle.Subscription, error)
	PreviewTransaction(ctx context.Context, priceID, customerID, discountID string) (*paddle.TransactionPreview, error)
	Resume(ctx context.Context, subscriptionID string) (*paddle.Subscription, error)
	RemoveScheduledChange(ctx context.Context, subscriptionID string) (*paddle.Subscription, error)
	CreatePortalSession(ctx context.Context, customerID string, subscriptionIDs ...string) (*paddle.PortalSession, error)
}

// PlanService runs the preview-then-confirm protocol for plan changes
// against the payments vendor
type PlanService struct {
	subs    *SubscriptionService
	subRepo *repository.SubscriptionRepository
	vendor  paddleAPI
	cfg     *config.Config

	mu       sync.Mutex
	inFlight map[int64]bool // per-user confirm guard

	settleDelay time.Duration
}

func NewPlanService(subs *SubscriptionService, subRepo *repository.SubscriptionRepository, vendor paddleAPI, cfg *config.Config) *PlanService {
	delay := time.Duration(cfg.Plan.SettleDelaySeconds) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &PlanService{
		subs:        subs,
		subRepo:     subRepo,
		vendor:      vendor,
		cfg:         cfg,
		inFlight:    make(map[int64]bool),
		settleDelay: delay,
	}
}

// classify decides the change kind from the current subscription and
// the target price
func (s *PlanService) classify(sub *model.Subscription, priceID string) (string, error) {
	switch priceID {
	case s.cfg.Paddle.PriceLifetime:
		return ChangeKindLifetime, nil
	case s.cfg.Paddle.PriceYearly:
		if sub.BillingCycleInterval == model.IntervalYear {
			return "", fmt.Errorf("%w: already on yearly", ErrUnknownPrice)
		}
		return ChangeKindUpgrade, nil
	case s.cfg.Paddle.PriceMonthly:
		if sub.BillingCycleInterval == model.IntervalMonth {
			return "", fmt.Errorf("%w: already on monthly", ErrUnknownPrice)
		}
		return ChangeKindDowngrade, nil
	default:
		return "", ErrUnknownPrice
	}
}

func (s *PlanService) activeRecurring(userID int64) (*model.Subscription, error) {
	sub, err := s.subs.Latest(userID)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.PaddleSubscriptionID == nil || !model.HasAccessAt(sub, time.Now()) {
		return nil, ErrNoActiveSubscription
	}
	return sub, nil
}

// Preview runs the vendor preview for the requested change without
// applying anything. The response shape depends on the change kind.
func (s *PlanService) Preview(ctx context.Context, userID int64, priceID string) (*dto.PlanPreviewResponse, error) {
	sub, err := s.activeRecurring(userID)
	if err != nil {
		return nil, err
	}

	kind, err := s.classify(sub, priceID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case ChangeKindUpgrade:
		return s.previewUpgrade(ctx, sub, priceID)
	case ChangeKindDowngrade:
		return s.previewDowngrade(ctx, sub, priceID)
	default:
		return s.previewLifetime(ctx, sub)
	}
}

func (s *PlanService) previewUpgrade(ctx context.Context, sub *model.Subscription, priceID string) (*dto.PlanPreviewResponse, error) {
	preview, err := s.vendor.PreviewUpdate(ctx, *sub.PaddleSubscriptionID, priceID, paddle.ProrationProratedImmediately)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	if preview.UpdateSummary == nil {
		return nil, fmt.Errorf("%w: vendor returned no update summary", ErrPreviewUnavailable)
	}

	credit, err := money.ParseVendorAmount(preview.UpdateSummary.Credit.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	charge, err := money.ParseVendorAmount(preview.UpdateSummary.Charge.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	result, err := money.ParseVendorAmount(preview.UpdateSummary.Result.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}

	return &dto.PlanPreviewResponse{
		Kind: ChangeKindUpgrade,
		Upgrade: &dto.UpgradePreview{
			Credit: credit,
			Charge: charge,
			Result: result,
		},
	}, nil
}

func (s *PlanService) previewDowngrade(ctx context.Context, sub *model.Subscription, priceID string) (*dto.PlanPreviewResponse, error) {
	// No immediate charge: the current plan stays billed until the
	// period boundary, then the lower price takes over.
	effectiveAt := sub.PeriodEnd
	if sub.NextBilledAt != nil {
		effectiveAt = *sub.NextBilledAt
	}
	preview, err := s.vendor.PreviewUpdate(ctx, *sub.PaddleSubscriptionID, priceID, paddle.ProrationDoNotBill)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	if preview.ScheduledChange != nil {
		effectiveAt = preview.ScheduledChange.EffectiveAt
	} else if preview.NextBilledAt != nil {
		effectiveAt = *preview.NextBilledAt
	}

	return &dto.PlanPreviewResponse{
		Kind: ChangeKindDowngrade,
		Schedule: &dto.ScheduledChangeInfo{
			EffectiveAt: effectiveAt,
			NewInterval: model.IntervalMonth,
		},
	}, nil
}

func (s *PlanService) previewLifetime(ctx context.Context, sub *model.Subscription) (*dto.PlanPreviewResponse, error) {
	preview, err := s.vendor.PreviewTransaction(ctx, s.cfg.Paddle.PriceLifetime, sub.PaddleCustomerID, s.cfg.Paddle.LifetimeDiscountID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}

	totals := preview.Details.Totals
	listPrice, err := money.ParseVendorAmount(totals.Subtotal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	credit, err := money.ParseVendorAmount(totals.Credit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}
	net, err := money.ParseVendorAmount(totals.GrandTotal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPreviewUnavailable, err)
	}

	return &dto.PlanPreviewResponse{
		Kind: ChangeKindLifetime,
		Lifetime: &dto.LifetimePreview{
			Credit:     credit,
			ListPrice:  listPrice,
			NetAmount:  net,
			DiscountID: s.cfg.Paddle.LifetimeDiscountID,
		},
	}, nil
}

// beginConfirm marks a confirm in flight for the user, rejecting
// duplicates
func (s *PlanService) beginConfirm(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userID] {
		return ErrConfirmInFlight
	}
	s.inFlight[userID] = true
	return nil
}

func (s *PlanService) endConfirm(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

// Confirm applies a previously previewed upgrade or downgrade. Lifetime
// purchases do not come here; they go through LifetimeCheckout. After
// the vendor accepts, the entitlement snapshot is refetched once the
// settle delay has passed, tolerating webhook propagation.
func (s *PlanService) Confirm(ctx context.Context, userID int64, priceID string) error {
	if err := s.beginConfirm(userID); err != nil {
		return err
	}
	defer s.endConfirm(userID)

	sub, err := s.activeRecurring(userID)
	if err != nil {
		return err
	}

	kind, err := s.classify(sub, priceID)
	if err != nil {
		return err
	}

	switch kind {
	case ChangeKindUpgrade:
		_, err = s.vendor.Update(ctx, *sub.PaddleSubscriptionID, priceID, paddle.ProrationProratedImmediately)
	case ChangeKindDowngrade:
		_, err = s.vendor.Update(ctx, *sub.PaddleSubscriptionID, priceID, paddle.ProrationDoNotBill)
	default:
		return fmt.Errorf("%w: lifetime purchases go through checkout", ErrUnknownPrice)
	}
	if err != nil {
		return err
	}

	go s.subs.RefreshAfter(context.Background(), userID, s.settleDelay)
	return nil
}

// LifetimeCheckout builds the descriptor the web client uses to open
// the vendor's hosted checkout for the lifetime plan. There is no
// confirm call: the checkout's completion webhook is the real
// confirmation signal.
func (s *PlanService) LifetimeCheckout(userID int64, email string) *dto.CheckoutDescriptor {
	return &dto.CheckoutDescriptor{
		PriceID:    s.cfg.Paddle.PriceLifetime,
		DiscountID: s.cfg.Paddle.LifetimeDiscountID,
		Email:      email,
		UserID:     userID,
	}
}

// Reactivate undoes a scheduled cancellation or downgrade, then
// refetches entitlement after the settle delay. One-shot, no preview.
func (s *PlanService) Reactivate(ctx context.Context, userID int64) error {
	if err := s.beginConfirm(userID); err != nil {
		return err
	}
	defer s.endConfirm(userID)

	sub, err := s.activeRecurring(userID)
	if err != nil {
		return err
	}

	now := time.Now()
	switch {
	case model.HasScheduledCancel(sub, now):
		_, err = s.vendor.Resume(ctx, *sub.PaddleSubscriptionID)
	case model.HasScheduledChange(sub, now):
		_, err = s.vendor.RemoveScheduledChange(ctx, *sub.PaddleSubscriptionID)
	default:
		return ErrNotScheduledToCancel
	}
	if err != nil {
		return err
	}

	go s.subs.RefreshAfter(context.Background(), userID, s.settleDelay)
	return nil
}

// Portal creates vendor portal links for cancellation and payment
// method management
func (s *PlanService) Portal(ctx context.Context, userID int64) (*dto.PortalResponse, error) {
	sub, err := s.activeRecurring(userID)
	if err != nil {
		return nil, err
	}

	session, err := s.vendor.CreatePortalSession(ctx, sub.PaddleCustomerID, *sub.PaddleSubscriptionID)
	if err != nil {
		return nil, err
	}

	resp := &dto.PortalResponse{}
	for _, u := range session.URLs.Subscriptions {
		if u.ID == *sub.PaddleSubscriptionID {
			resp.CancelURL = u.CancelSubscription
			resp.UpdatePaymentMethodURL = u.UpdateSubscriptionPaymentMethod
		}
	}
	if resp.CancelURL == "" {
		resp.CancelURL = session.URLs.General.Overview
	}
	if resp.UpdatePaymentMethodURL == "" {
		resp.UpdatePaymentMethodURL = session.URLs.General.Overview
	}
	return resp, nil
}

// SettleDelay exposes the configured delay, mostly for handlers and
// tests
func (s *PlanService) SettleDelay() time.Duration {
	return s.settleDelay
}

package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

// TestUser creates a test user
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	nano := time.Now().UnixNano()
	user := &model.User{
		Email:       fmt.Sprintf("test_%d@example.com", nano),
		Name:        "Test User",
		Provider:    "google",
		ProviderUID: fmt.Sprintf("google-uid-%d", nano),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail sets the user's email
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithProvider sets the OAuth provider and uid
func WithProvider(provider, uid string) func(*model.User) {
	return func(u *model.User) {
		u.Provider = provider
		u.ProviderUID = uid
	}
}

// WithPaddleCustomer sets the vendor customer id
func WithPaddleCustomer(customerID string) func(*model.User) {
	return func(u *model.User) {
		u.PaddleCustomerID = &customerID
	}
}

// TestSubscription creates a subscription row for the user. Defaults to
// an active monthly recurring plan created now.
func TestSubscription(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	now := time.Now()
	subID := fmt.Sprintf("sub_%d", now.UnixNano())
	sub := &model.Subscription{
		UserID:                userID,
		Type:                  model.SubscriptionTypeRecurring,
		Status:                model.SubscriptionStatusActive,
		BillingCycleInterval:  model.IntervalMonth,
		PriceID:               "pri_monthly",
		PaddleSubscriptionID:  &subID,
		PaddleCustomerID:      "ctm_test",
		PeriodStart:           now.AddDate(0, 0, -10),
		PeriodEnd:             now.AddDate(0, 0, 20),
		SubscriptionCreatedAt: now,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStatus sets the subscription status
func WithStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithInterval sets the billing cycle interval and matching price id
func WithInterval(interval string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.BillingCycleInterval = interval
		if interval == model.IntervalYear {
			s.PriceID = "pri_yearly"
		} else {
			s.PriceID = "pri_monthly"
		}
	}
}

// WithLifetime turns the row into a lifetime purchase
func WithLifetime() func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Type = model.SubscriptionTypeLifetime
		s.BillingCycleInterval = ""
		s.PriceID = "pri_lifetime"
		s.PaddleSubscriptionID = nil
		s.PaddleTransactionID = fmt.Sprintf("txn_%d", time.Now().UnixNano())
	}
}

// WithSubscriptionCreatedAt sets the append-ordering timestamp
func WithSubscriptionCreatedAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.SubscriptionCreatedAt = at
	}
}

// WithPeriod sets the current billing period
func WithPeriod(start, end time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.PeriodStart = start
		s.PeriodEnd = end
	}
}

// WithCanceledAt marks the subscription canceled at the given time
func WithCanceledAt(at time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = model.SubscriptionStatusCanceled
		s.CanceledAt = &at
	}
}

// WithScheduledChange sets a pending downgrade
func WithScheduledChange(effectiveAt time.Time, interval string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ScheduledChangeAt = &effectiveAt
		if interval != "" {
			s.ScheduledChangeInterval = &interval
		}
	}
}

// TestSession creates a session row for the user
func TestSession(t *testing.T, db *gorm.DB, userID int64, tokenID, secretHash string) *model.Session {
	t.Helper()

	session := &model.Session{
		TokenID:    tokenID,
		SecretHash: secretHash,
		UserID:     userID,
		ExpiresAt:  time.Now().Add(30 * 24 * time.Hour),
	}

	if err := db.Create(session).Error; err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return session
}

package repository

import (
	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create appends a subscription row. Rows are never updated in place;
// every webhook event that changes state inserts a fresh row and
// readers pick the latest.
func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// GetLatestByUserID returns the newest subscription row for the user,
// or (nil, nil) when the user has none
func (r *SubscriptionRepository) GetLatestByUserID(userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("subscription_created_at DESC, id DESC").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetLatestByPaddleSubscriptionID returns the newest row for a vendor
// subscription id, or (nil, nil)
func (r *SubscriptionRepository) GetLatestByPaddleSubscriptionID(paddleSubID string) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("paddle_subscription_id = ?", paddleSubID).
		Order("subscription_created_at DESC, id DESC").
		First(&sub).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUserID returns all rows for the user, newest first
func (r *SubscriptionRepository) ListByUserID(userID int64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("user_id = ?", userID).
		Order("subscription_created_at DESC, id DESC").
		Find(&subs).Error
	return subs, err
}

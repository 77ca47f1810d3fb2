package service

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/pkg/notify"
	"github.com/screenpro/account-server/internal/repository"
)

// subscriptionCanceler is the slice of the Paddle client used during
// account deletion
type subscriptionCanceler interface {
	Cancel(ctx context.Context, subscriptionID string) (*paddle.Subscription, error)
}

// AccountService covers account-level actions: deletion and
// cancellation feedback
type AccountService struct {
	userRepo     *repository.UserRepository
	subRepo      *repository.SubscriptionRepository
	feedbackRepo *repository.CancelFeedbackRepository
	vendor       subscriptionCanceler
	notifier     *notify.Service
}

func NewAccountService(userRepo *repository.UserRepository, subRepo *repository.SubscriptionRepository, feedbackRepo *repository.CancelFeedbackRepository, vendor subscriptionCanceler, notifier *notify.Service) *AccountService {
	return &AccountService{
		userRepo:     userRepo,
		subRepo:      subRepo,
		feedbackRepo: feedbackRepo,
		vendor:       vendor,
		notifier:     notifier,
	}
}

// Delete removes the account and all owned rows in one transaction.
// Deletion is atomic: a failure leaves the account untouched. An active
// recurring subscription is canceled at the vendor first, best effort,
// so billing stops even though the local rows are about to go away.
func (s *AccountService) Delete(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if sub, serr := s.subRepo.GetLatestByUserID(userID); serr == nil && sub != nil &&
		sub.Type == model.SubscriptionTypeRecurring && sub.PaddleSubscriptionID != nil &&
		model.HasAccessAt(sub, time.Now()) {
		if _, cerr := s.vendor.Cancel(ctx, *sub.PaddleSubscriptionID); cerr != nil {
			log.Printf("Delete: vendor cancel failed for user %d: %v", userID, cerr)
		}
	}

	err = s.userRepo.DB().Transaction(func(tx *gorm.DB) error {
		return s.userRepo.DeleteTx(tx, userID)
	})
	if err != nil {
		return err
	}

	if s.notifier.Enabled() {
		if nerr := s.notifier.NotifyAccountDeleted(ctx, user.Email); nerr != nil {
			log.Printf("Delete: notification failed for user %d: %v", userID, nerr)
		}
	}
	return nil
}

// RecordCancelFeedback stores the user's cancellation reason and relays
// it to the team channel
func (s *AccountService) RecordCancelFeedback(ctx context.Context, userID int64, reason, detail string) error {
	feedback := &model.CancelFeedback{
		UserID: userID,
		Reason: reason,
		Detail: detail,
	}
	if err := s.feedbackRepo.Create(feedback); err != nil {
		return err
	}

	if s.notifier.Enabled() {
		user, err := s.userRepo.GetByID(userID)
		if err == nil {
			if nerr := s.notifier.NotifyCancelFeedback(ctx, user.Email, reason, detail); nerr != nil {
				log.Printf("RecordCancelFeedback: notification failed for user %d: %v", userID, nerr)
			}
		}
	}
	return nil
}

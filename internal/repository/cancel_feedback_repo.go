package repository

import (
	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

type CancelFeedbackRepository struct {
	db *gorm.DB
}

func NewCancelFeedbackRepository(db *gorm.DB) *CancelFeedbackRepository {
	return &CancelFeedbackRepository{db: db}
}

func (r *CancelFeedbackRepository) Create(feedback *model.CancelFeedback) error {
	return r.db.Create(feedback).Error
}

func (r *CancelFeedbackRepository) ListByUserID(userID int64) ([]model.CancelFeedback, error) {
	var feedbacks []model.CancelFeedback
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&feedbacks).Error
	return feedbacks, err
}

package repository

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

// ErrDuplicateEvent indicates a webhook event id that was already
// recorded. Vendors redeliver; the unique index makes redelivery a
// clean no-op.
var ErrDuplicateEvent = errors.New("webhook event already recorded")

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record inserts the event row, returning ErrDuplicateEvent when the
// event id was seen before
func (r *WebhookEventRepository) Record(event *model.WebhookEvent) error {
	err := r.db.Create(event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") ||
			strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEvent
		}
		return err
	}
	return nil
}

func (r *WebhookEventRepository) GetByEventID(eventID string) (*model.WebhookEvent, error) {
	var event model.WebhookEvent
	err := r.db.Where("event_id = ?", eventID).First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// MarkApplied records successful processing
func (r *WebhookEventRepository) MarkApplied(eventID string) error {
	now := time.Now()
	return r.db.Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusApplied,
			"processed_at": now,
			"error":        "",
		}).Error
}

// MarkFailed records a processing failure with its error message
func (r *WebhookEventRepository) MarkFailed(eventID string, errMsg string) error {
	now := time.Now()
	return r.db.Model(&model.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusFailed,
			"processed_at": now,
			"error":        errMsg,
		}).Error
}

// DeleteProcessedBefore prunes applied events older than cutoff. Failed
// events are kept for inspection.
func (r *WebhookEventRepository) DeleteProcessedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("status = ? AND processed_at < ?", model.WebhookStatusApplied, cutoff).
		Delete(&model.WebhookEvent{})
	return result.RowsAffected, result.Error
}

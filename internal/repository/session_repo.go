package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.Session) error {
	return r.db.Create(session).Error
}

func (r *SessionRepository) GetByTokenID(tokenID string) (*model.Session, error) {
	var session model.Session
	err := r.db.Where("token_id = ?", tokenID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// Revoke marks a single session revoked. Revoking an already revoked
// session is a no-op.
func (r *SessionRepository) Revoke(tokenID string) error {
	now := time.Now()
	return r.db.Model(&model.Session{}).
		Where("token_id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", now).Error
}

// RevokeAllForUser revokes every live session of the user
func (r *SessionRepository) RevokeAllForUser(userID int64) error {
	now := time.Now()
	return r.db.Model(&model.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
}

// DeleteExpired removes sessions past their expiry or revoked before
// cutoff. Used by the cleanup job.
func (r *SessionRepository) DeleteExpired(cutoff time.Time) (int64, error) {
	result := r.db.Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&model.Session{})
	return result.RowsAffected, result.Error
}

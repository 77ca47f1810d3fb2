package model

import (
	"time"
)

// Session is a server-side refresh-token record. The client holds
// "<token id>.<secret>"; only a bcrypt hash of the secret is stored.
type Session struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	TokenID    string     `gorm:"size:36;uniqueIndex;not null" json:"-"`
	SecretHash string     `gorm:"size:100;not null" json:"-"`
	UserID     int64      `gorm:"not null;index" json:"user_id"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

package model

import (
	"time"
)

// CancelFeedback records the reason a user gave before opening the
// cancellation portal.
type CancelFeedback struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;index" json:"user_id"`
	Reason    string    `gorm:"size:50;not null" json:"reason"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (CancelFeedback) TableName() string {
	return "cancel_feedbacks"
}

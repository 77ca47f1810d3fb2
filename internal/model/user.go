package model

import (
	"time"
)

type User struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	Email            string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name             string     `gorm:"size:100" json:"name"`
	AvatarURL        string     `gorm:"size:500" json:"avatar_url"`
	Provider         string     `gorm:"size:20;not null;uniqueIndex:idx_provider_uid" json:"provider"` // google, apple, github
	ProviderUID      string     `gorm:"size:100;not null;uniqueIndex:idx_provider_uid" json:"-"`
	PaddleCustomerID *string    `gorm:"size:100;index" json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

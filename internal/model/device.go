package model

import (
	"time"
)

// Device is the single desktop install currently bound to a user.
// Activating a new device supersedes the previous one.
type Device struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	UserID        int64      `gorm:"not null;index" json:"user_id"`
	HardwareUUID  string     `gorm:"size:64;not null" json:"hardware_uuid"`
	DeviceName    string     `gorm:"size:100" json:"device_name"`
	ActivatedAt   time.Time  `gorm:"not null" json:"activated_at"`
	DeactivatedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

func (Device) TableName() string {
	return "devices"
}

package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/screenpro/account-server/internal/model"
)

type DeviceRepository struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// GetActiveByUserID returns the user's active device, or (nil, nil)
func (r *DeviceRepository) GetActiveByUserID(userID int64) (*model.Device, error) {
	var device model.Device
	err := r.db.Where("user_id = ? AND deactivated_at IS NULL", userID).
		Order("activated_at DESC").
		First(&device).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// Activate registers a device for the user, deactivating any previous
// active device in the same transaction. A single license covers one
// machine at a time.
func (r *DeviceRepository) Activate(device *model.Device) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&model.Device{}).
			Where("user_id = ? AND deactivated_at IS NULL", device.UserID).
			Update("deactivated_at", now).Error; err != nil {
			return err
		}
		device.ActivatedAt = now
		return tx.Create(device).Error
	})
}

// Deactivate marks the user's active device released
func (r *DeviceRepository) Deactivate(userID int64) error {
	now := time.Now()
	return r.db.Model(&model.Device{}).
		Where("user_id = ? AND deactivated_at IS NULL", userID).
		Update("deactivated_at", now).Error
}

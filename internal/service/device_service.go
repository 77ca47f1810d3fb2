package service

import (
	"errors"
	"time"

	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/repository"
)

var ErrNoEntitlementForDevice = errors.New("subscription required to activate a device")

// DeviceService binds desktop installs to users. One active device per
// user; activating from a new machine releases the old one.
type DeviceService struct {
	deviceRepo *repository.DeviceRepository
	subs       *SubscriptionService
}

func NewDeviceService(deviceRepo *repository.DeviceRepository, subs *SubscriptionService) *DeviceService {
	return &DeviceService{deviceRepo: deviceRepo, subs: subs}
}

// Activate registers the device, requiring a usable entitlement
func (s *DeviceService) Activate(userID int64, req *dto.ActivateDeviceRequest) (*dto.DeviceInfo, error) {
	sub, err := s.subs.Latest(userID)
	if err != nil {
		return nil, err
	}
	if !model.HasAccessAt(sub, time.Now()) {
		return nil, ErrNoEntitlementForDevice
	}

	device := &model.Device{
		UserID:       userID,
		HardwareUUID: req.HardwareUUID,
		DeviceName:   req.DeviceName,
	}
	if err := s.deviceRepo.Activate(device); err != nil {
		return nil, err
	}

	return deviceInfo(device), nil
}

// Active returns the user's active device, nil when none
func (s *DeviceService) Active(userID int64) (*dto.DeviceInfo, error) {
	device, err := s.deviceRepo.GetActiveByUserID(userID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, nil
	}
	return deviceInfo(device), nil
}

// Deactivate releases the user's active device
func (s *DeviceService) Deactivate(userID int64) error {
	return s.deviceRepo.Deactivate(userID)
}

func deviceInfo(d *model.Device) *dto.DeviceInfo {
	return &dto.DeviceInfo{
		ID:           d.ID,
		HardwareUUID: d.HardwareUUID,
		DeviceName:   d.DeviceName,
		ActivatedAt:  d.ActivatedAt,
	}
}

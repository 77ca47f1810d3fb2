package dto

import (
	"time"
)

type DeviceInfo struct {
	ID           int64     `json:"id"`
	HardwareUUID string    `json:"hardware_uuid"`
	DeviceName   string    `json:"device_name"`
	ActivatedAt  time.Time `json:"activated_at"`
}

type ActivateDeviceRequest struct {
	HardwareUUID string `json:"hardware_uuid" binding:"required"`
	DeviceName   string `json:"device_name"`
}

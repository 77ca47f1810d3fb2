package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/internal/api/middleware"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/response"
	"github.com/screenpro/account-server/internal/service"
)

type DeviceHandler struct {
	deviceService *service.DeviceService
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		deviceService: deviceService,
	}
}

// Activate binds a desktop install to the caller.
// POST /api/v1/device
func (h *DeviceHandler) Activate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.ActivateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	device, err := h.deviceService.Activate(userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrNoEntitlementForDevice) {
			response.PermissionError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, device)
}

// Get returns the caller's active device, null when none.
// GET /api/v1/device
func (h *DeviceHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	device, err := h.deviceService.Active(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, device)
}

// Deactivate releases the caller's active device.
// DELETE /api/v1/device
func (h *DeviceHandler) Deactivate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.deviceService.Deactivate(userID); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "device deactivated", nil)
}

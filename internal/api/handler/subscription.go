package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/internal/api/middleware"
	"github.com/screenpro/account-server/internal/integration/paddle"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/response"
	"github.com/screenpro/account-server/internal/service"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
	planService         *service.PlanService
	accountService      *service.AccountService
	authService         *service.AuthService
}

func NewSubscriptionHandler(
	subscriptionService *service.SubscriptionService,
	planService *service.PlanService,
	accountService *service.AccountService,
	authService *service.AuthService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		planService:         planService,
		accountService:      accountService,
		authService:         authService,
	}
}

// Get returns the subscription snapshot for the account page.
// GET /api/v1/subscription
func (h *SubscriptionHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	snapshot, err := h.subscriptionService.Snapshot(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, snapshot)
}

// Preview computes what a plan change would cost before anything is
// committed.
// POST /api/v1/subscription/plan/preview
func (h *SubscriptionHandler) Preview(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.PlanPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	preview, err := h.planService.Preview(c.Request.Context(), userID, req.PriceID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription),
			errors.Is(err, service.ErrUnknownPrice):
			response.ParamError(c, err.Error())
		case errors.Is(err, service.ErrPreviewUnavailable):
			response.VendorError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, preview)
}

// Confirm commits a previously previewed plan change.
// POST /api/v1/subscription/plan/confirm
func (h *SubscriptionHandler) Confirm(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.PlanConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.planService.Confirm(c.Request.Context(), userID, req.PriceID); err != nil {
		var apiErr *paddle.APIError
		switch {
		case errors.Is(err, service.ErrConfirmInFlight):
			response.DuplicateError(c, err.Error())
		case errors.Is(err, service.ErrNoActiveSubscription),
			errors.Is(err, service.ErrUnknownPrice):
			response.ParamError(c, err.Error())
		case errors.As(err, &apiErr):
			response.VendorError(c, "")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "plan change accepted", nil)
}

// LifetimeCheckout describes the hosted checkout for the lifetime
// plan. The actual purchase completes through the vendor webhook.
// POST /api/v1/subscription/plan/lifetime-checkout
func (h *SubscriptionHandler) LifetimeCheckout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	user, err := h.authService.UserInfo(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, h.planService.LifetimeCheckout(userID, user.Email))
}

// Reactivate undoes a scheduled cancellation or downgrade.
// POST /api/v1/subscription/reactivate
func (h *SubscriptionHandler) Reactivate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.planService.Reactivate(c.Request.Context(), userID); err != nil {
		var apiErr *paddle.APIError
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription),
			errors.Is(err, service.ErrNotScheduledToCancel):
			response.ParamError(c, err.Error())
		case errors.As(err, &apiErr):
			response.VendorError(c, "")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "subscription reactivated", nil)
}

// Portal returns the vendor-hosted management URLs for the caller's
// subscription.
// GET /api/v1/subscription/portal
func (h *SubscriptionHandler) Portal(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	portal, err := h.planService.Portal(c.Request.Context(), userID)
	if err != nil {
		var apiErr *paddle.APIError
		switch {
		case errors.Is(err, service.ErrNoActiveSubscription):
			response.ParamError(c, err.Error())
		case errors.As(err, &apiErr):
			response.VendorError(c, "")
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, portal)
}

// CancelFeedback stores the reason a user gave before heading to the
// vendor cancel flow.
// POST /api/v1/subscription/cancel-feedback
func (h *SubscriptionHandler) CancelFeedback(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.CancelFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	if err := h.accountService.RecordCancelFeedback(c.Request.Context(), userID, req.Reason, req.Detail); err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "feedback recorded", nil)
}

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/internal/api/middleware"
	"github.com/screenpro/account-server/internal/pkg/response"
	"github.com/screenpro/account-server/internal/service"
)

type AccountHandler struct {
	authService    *service.AuthService
	accountService *service.AccountService
}

func NewAccountHandler(authService *service.AuthService, accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		authService:    authService,
		accountService: accountService,
	}
}

// Me returns the caller's profile.
// GET /api/v1/user/me
func (h *AccountHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	info, err := h.authService.UserInfo(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, info)
}

// Delete removes the account and everything attached to it.
// DELETE /api/v1/user
func (h *AccountHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFoundError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "account deleted", nil)
}

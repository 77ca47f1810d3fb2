package handler

import (
	"errors"
	"fmt"
	"html"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/screenpro/account-server/internal/api/middleware"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/authcode"
	"github.com/screenpro/account-server/internal/pkg/deeplink"
	"github.com/screenpro/account-server/internal/pkg/response"
	"github.com/screenpro/account-server/internal/service"
)

type AuthHandler struct {
	authService         *service.AuthService
	subscriptionService *service.SubscriptionService
	links               *deeplink.Builder
}

func NewAuthHandler(
	authService *service.AuthService,
	subscriptionService *service.SubscriptionService,
	links *deeplink.Builder,
) *AuthHandler {
	return &AuthHandler{
		authService:         authService,
		subscriptionService: subscriptionService,
		links:               links,
	}
}

// SignIn starts the OAuth flow for a provider.
// GET /api/v1/auth/signin/:provider?from=web|app|app-dev|pricing
func (h *AuthHandler) SignIn(c *gin.Context) {
	provider := c.Param("provider")
	origin := c.DefaultQuery("from", deeplink.OriginWeb)

	authURL, err := h.authService.SignInURL(c.Request.Context(), provider, origin)
	if err != nil {
		response.ParamError(c, err.Error())
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback completes the OAuth flow and routes the browser by the
// origin tag carried in the state.
// GET /api/v1/auth/callback?code=..&state=..
func (h *AuthHandler) Callback(c *gin.Context) {
	if denied := c.Query("error"); denied != "" {
		// User declined at the provider; land on the home page
		c.Redirect(http.StatusFound, h.links.WebHomeURL())
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if code == "" {
		response.ParamError(c, "missing authorization code")
		return
	}

	result, err := h.authService.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		log.Printf("Callback: sign-in failed: %v", err)
		c.Redirect(http.StatusFound, h.links.WebHomeURL())
		return
	}

	origin := deeplink.OriginWeb
	if result.State != nil && result.State.Origin != "" {
		origin = result.State.Origin
	}

	// Every origin gets a one-time code; web origins redeem it from the
	// redirect target, app origins consume it through the deep link.
	exchangeCode, err := h.authService.GenerateCode(
		c.Request.Context(), result.User.ID,
		result.Tokens.AccessToken, result.Tokens.RefreshToken,
	)
	if err != nil {
		log.Printf("Callback: exchange code generation failed for user %d: %v", result.User.ID, err)
		exchangeCode = ""
	}

	decision := h.links.Resolve(origin, exchangeCode, result.RawState, h.entitled(result.User.ID))

	if decision.Action == deeplink.ActionHandoff {
		h.renderHandoff(c, decision)
		return
	}

	c.Redirect(http.StatusFound, withSessionCode(decision.WebURL, exchangeCode))
}

func (h *AuthHandler) entitled(userID int64) bool {
	sub, err := h.subscriptionService.Latest(userID)
	if err != nil || sub == nil {
		return false
	}
	return model.HasAccessAt(sub, time.Now())
}

// renderHandoff serves a page that opens the app deep link, then
// optionally navigates the browser once the redirect has had a chance
// to fire.
func (h *AuthHandler) renderHandoff(c *gin.Context, d deeplink.Decision) {
	followUp := ""
	if d.DelayWebNav && d.WebURL != "" {
		followUp = fmt.Sprintf(
			`setTimeout(function(){window.location.replace(%q)}, 1500);`, d.WebURL)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Opening Screen Pro...</title></head>
<body>
<p>Opening Screen Pro... If nothing happens, <a href=%q>click here</a>.</p>
<script>window.location.href=%q;%s</script>
</body>
</html>`, html.EscapeString(d.AppURL), d.AppURL, followUp)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// withSessionCode appends the one-time code to a web redirect target so
// the page can redeem it for a session.
func withSessionCode(base, code string) string {
	if code == "" {
		return base
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + "session_code=" + url.QueryEscape(code)
}

// Refresh rotates a refresh token for a new token pair.
// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken),
			errors.Is(err, service.ErrSessionRevoked),
			errors.Is(err, service.ErrSessionExpired):
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, tokens)
}

// SignOut revokes the caller's sessions. Always succeeds from the
// client's point of view.
// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SignOutRequest
	// Body is optional; a missing refresh token just skips the remote
	// revocation
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.SignOut(c.Request.Context(), userID, req.RefreshToken); err != nil {
		log.Printf("SignOut: %v", err)
	}

	response.SuccessWithMessage(c, "signed out", nil)
}

// GenerateCode issues a one-time code the desktop app can redeem.
// POST /api/v1/auth/generate-code
func (h *AuthHandler) GenerateCode(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.GenerateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	accessToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	code, err := h.authService.GenerateCode(c.Request.Context(), userID, accessToken, req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRefreshToken),
			errors.Is(err, service.ErrSessionRevoked),
			errors.Is(err, service.ErrSessionExpired):
			response.AuthError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.Success(c, dto.GenerateCodeResponse{Code: code})
}

// ExchangeCode redeems a one-time code for its token pair. Public: the
// app calls this before it has a session.
// POST /api/v1/auth/exchange-code
func (h *AuthHandler) ExchangeCode(c *gin.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	tokens, err := h.authService.ExchangeCode(c.Request.Context(), req.Code)
	if err != nil {
		if errors.Is(err, authcode.ErrCodeInvalid) {
			response.AuthError(c, err.Error())
			return
		}
		response.ServerError(c, "")
		return
	}

	response.Success(c, tokens)
}

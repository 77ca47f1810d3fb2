package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/api/middleware"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/pkg/authcode"
	"github.com/screenpro/account-server/internal/pkg/deeplink"
	"github.com/screenpro/account-server/internal/pkg/oauth"
	"github.com/screenpro/account-server/internal/pkg/response"
	"github.com/screenpro/account-server/internal/repository"
	"github.com/screenpro/account-server/internal/service"
	"github.com/screenpro/account-server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             "test-secret-key",
			ExpireHours:        24,
			RefreshExpireHours: 720,
		},
		OAuth: config.OAuthConfig{
			Google: config.OAuthProviderConfig{
				ClientID:     "google-client",
				ClientSecret: "google-secret",
				RedirectURI:  "http://localhost:8080/api/v1/auth/callback",
			},
		},
		Paddle: config.PaddleConfig{
			PriceMonthly:  "pri_monthly",
			PriceYearly:   "pri_yearly",
			PriceLifetime: "pri_lifetime",
		},
		Deeplink: config.DeeplinkConfig{
			Scheme:            "screenpro",
			UniversalLinkBase: "https://link.screenpro.app",
			WebBaseURL:        "https://screenpro.app",
		},
	}
}

type authHandlerEnv struct {
	handler     *AuthHandler
	authService *service.AuthService
	db          *gorm.DB
}

func setupAuthHandler(t *testing.T) (*authHandlerEnv, func()) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	authService := service.NewAuthService(
		userRepo, sessionRepo,
		oauth.NewRegistry(&cfg.OAuth),
		oauth.NewStateStore(rdb),
		authcode.NewStore(rdb, 60),
		cfg,
	)
	subscriptionService := service.NewSubscriptionService(subRepo)
	links := deeplink.NewBuilder(cfg.Deeplink.Scheme, cfg.Deeplink.UniversalLinkBase, cfg.Deeplink.WebBaseURL)

	env := &authHandlerEnv{
		handler:     NewAuthHandler(authService, subscriptionService, links),
		authService: authService,
		db:          db,
	}

	cleanup := func() {
		rdb.Close()
		mr.Close()
		testutil.CleanupTestDB(t, db)
	}
	return env, cleanup
}

// asUser fakes the auth middleware for routes that read the user id
// from the context.
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func TestAuthHandler_SignIn_Redirect(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/signin/:provider", env.handler.SignIn)

	req := httptest.NewRequest("GET", "/signin/google?from=app", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "state=")
	assert.Contains(t, location, "client_id=google-client")
}

func TestAuthHandler_SignIn_UnknownProvider(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/signin/:provider", env.handler.SignIn)

	req := httptest.NewRequest("GET", "/signin/myspace", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_Callback_MissingCode(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/callback", env.handler.Callback)

	req := httptest.NewRequest("GET", "/callback", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeParamError, resp.Code)
}

func TestAuthHandler_Callback_ProviderDenied(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.GET("/callback", env.handler.Callback)

	req := httptest.NewRequest("GET", "/callback?error=access_denied", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://screenpro.app/", w.Header().Get("Location"))
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, env.db)
	tokens, err := env.authService.IssueTokenPair(user.ID)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/refresh", env.handler.Refresh)

	w := performRequest(router, "POST", "/refresh", dto.RefreshRequest{RefreshToken: tokens.RefreshToken})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rotated dto.TokenPair
	require.NoError(t, json.Unmarshal(data, &rotated))
	assert.NotEmpty(t, rotated.AccessToken)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
}

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/refresh", env.handler.Refresh)

	w := performRequest(router, "POST", "/refresh", dto.RefreshRequest{RefreshToken: "not-a-token"})
	resp := parseResponse(t, w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_SignOut_AlwaysSucceeds(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, env.db)
	tokens, err := env.authService.IssueTokenPair(user.ID)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/signout", asUser(user.ID), env.handler.SignOut)

	w := performRequest(router, "POST", "/signout", dto.SignOutRequest{RefreshToken: tokens.RefreshToken})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	// The refresh token no longer works
	refreshRouter := gin.New()
	refreshRouter.POST("/refresh", env.handler.Refresh)
	w = performRequest(refreshRouter, "POST", "/refresh", dto.RefreshRequest{RefreshToken: tokens.RefreshToken})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_SignOut_EmptyBody(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, env.db)

	router := gin.New()
	router.POST("/signout", asUser(user.ID), env.handler.SignOut)

	w := performRequest(router, "POST", "/signout", nil)
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)
}

func TestAuthHandler_GenerateAndExchangeCode(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	user := testutil.TestUser(t, env.db)
	tokens, err := env.authService.IssueTokenPair(user.ID)
	require.NoError(t, err)

	router := gin.New()
	router.POST("/generate-code", asUser(user.ID), env.handler.GenerateCode)
	router.POST("/exchange-code", env.handler.ExchangeCode)

	body, _ := json.Marshal(dto.GenerateCodeRequest{RefreshToken: tokens.RefreshToken})
	req := httptest.NewRequest("POST", "/generate-code", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	resp := parseResponse(t, w)
	require.Equal(t, response.CodeSuccess, resp.Code)

	data, _ := json.Marshal(resp.Data)
	var generated dto.GenerateCodeResponse
	require.NoError(t, json.Unmarshal(data, &generated))
	require.NotEmpty(t, generated.Code)

	// Redeem once
	w = performRequest(router, "POST", "/exchange-code", dto.ExchangeCodeRequest{Code: generated.Code})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeSuccess, resp.Code)

	// Replay fails
	w = performRequest(router, "POST", "/exchange-code", dto.ExchangeCodeRequest{Code: generated.Code})
	resp = parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

func TestAuthHandler_ExchangeCode_Unknown(t *testing.T) {
	env, cleanup := setupAuthHandler(t)
	defer cleanup()

	router := gin.New()
	router.POST("/exchange-code", env.handler.ExchangeCode)

	w := performRequest(router, "POST", "/exchange-code", dto.ExchangeCodeRequest{Code: "deadbeef"})
	resp := parseResponse(t, w)
	assert.Equal(t, response.CodeAuthFailed, resp.Code)
}

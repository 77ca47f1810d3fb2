package service

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/pkg/authcode"
	"github.com/screenpro/account-server/internal/pkg/jwt"
	"github.com/screenpro/account-server/internal/pkg/oauth"
	"github.com/screenpro/account-server/internal/repository"
	"github.com/screenpro/account-server/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:             "test-secret",
			ExpireHours:        1,
			RefreshExpireHours: 720,
		},
		Paddle: config.PaddleConfig{
			PriceMonthly:       "pri_monthly",
			PriceYearly:        "pri_yearly",
			PriceLifetime:      "pri_lifetime",
			LifetimeDiscountID: "dsc_upgrade",
		},
		Plan: config.PlanConfig{SettleDelaySeconds: 1},
	}
}

func setupAuthService(t *testing.T, db *gorm.DB) (*AuthService, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	svc := NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		oauth.NewRegistry(&cfg.OAuth),
		oauth.NewStateStore(rdb),
		authcode.NewStore(rdb, 60),
		cfg,
	)

	cleanup := func() {
		rdb.Close()
		mr.Close()
	}
	return svc, cleanup
}

func TestAuthService_IssueTokenPair(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)

	pair, err := svc.IssueTokenPair(user.ID)
	require.NoError(t, err)

	// Access token is a valid JWT for the user
	claims, err := jwt.ParseToken(pair.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// Refresh token is "<token id>.<secret>"
	parts := strings.SplitN(pair.RefreshToken, ".", 2)
	require.Len(t, parts, 2)
	assert.NotEmpty(t, parts[0])
	assert.NotEmpty(t, parts[1])
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	pair, err := svc.IssueTokenPair(user.ID)
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, fresh.RefreshToken)

	// The old refresh token is revoked by rotation
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	// The new one works
	_, err = svc.Refresh(context.Background(), fresh.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	cases := []string{"", "garbage", "no-dot-here", "unknown.secret"}
	for _, token := range cases {
		_, err := svc.Refresh(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken, "token %q", token)
	}
}

func TestAuthService_Refresh_WrongSecret(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	pair, err := svc.IssueTokenPair(user.ID)
	require.NoError(t, err)

	tokenID, _, _ := strings.Cut(pair.RefreshToken, ".")
	_, err = svc.Refresh(context.Background(), tokenID+".wrong-secret")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

// Sign-out fails open: the local session dies even when there is
// nothing to revoke remotely, and signing out twice is not an error.
func TestAuthService_SignOut_FailOpenAndIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	pair, err := svc.IssueTokenPair(user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), user.ID, ""))

	// The session is gone locally
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrSessionRevoked)

	// Second sign-out is a no-op, not an error
	assert.NoError(t, svc.SignOut(context.Background(), user.ID, ""))

	// Sign-out for a nonexistent user still doesn't error
	assert.NoError(t, svc.SignOut(context.Background(), 99999, ""))
}

func TestAuthService_GenerateAndExchangeCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db)
	pair, err := svc.IssueTokenPair(user.ID)
	require.NoError(t, err)

	code, err := svc.GenerateCode(context.Background(), user.ID, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, code)

	redeemed, err := svc.ExchangeCode(context.Background(), code)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, redeemed.AccessToken)
	assert.Equal(t, pair.RefreshToken, redeemed.RefreshToken)

	// Codes are single use
	_, err = svc.ExchangeCode(context.Background(), code)
	assert.ErrorIs(t, err, authcode.ErrCodeInvalid)
}

func TestAuthService_GenerateCode_WrongUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	alice := testutil.TestUser(t, db)
	bob := testutil.TestUser(t, db)

	alicePair, err := svc.IssueTokenPair(alice.ID)
	require.NoError(t, err)

	// Bob cannot mint a code from Alice's refresh token
	_, err = svc.GenerateCode(context.Background(), bob.ID, "access", alicePair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_SignInURL(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	url, err := svc.SignInURL(context.Background(), oauth.ProviderGoogle, "app")
	require.NoError(t, err)
	assert.Contains(t, url, "state=")

	_, err = svc.SignInURL(context.Background(), "myspace", "web")
	assert.Error(t, err)
}

func TestAuthService_UserInfo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc, cleanup := setupAuthService(t, db)
	defer cleanup()

	user := testutil.TestUser(t, db, testutil.WithEmail("info@example.com"))

	info, err := svc.UserInfo(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "info@example.com", info.Email)

	_, err = svc.UserInfo(99999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

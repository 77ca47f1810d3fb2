package authcode

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestStore_IssueAndRedeem(t *testing.T) {
	rdb, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 60)
	ctx := context.Background()

	pair := TokenPair{AccessToken: "access-123", RefreshToken: "refresh-456"}
	code, err := store.Issue(ctx, pair)
	require.NoError(t, err)
	assert.Len(t, code, 64)

	result, err := store.Redeem(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, "access-123", result.AccessToken)
	assert.Equal(t, "refresh-456", result.RefreshToken)
}

func TestStore_Redeem_SingleUse(t *testing.T) {
	rdb, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 60)
	ctx := context.Background()

	code, err := store.Issue(ctx, TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)

	_, err = store.Redeem(ctx, code)
	require.NoError(t, err)

	// Replay must be rejected
	_, err = store.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestStore_Redeem_Expired(t *testing.T) {
	rdb, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 60)
	ctx := context.Background()

	code, err := store.Issue(ctx, TokenPair{AccessToken: "a", RefreshToken: "r"})
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	_, err = store.Redeem(ctx, code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestStore_Redeem_Unknown(t *testing.T) {
	rdb, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 60)
	ctx := context.Background()

	_, err := store.Redeem(ctx, "no-such-code")
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestStore_Redeem_Empty(t *testing.T) {
	rdb, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 60)
	ctx := context.Background()

	_, err := store.Redeem(ctx, "")
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestNewStore_DefaultTTL(t *testing.T) {
	rdb, _, cleanup := setupTestRedis(t)
	defer cleanup()

	store := NewStore(rdb, 0)
	assert.Equal(t, 60*time.Second, store.ttl)
}

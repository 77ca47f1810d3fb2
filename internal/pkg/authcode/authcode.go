// Package authcode issues short-lived one-time exchange codes that carry
// a session's token pair across the browser-to-desktop-app boundary. The
// code rides in a deep link URL, so it must be useless after a single
// redemption and die fast if never redeemed.
package authcode

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const codeKeyPrefix = "authcode:"

// ErrCodeInvalid is returned when a code is unknown, expired, or was
// already redeemed
var ErrCodeInvalid = errors.New("invalid or expired code")

// TokenPair is the session material held behind an exchange code
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Store issues and redeems one-time exchange codes backed by Redis
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Store. ttlSeconds is the code lifetime; values
// below 1 fall back to 60 seconds
func NewStore(rdb *redis.Client, ttlSeconds int) *Store {
	if ttlSeconds < 1 {
		ttlSeconds = 60
	}
	return &Store{rdb: rdb, ttl: time.Duration(ttlSeconds) * time.Second}
}

// Issue stores the token pair under a fresh random code
func (s *Store) Issue(ctx context.Context, pair TokenPair) (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}
	code := hex.EncodeToString(bytes)

	payload, err := json.Marshal(pair)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token pair: %w", err)
	}

	if err := s.rdb.Set(ctx, codeKeyPrefix+code, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store code: %w", err)
	}

	return code, nil
}

// Redeem consumes the code and returns the token pair. A code can be
// redeemed exactly once; a replay gets ErrCodeInvalid
func (s *Store) Redeem(ctx context.Context, code string) (*TokenPair, error) {
	if code == "" {
		return nil, ErrCodeInvalid
	}

	key := codeKeyPrefix + code

	var payload string
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrCodeInvalid
		}
		if err != nil {
			return fmt.Errorf("failed to get code: %w", err)
		}
		payload = val

		_, err = tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := json.Unmarshal([]byte(payload), &pair); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token pair: %w", err)
	}

	return &pair, nil
}

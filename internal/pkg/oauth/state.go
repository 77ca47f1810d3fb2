package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	stateKeyPrefix = "oauth:state:"
	stateTTL       = 10 * time.Minute
)

// StateStore handles OAuth state parameter storage and validation
type StateStore struct {
	rdb *redis.Client
}

// NewStateStore creates a new StateStore
func NewStateStore(rdb *redis.Client) *StateStore {
	return &StateStore{rdb: rdb}
}

// StateData is what survives the round trip through the OAuth vendor.
// Origin is the "from" tag on the initial sign-in request: "", "web",
// "app", "app-dev" or "pricing".
type StateData struct {
	Origin   string `json:"origin"`
	Provider string `json:"provider"`
}

// GenerateState creates a new cryptographically secure state token
// and stores the associated origin data in Redis
func (s *StateStore) GenerateState(ctx context.Context, data StateData) (string, error) {
	// 32 random bytes (256 bits)
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random state: %w", err)
	}
	state := hex.EncodeToString(bytes)

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state data: %w", err)
	}

	key := stateKeyPrefix + state
	if err := s.rdb.Set(ctx, key, payload, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}

	return state, nil
}

// ValidateState checks if the state is valid and returns the associated data.
// The state is consumed (deleted) after validation to prevent replay attacks
func (s *StateStore) ValidateState(ctx context.Context, state string) (*StateData, error) {
	if state == "" {
		return nil, fmt.Errorf("empty state parameter")
	}

	key := stateKeyPrefix + state

	// Get and delete atomically using a transaction
	var payload string
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return fmt.Errorf("invalid or expired state")
		}
		if err != nil {
			return fmt.Errorf("failed to get state: %w", err)
		}
		payload = val

		// Delete the state to prevent reuse
		_, err = tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	if err != nil {
		return nil, err
	}

	var data StateData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state data: %w", err)
	}

	return &data, nil
}

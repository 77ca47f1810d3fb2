package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/model/dto"
	"github.com/screenpro/account-server/internal/repository"
)

// SubscriptionService reads the newest subscription row per user and
// derives entitlement facts from it. Results are cached per user so a
// failed fetch can degrade to a stale snapshot instead of an error.
type SubscriptionService struct {
	subRepo *repository.SubscriptionRepository

	mu sync.Mutex
	// cache holds the last good snapshot per user
	cache map[int64]*dto.SubscriptionResponse
	// issued numbers fetches per user; a completed fetch only writes
	// the cache when no newer fetch was issued meanwhile, so the
	// latest-issued fetch always wins
	issued map[int64]uint64
}

func NewSubscriptionService(subRepo *repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{
		subRepo: subRepo,
		cache:   make(map[int64]*dto.SubscriptionResponse),
		issued:  make(map[int64]uint64),
	}
}

// Latest returns the newest subscription row for the user, nil when the
// user has none
func (s *SubscriptionService) Latest(userID int64) (*model.Subscription, error) {
	return s.subRepo.GetLatestByUserID(userID)
}

// Snapshot fetches the user's current subscription state. On fetch
// failure it serves the last cached snapshot marked stale; only a
// failure with an empty cache surfaces the error.
func (s *SubscriptionService) Snapshot(userID int64) (*dto.SubscriptionResponse, error) {
	ticket := s.issue(userID)

	sub, err := s.subRepo.GetLatestByUserID(userID)
	if err != nil {
		s.mu.Lock()
		cached, ok := s.cache[userID]
		s.mu.Unlock()
		if ok {
			stale := *cached
			stale.Stale = true
			return &stale, nil
		}
		return nil, err
	}

	resp := &dto.SubscriptionResponse{
		Subscription: sub,
		Entitlement:  model.DeriveEntitlement(sub, time.Now()),
	}
	s.store(userID, ticket, resp)
	return resp, nil
}

// RefreshAfter waits delay and refetches the user's snapshot. The wait
// tolerates webhook propagation after a plan change; if a newer fetch
// is issued while this one sleeps or runs, this one's result is
// discarded.
func (s *SubscriptionService) RefreshAfter(ctx context.Context, userID int64, delay time.Duration) {
	ticket := s.issue(userID)

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	sub, err := s.subRepo.GetLatestByUserID(userID)
	if err != nil {
		log.Printf("RefreshAfter: fetch failed for user %d: %v", userID, err)
		return
	}

	resp := &dto.SubscriptionResponse{
		Subscription: sub,
		Entitlement:  model.DeriveEntitlement(sub, time.Now()),
	}
	s.store(userID, ticket, resp)
}

// Cached returns the cached snapshot without fetching, or nil
func (s *SubscriptionService) Cached(userID int64) *dto.SubscriptionResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache[userID]
}

// Invalidate drops the cached snapshot, forcing the next read to hit
// the database. Called by the webhook worker after applying an event.
func (s *SubscriptionService) Invalidate(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, userID)
	s.issued[userID]++
}

func (s *SubscriptionService) issue(userID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[userID]++
	return s.issued[userID]
}

func (s *SubscriptionService) store(userID int64, ticket uint64, resp *dto.SubscriptionResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket != s.issued[userID] {
		// A newer fetch was issued after this one; drop the result
		return
	}
	s.cache[userID] = resp
}

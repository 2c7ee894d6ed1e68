package collab

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshBite/pkg/logger"
)

const (
	defaultCacheTTL = 5 * time.Minute
	neutralScore    = 0.5
)

// OrderHistoryRepository exposes the one aggregate collaborative filtering
// needs: how often customers with overlapping order history ordered each
// item.
type OrderHistoryRepository interface {
	SimilarCustomerItemCounts(ctx context.Context, customerID uint) (map[uint64]int64, error)
}

type cacheEntry struct {
	counts    map[uint64]int64
	expiresAt time.Time
}

// Service personalizes scores from similar customers' order patterns.
// Anonymous contexts score neutrally for every candidate: collaborative
// filtering needs identity, and the engine degrades instead of erroring.
type Service struct {
	repo     OrderHistoryRepository
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[uint]cacheEntry
}

func NewService(repo OrderHistoryRepository, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Service{
		repo:     repo,
		cacheTTL: cacheTTL,
		now:      time.Now,
		cache:    make(map[uint]cacheEntry),
	}
}

func (s *Service) Scores(ctx context.Context, customerID uint, candidateIDs []uint64) (map[uint64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	out := make(map[uint64]float64, len(candidateIDs))
	for _, id := range candidateIDs {
		out[id] = neutralScore
	}
	if customerID == 0 {
		return out, nil
	}

	counts, err := s.peerCounts(ctx, customerID)
	if err != nil {
		logger.Warn("collaborative history unavailable, scoring neutral",
			"customer_id", customerID,
			"error", err,
		)
		return out, nil
	}

	var maxCount int64
	for _, id := range candidateIDs {
		if counts[id] > maxCount {
			maxCount = counts[id]
		}
	}
	if maxCount == 0 {
		return out, nil
	}

	for _, id := range candidateIDs {
		if c := counts[id]; c > 0 {
			out[id] = neutralScore + 0.5*float64(c)/float64(maxCount)
		}
	}

	return out, nil
}

func (s *Service) peerCounts(ctx context.Context, customerID uint) (map[uint64]int64, error) {
	s.mu.Lock()
	entry, ok := s.cache[customerID]
	s.mu.Unlock()

	if ok && s.now().Before(entry.expiresAt) {
		return entry.counts, nil
	}

	counts, err := s.repo.SimilarCustomerItemCounts(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load similar customer history: %w", err)
	}

	s.mu.Lock()
	s.cache[customerID] = cacheEntry{
		counts:    counts,
		expiresAt: s.now().Add(s.cacheTTL),
	}
	s.mu.Unlock()

	return counts, nil
}

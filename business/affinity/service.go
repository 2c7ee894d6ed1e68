package affinity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshBite/pkg/logger"
)

const (
	defaultLookback    = 30 * 24 * time.Hour
	defaultCacheTTL    = 10 * time.Minute
	defaultBasketLimit = 50000
	neutralScore       = 0.5
)

// OrderHistoryRepository returns recent order baskets: the set of item IDs
// that appeared together in one purchase.
type OrderHistoryRepository interface {
	RecentBaskets(ctx context.Context, since time.Time, limit int) ([][]uint64, error)
}

// Service scores candidates by historical co-occurrence with the shopper's
// current cart, as conditional probabilities over past baskets. The
// co-occurrence matrix is derived data rebuilt on staleness; a concurrent
// rebuild race is harmless (last writer wins).
type Service struct {
	repo        OrderHistoryRepository
	lookback    time.Duration
	cacheTTL    time.Duration
	basketLimit int
	now         func() time.Time

	mu       sync.Mutex
	pairs    map[uint64]map[uint64]int64 // item -> co-ordered item -> basket count
	baskets  map[uint64]int64            // item -> baskets containing it
	builtAt  time.Time
	hasModel bool
}

func NewService(repo OrderHistoryRepository, lookback, cacheTTL time.Duration) *Service {
	if lookback <= 0 {
		lookback = defaultLookback
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Service{
		repo:        repo,
		lookback:    lookback,
		cacheTTL:    cacheTTL,
		basketLimit: defaultBasketLimit,
		now:         time.Now,
	}
}

// Scores returns one boost per candidate in [0.5, 1]: neutral 0.5 for
// anything without co-occurrence history, so a sparse affinity signal can
// never veto an otherwise strong candidate.
func (s *Service) Scores(ctx context.Context, cartItemIDs, candidateIDs []uint64) (map[uint64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	out := make(map[uint64]float64, len(candidateIDs))
	for _, id := range candidateIDs {
		out[id] = neutralScore
	}
	if len(cartItemIDs) == 0 {
		return out, nil
	}

	pairs, baskets, err := s.model(ctx)
	if err != nil {
		logger.Warn("affinity model unavailable, scoring neutral", "error", err)
		return out, nil
	}

	for _, cand := range candidateIDs {
		sum := 0.0
		for _, cartItem := range cartItemIDs {
			total := baskets[cartItem]
			if total == 0 {
				continue
			}
			co := pairs[cartItem][cand]
			// conditional probability P(candidate | cart item)
			sum += float64(co) / float64(total)
		}

		strength := clamp01(sum / float64(len(cartItemIDs)))
		out[cand] = neutralScore + 0.5*strength
	}

	return out, nil
}

// model returns the current co-occurrence matrix, rebuilding it from order
// history when stale.
func (s *Service) model(ctx context.Context) (map[uint64]map[uint64]int64, map[uint64]int64, error) {
	s.mu.Lock()
	fresh := s.hasModel && s.now().Sub(s.builtAt) < s.cacheTTL
	pairs, baskets := s.pairs, s.baskets
	s.mu.Unlock()

	if fresh {
		return pairs, baskets, nil
	}

	rows, err := s.repo.RecentBaskets(ctx, s.now().Add(-s.lookback), s.basketLimit)
	if err != nil {
		// keep serving the stale matrix if we have one
		if s.hasModel {
			logger.Warn("affinity rebuild failed, serving stale matrix", "error", err)
			return pairs, baskets, nil
		}
		return nil, nil, fmt.Errorf("failed to load order baskets: %w", err)
	}

	newPairs := make(map[uint64]map[uint64]int64)
	newBaskets := make(map[uint64]int64)
	for _, basket := range rows {
		unique := uniqueIDs(basket)
		for _, a := range unique {
			newBaskets[a]++
			for _, b := range unique {
				if a == b {
					continue
				}
				m, ok := newPairs[a]
				if !ok {
					m = make(map[uint64]int64)
					newPairs[a] = m
				}
				m[b]++
			}
		}
	}

	s.mu.Lock()
	s.pairs = newPairs
	s.baskets = newBaskets
	s.builtAt = s.now()
	s.hasModel = true
	s.mu.Unlock()

	return newPairs, newBaskets, nil
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

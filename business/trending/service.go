package trending

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"freshBite/domain"
	"freshBite/pkg/logger"
)

const (
	defaultWindowHours = 6
	defaultCacheTTL    = 5 * time.Minute

	risingThreshold  = 10.0
	fallingThreshold = -10.0

	// fixed blend of the three normalized score components
	wPopularity = 0.4
	wVelocity   = 0.4
	wRecency    = 0.2
)

// OrderHistoryRepository returns per-item order quantities aggregated over
// [from, to).
type OrderHistoryRepository interface {
	CountByItem(ctx context.Context, from, to time.Time) (map[uint64]int64, error)
}

type cacheEntry struct {
	items     []domain.TrendingItem
	expiresAt time.Time
}

// Service computes short-window order-rate acceleration per item. Results
// are a pure function of order history; the cache is a latency
// optimization only and is invalidated by staleness, never write-through.
type Service struct {
	repo     OrderHistoryRepository
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewService(repo OrderHistoryRepository, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Service{
		repo:     repo,
		cacheTTL: cacheTTL,
		now:      time.Now,
		cache:    make(map[string]cacheEntry),
	}
}

// Trending returns the full breakdown for the given items over the chosen
// window, sorted descending by score with ranks starting at 1. A history
// query failure degrades every item to a neutral snapshot instead of
// aborting the batch.
func (s *Service) Trending(ctx context.Context, itemIDs []uint64, windowHours int) ([]domain.TrendingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if windowHours <= 0 {
		windowHours = defaultWindowHours
	}
	if len(itemIDs) == 0 {
		return []domain.TrendingItem{}, nil
	}

	key := cacheKey(windowHours, itemIDs)
	if items, ok := s.cached(key); ok {
		return items, nil
	}

	now := s.now()
	window := time.Duration(windowHours) * time.Hour

	current, err := s.repo.CountByItem(ctx, now.Add(-window), now)
	if err != nil {
		logger.Warn("trending window query failed, degrading to neutral", "window", "current", "error", err)
		return neutralItems(itemIDs), nil
	}
	previous, err := s.repo.CountByItem(ctx, now.Add(-2*window), now.Add(-window))
	if err != nil {
		logger.Warn("trending window query failed, degrading to neutral", "window", "previous", "error", err)
		return neutralItems(itemIDs), nil
	}
	older, err := s.repo.CountByItem(ctx, now.Add(-3*window), now.Add(-2*window))
	if err != nil {
		logger.Warn("trending window query failed, degrading to neutral", "window", "older", "error", err)
		return neutralItems(itemIDs), nil
	}

	items := s.compute(itemIDs, current, previous, older, windowHours)
	s.store(key, items)

	return items, nil
}

// Scores maps Trending output to a flat score-per-item map for fusion.
func (s *Service) Scores(ctx context.Context, itemIDs []uint64, windowHours int) (map[uint64]float64, error) {
	items, err := s.Trending(ctx, itemIDs, windowHours)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]float64, len(items))
	for _, it := range items {
		out[it.ItemID] = it.Score
	}
	return out, nil
}

func (s *Service) compute(itemIDs []uint64, current, previous, older map[uint64]int64, windowHours int) []domain.TrendingItem {
	items := make([]domain.TrendingItem, 0, len(itemIDs))

	// first pass: velocities, to normalize against the batch max
	maxVelocity := 0.0
	velocities := make(map[uint64]float64, len(itemIDs))
	for _, id := range itemIDs {
		v := velocity(current[id], previous[id], windowHours)
		velocities[id] = v
		if math.Abs(v) > maxVelocity {
			maxVelocity = math.Abs(v)
		}
	}

	for _, id := range itemIDs {
		cur := current[id]
		prev := previous[id]
		vel := velocities[id]
		prevVel := velocity(prev, older[id], windowHours)
		pc := percentChange(cur, prev)

		items = append(items, domain.TrendingItem{
			ItemID:        id,
			Velocity:      vel,
			Acceleration:  (vel - prevVel) / float64(windowHours),
			Score:         trendingScore(cur, vel, maxVelocity, windowHours),
			Momentum:      momentumFor(pc),
			CurrentCount:  cur,
			PreviousCount: prev,
			PercentChange: pc,
		})
	}

	// deterministic order: score descending, then item ID ascending
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score == items[j].Score {
			return items[i].ItemID < items[j].ItemID
		}
		return items[i].Score > items[j].Score
	})
	for i := range items {
		items[i].Rank = i + 1
	}

	return items
}

// velocity is net order-rate change per hour across two adjacent windows.
func velocity(current, previous int64, windowHours int) float64 {
	return float64(current-previous) / float64(windowHours)
}

// percentChange treats zero-base growth as proportional to the raw count
// (previous == 0 yields current*100) so cold items never divide by zero.
func percentChange(current, previous int64) float64 {
	if previous == 0 {
		return float64(current) * 100
	}
	return float64(current-previous) / float64(previous) * 100
}

// momentumFor classifies by strict thresholds: +-10 itself is stable.
func momentumFor(pc float64) string {
	switch {
	case pc > risingThreshold:
		return domain.MomentumRising
	case pc < fallingThreshold:
		return domain.MomentumFalling
	default:
		return domain.MomentumStable
	}
}

// trendingScore blends log-scaled popularity, batch-normalized velocity and
// a window recency boost, then maps the roughly [-1,2] sum into [0,1].
func trendingScore(current int64, vel, maxVelocity float64, windowHours int) float64 {
	popularity := math.Log10(float64(current) + 1)

	velNorm := 0.0
	if maxVelocity > 0 {
		velNorm = clamp(vel/maxVelocity, -1, 1)
	}

	recency := 1 / math.Sqrt(float64(windowHours))

	raw := wPopularity*popularity + wVelocity*velNorm + wRecency*recency
	return clamp((raw+1)/3, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func neutralItems(itemIDs []uint64) []domain.TrendingItem {
	items := make([]domain.TrendingItem, 0, len(itemIDs))
	for i, id := range itemIDs {
		items = append(items, domain.TrendingItem{
			ItemID:   id,
			Score:    0.5,
			Momentum: domain.MomentumStable,
			Rank:     i + 1,
		})
	}
	return items
}

// ---- cache ----

func cacheKey(windowHours int, itemIDs []uint64) string {
	ids := make([]uint64, len(itemIDs))
	copy(ids, itemIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "w=%d", windowHours)
	for _, id := range ids {
		fmt.Fprintf(&b, "|%d", id)
	}
	return b.String()
}

func (s *Service) cached(key string) ([]domain.TrendingItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok || s.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.items, true
}

func (s *Service) store(key string, items []domain.TrendingItem) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{
		items:     items,
		expiresAt: s.now().Add(s.cacheTTL),
	}
	s.mu.Unlock()
}

package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshBite/domain"
)

const statsShards = 32

type armCounters struct {
	impressions uint64
	conversions uint64
	lastUpdated time.Time
}

type statsShard struct {
	mu   sync.Mutex
	arms map[uint64]*armCounters
}

// BanditStatsRepository is an in-process statistics store: a sharded map
// with per-shard locking so concurrent feedback increments from many
// requests never lose updates. Used when Redis is not configured, and by
// tests.
type BanditStatsRepository struct {
	shards [statsShards]*statsShard
}

func NewBanditStatsRepository() *BanditStatsRepository {
	r := &BanditStatsRepository{}
	for i := range r.shards {
		r.shards[i] = &statsShard{arms: make(map[uint64]*armCounters)}
	}
	return r
}

func (r *BanditStatsRepository) shardFor(itemID uint64) *statsShard {
	return r.shards[itemID%statsShards]
}

func (r *BanditStatsRepository) GetArms(ctx context.Context, itemIDs []uint64) (map[uint64]domain.BanditArm, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	out := make(map[uint64]domain.BanditArm, len(itemIDs))
	for _, id := range itemIDs {
		shard := r.shardFor(id)
		shard.mu.Lock()
		if c, ok := shard.arms[id]; ok {
			out[id] = domain.BanditArm{
				ItemID:      id,
				Impressions: c.impressions,
				Conversions: c.conversions,
				LastUpdated: c.lastUpdated,
			}
		}
		shard.mu.Unlock()
	}

	return out, nil
}

func (r *BanditStatsRepository) IncrImpression(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	shard := r.shardFor(itemID)
	shard.mu.Lock()
	c := shard.armLocked(itemID)
	c.impressions++
	c.lastUpdated = time.Now()
	shard.mu.Unlock()

	return nil
}

func (r *BanditStatsRepository) IncrConversion(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	shard := r.shardFor(itemID)
	shard.mu.Lock()
	c := shard.armLocked(itemID)
	c.impressions++
	c.conversions++
	c.lastUpdated = time.Now()
	shard.mu.Unlock()

	return nil
}

func (r *BanditStatsRepository) Reset(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	shard := r.shardFor(itemID)
	shard.mu.Lock()
	delete(shard.arms, itemID)
	shard.mu.Unlock()

	return nil
}

// armLocked lazily creates the counters for an arm. Caller holds mu.
func (s *statsShard) armLocked(itemID uint64) *armCounters {
	c, ok := s.arms[itemID]
	if !ok {
		c = &armCounters{}
		s.arms[itemID] = c
	}
	return c
}

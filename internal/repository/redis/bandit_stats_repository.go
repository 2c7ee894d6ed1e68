package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"freshBite/domain"

	"github.com/redis/go-redis/v9"
)

const (
	fieldImpressions = "impressions"
	fieldConversions = "conversions"
	fieldUpdatedAt   = "updated_at"
)

// BanditStatsRepository keeps one hash per arm and relies on Redis
// server-side HINCRBY for atomic counter increments, so many concurrent
// feedback writers never lose updates.
type BanditStatsRepository struct {
	client *redis.Client
}

func NewBanditStatsRepository(client *redis.Client) *BanditStatsRepository {
	return &BanditStatsRepository{
		client: client,
	}
}

func armKey(itemID uint64) string {
	// key format: "bandit:arm:{item_id}"
	return fmt.Sprintf("bandit:arm:%d", itemID)
}

func (r *BanditStatsRepository) GetArms(ctx context.Context, itemIDs []uint64) (map[uint64]domain.BanditArm, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	pipe := r.client.Pipeline()
	cmds := make(map[uint64]*redis.MapStringStringCmd, len(itemIDs))
	for _, id := range itemIDs {
		cmds[id] = pipe.HGetAll(ctx, armKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read bandit arms: %w", err)
	}

	out := make(map[uint64]domain.BanditArm, len(itemIDs))
	for id, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// never referenced: lazy prior, no entry
			continue
		}

		arm := domain.BanditArm{ItemID: id}
		if v, err := strconv.ParseUint(fields[fieldImpressions], 10, 64); err == nil {
			arm.Impressions = v
		}
		if v, err := strconv.ParseUint(fields[fieldConversions], 10, 64); err == nil {
			arm.Conversions = v
		}
		if v, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64); err == nil {
			arm.LastUpdated = time.Unix(v, 0)
		}
		out[id] = arm
	}

	return out, nil
}

func (r *BanditStatsRepository) IncrImpression(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	key := armKey(itemID)
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, key, fieldImpressions, 1)
	pipe.HSet(ctx, key, fieldUpdatedAt, time.Now().Unix())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment impressions: %w", err)
	}

	return nil
}

func (r *BanditStatsRepository) IncrConversion(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	key := armKey(itemID)
	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, key, fieldImpressions, 1)
	pipe.HIncrBy(ctx, key, fieldConversions, 1)
	pipe.HSet(ctx, key, fieldUpdatedAt, time.Now().Unix())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to increment conversions: %w", err)
	}

	return nil
}

func (r *BanditStatsRepository) Reset(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.client.Del(ctx, armKey(itemID)).Err(); err != nil {
		return fmt.Errorf("failed to reset arm: %w", err)
	}

	return nil
}

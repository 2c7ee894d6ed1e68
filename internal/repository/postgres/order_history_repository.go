package postgres

import (
	"context"
	"fmt"
	"time"

	"freshBite/domain"

	"gorm.io/gorm"
)

// OrderHistoryRepository serves the read-only aggregates the scorers need:
// windowed counts for the trend detector, baskets for the affinity matrix
// and peer overlap for collaborative filtering.
type OrderHistoryRepository struct {
	DB *gorm.DB
}

func NewOrderHistoryRepository(db *gorm.DB) *OrderHistoryRepository {
	return &OrderHistoryRepository{DB: db}
}

type itemCountRow struct {
	ItemID uint64 `gorm:"column:item_id"`
	Total  int64  `gorm:"column:total"`
}

// CountByItem returns per-item order quantities over [from, to).
func (r *OrderHistoryRepository) CountByItem(ctx context.Context, from, to time.Time) (map[uint64]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []itemCountRow
	err := r.DB.WithContext(ctx).
		Model(&domain.Order{}).
		Select("item_id, SUM(quantity) AS total").
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order counts: %w", err)
	}

	out := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		out[row.ItemID] = row.Total
	}

	return out, nil
}

// RecentBaskets groups order lines into baskets: one basket per customer
// per day, the granularity co-occurrence is counted at.
func (r *OrderHistoryRepository) RecentBaskets(ctx context.Context, since time.Time, limit int) ([][]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var lines []domain.Order
	err := r.DB.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("customer_id, created_at").
		Limit(limit).
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}

	type basketKey struct {
		customerID uint
		day        time.Time
	}

	grouped := make(map[basketKey][]uint64)
	order := make([]basketKey, 0)
	for _, line := range lines {
		key := basketKey{
			customerID: line.CustomerID,
			day:        line.CreatedAt.Truncate(24 * time.Hour),
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], line.ItemID)
	}

	baskets := make([][]uint64, 0, len(grouped))
	for _, key := range order {
		baskets = append(baskets, grouped[key])
	}

	return baskets, nil
}

// SimilarCustomerItemCounts counts, per item, how often customers sharing
// at least one historical item with this customer have ordered it.
func (r *OrderHistoryRepository) SimilarCustomerItemCounts(ctx context.Context, customerID uint) (map[uint64]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var rows []itemCountRow
	err := r.DB.WithContext(ctx).Raw(`
		SELECT o.item_id, COUNT(*) AS total
		FROM orders o
		WHERE o.customer_id IN (
			SELECT DISTINCT peer.customer_id
			FROM orders peer
			WHERE peer.customer_id <> ?
			  AND peer.item_id IN (
				SELECT item_id FROM orders WHERE customer_id = ?
			  )
		)
		GROUP BY o.item_id`, customerID, customerID).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query similar customer history: %w", err)
	}

	out := make(map[uint64]int64, len(rows))
	for _, row := range rows {
		out[row.ItemID] = row.Total
	}

	return out, nil
}

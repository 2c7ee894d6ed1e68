package postgres

import (
	"context"
	"fmt"

	"freshBite/domain"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// FindAvailable returns available candidate items, optionally filtered by
// category, capped at limit for latency control.
func (r *CatalogRepository) FindAvailable(ctx context.Context, category string, limit int) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	q := r.DB.WithContext(ctx).Where("is_available = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var items []domain.CandidateItem
	if err := q.Order("popularity DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query candidate items: %w", err)
	}

	return items, nil
}

func (r *CatalogRepository) FindByIDs(ctx context.Context, ids []uint64) ([]domain.CandidateItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var items []domain.CandidateItem
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to query candidate items: %w", err)
	}

	return items, nil
}

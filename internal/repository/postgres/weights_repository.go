package postgres

import (
	"context"
	"fmt"

	"freshBite/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WeightsRepository struct {
	DB *gorm.DB
}

func NewWeightsRepository(db *gorm.DB) *WeightsRepository {
	return &WeightsRepository{DB: db}
}

func (r *WeightsRepository) GetWeights(ctx context.Context, vertical string) (domain.RecoWeights, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.RecoWeights{}, false, fmt.Errorf("context error: %w", err)
	}

	var row domain.RecoWeights
	err := r.DB.WithContext(ctx).First(&row, "vertical = ?", vertical).Error
	if err == gorm.ErrRecordNotFound {
		return domain.RecoWeights{}, false, nil
	}
	if err != nil {
		return domain.RecoWeights{}, false, fmt.Errorf("failed to query reco_weights: %w", err)
	}

	return row, true, nil
}

func (r *WeightsRepository) UpsertWeights(ctx context.Context, w domain.RecoWeights) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "vertical"}},
			UpdateAll: true,
		},
	).Create(&w).Error; err != nil {
		return fmt.Errorf("failed to upsert reco_weights: %w", err)
	}

	return nil
}

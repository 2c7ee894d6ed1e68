package recommend

import (
	"context"
	"fmt"
	"math"

	"freshBite/domain"
)

const (
	VerticalFoodDelivery = "food_delivery"
	VerticalGrocery      = "grocery"

	defaultWindowHours   = 6
	defaultMaxCandidates = 200
	defaultLimit         = 10
)

// Weights is the per-vertical signal blend. The exact numbers are a
// business decision tuned against outcome data; code only enforces the
// structural invariant that they are non-negative and sum to 1.
type Weights struct {
	Bandit        float64 `json:"bandit"`
	Trending      float64 `json:"trending"`
	Affinity      float64 `json:"affinity"`
	Collaborative float64 `json:"collaborative"`
}

func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"bandit":        w.Bandit,
		"trending":      w.Trending,
		"affinity":      w.Affinity,
		"collaborative": w.Collaborative,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s is negative: %f", name, v)
		}
	}

	sum := w.Bandit + w.Trending + w.Affinity + w.Collaborative
	if math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %f", sum)
	}

	return nil
}

func DefaultWeights(vertical string) Weights {
	switch vertical {
	case VerticalGrocery:
		return Weights{Bandit: 0.25, Trending: 0.20, Affinity: 0.30, Collaborative: 0.25}
	default:
		// food delivery
		return Weights{Bandit: 0.30, Trending: 0.25, Affinity: 0.25, Collaborative: 0.20}
	}
}

// read per-vertical weights from DB, falling back to defaults on miss.
type WeightsRepository interface {
	GetWeights(ctx context.Context, vertical string) (domain.RecoWeights, bool, error)
	UpsertWeights(ctx context.Context, w domain.RecoWeights) error
}

type Config struct {
	TrendingWindowHours int
	MaxCandidates       int
	DefaultLimit        int
}

func DefaultConfig() Config {
	return Config{
		TrendingWindowHours: defaultWindowHours,
		MaxCandidates:       defaultMaxCandidates,
		DefaultLimit:        defaultLimit,
	}
}

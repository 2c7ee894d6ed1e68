package bandit

import (
	"context"
	"fmt"
	"math"
	"sort"

	"freshBite/domain"
	"freshBite/pkg/logger"
)

const (
	minExplorationRate = 0.05
	maxExplorationRate = 0.30
)

// StatsRepository is the statistics store behind the scorer: two monotonic
// counters per item with server-side atomic increments. Arms that were
// never written simply don't appear in GetArms results.
type StatsRepository interface {
	GetArms(ctx context.Context, itemIDs []uint64) (map[uint64]domain.BanditArm, error)
	IncrImpression(ctx context.Context, itemID uint64) error
	IncrConversion(ctx context.Context, itemID uint64) error
	Reset(ctx context.Context, itemID uint64) error
}

type Service struct {
	repo    StatsRepository
	sampler *Sampler
}

func NewService(repo StatsRepository, sampler *Sampler) *Service {
	if sampler == nil {
		sampler = NewSampler(0)
	}
	return &Service{
		repo:    repo,
		sampler: sampler,
	}
}

// Scores draws one Thompson sample per item. A statistics-store read
// failure must not fail a ranking request: every affected item degrades to
// the uninformed Beta(1,1) prior and the degradation is logged.
func (s *Service) Scores(ctx context.Context, itemIDs []uint64) (map[uint64]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	arms, err := s.repo.GetArms(ctx, itemIDs)
	if err != nil {
		logger.Warn("bandit stats unavailable, falling back to uniform prior",
			"items", len(itemIDs),
			"error", err,
		)
		arms = nil
	}

	out := make(map[uint64]float64, len(itemIDs))
	for _, id := range itemIDs {
		arm, ok := arms[id]
		if !ok {
			arm = domain.BanditArm{ItemID: id}
		}
		out[id] = s.sampler.SampleBeta(arm.Alpha(), arm.Beta())
	}

	return out, nil
}

// RecordImpression bumps the impression counter for an item actually shown
// to a user. Kept separate from scoring so speculative score draws never
// inflate statistics.
func (s *Service) RecordImpression(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.repo.IncrImpression(ctx, itemID); err != nil {
		return fmt.Errorf("failed to record impression: %w", err)
	}

	return nil
}

// RecordConversion bumps both counters so the next scoring call observes
// the update.
func (s *Service) RecordConversion(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.repo.IncrConversion(ctx, itemID); err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}

	return nil
}

// Reset wipes an arm back to the uniform prior. Administrative use only.
func (s *Service) Reset(ctx context.Context, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := s.repo.Reset(ctx, itemID); err != nil {
		return fmt.Errorf("failed to reset arm: %w", err)
	}

	return nil
}

// LeastSampled returns up to n item IDs ordered by fewest impressions,
// ties broken by ascending item ID. Used by the orchestrator to fill
// cold-start exploration slots. Degrades to plain ID order when the
// statistics store is unreachable.
func (s *Service) LeastSampled(ctx context.Context, itemIDs []uint64, n int) []uint64 {
	if n <= 0 || len(itemIDs) == 0 {
		return nil
	}

	arms, err := s.repo.GetArms(ctx, itemIDs)
	if err != nil {
		logger.Warn("bandit stats unavailable for exploration slots", "error", err)
		arms = nil
	}

	sorted := make([]uint64, len(itemIDs))
	copy(sorted, itemIDs)
	sort.Slice(sorted, func(i, j int) bool {
		li := arms[sorted[i]].Impressions
		lj := arms[sorted[j]].Impressions
		if li == lj {
			return sorted[i] < sorted[j]
		}
		return li < lj
	})

	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// OptimalExplorationRate bounds the fraction of result slots reserved for
// pure exploration: clamp(1/sqrt(n), 0.05, 0.30) for a catalog of size n.
func OptimalExplorationRate(catalogSize int) float64 {
	if catalogSize <= 0 {
		return maxExplorationRate
	}

	rate := 1 / math.Sqrt(float64(catalogSize))
	if rate < minExplorationRate {
		return minExplorationRate
	}
	if rate > maxExplorationRate {
		return maxExplorationRate
	}
	return rate
}

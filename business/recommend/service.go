package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"freshBite/business/bandit"
	"freshBite/domain"
	"freshBite/pkg/logger"
	"freshBite/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// neutralScore is what a missing, failed or panicking signal contributes,
// so one bad scorer can never veto or crash a request.
const neutralScore = 0.5

// ---- Collaborator interfaces ----

type CatalogRepository interface {
	FindAvailable(ctx context.Context, category string, limit int) ([]domain.CandidateItem, error)
}

type BanditScorer interface {
	Scores(ctx context.Context, itemIDs []uint64) (map[uint64]float64, error)
	LeastSampled(ctx context.Context, itemIDs []uint64, n int) []uint64
}

type TrendingScorer interface {
	Scores(ctx context.Context, itemIDs []uint64, windowHours int) (map[uint64]float64, error)
	Trending(ctx context.Context, itemIDs []uint64, windowHours int) ([]domain.TrendingItem, error)
}

type AffinityScorer interface {
	Scores(ctx context.Context, cartItemIDs, candidateIDs []uint64) (map[uint64]float64, error)
}

type CollaborativeScorer interface {
	Scores(ctx context.Context, customerID uint, candidateIDs []uint64) (map[uint64]float64, error)
}

// ---- Usecase / Service ----

type Service struct {
	catalogRepo CatalogRepository
	banditSc    BanditScorer
	trendingSc  TrendingScorer
	affinitySc  AffinityScorer
	collabSc    CollaborativeScorer
	weightsRepo WeightsRepository
	cfg         Config
}

func NewService(
	catalogRepo CatalogRepository,
	banditSc BanditScorer,
	trendingSc TrendingScorer,
	affinitySc AffinityScorer,
	collabSc CollaborativeScorer,
	weightsRepo WeightsRepository,
	cfg Config,
) *Service {
	if cfg.TrendingWindowHours <= 0 {
		cfg.TrendingWindowHours = defaultWindowHours
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaultLimit
	}

	return &Service{
		catalogRepo: catalogRepo,
		banditSc:    banditSc,
		trendingSc:  trendingSc,
		affinitySc:  affinitySc,
		collabSc:    collabSc,
		weightsRepo: weightsRepo,
		cfg:         cfg,
	}
}

type Options struct {
	Vertical string
	Category string
	Limit    int
}

// Recommend produces the ranked, annotated result list: filter candidates,
// run the four scorers concurrently, blend with the vertical's weights,
// reserve exploration slots, sort and truncate.
func (s *Service) Recommend(
	ctx context.Context,
	rctx domain.RecommendationContext,
	opts Options,
) ([]domain.RankedRecommendation, error) {

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	// 1) candidates, filtered by hard business rules
	candidates, err := s.loadCandidates(ctx, opts.Category, rctx.CartItemIDs)
	if err != nil {
		// recommendation is additive, never load-bearing: degrade to empty
		logger.Warn("candidate source unavailable, returning empty result",
			"trace_id", TraceIDFromContext(ctx),
			"error", err,
		)
		return []domain.RankedRecommendation{}, nil
	}
	if len(candidates) == 0 {
		return []domain.RankedRecommendation{}, nil
	}

	ids := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	weights := s.Weights(ctx, opts.Vertical)

	logger.Debug("recommend",
		"trace_id", TraceIDFromContext(ctx),
		"customer_id", rctx.CustomerID,
		"session_id", rctx.SessionID,
		"vertical", opts.Vertical,
		"limit", limit,
		"candidate_count", len(ids),
	)

	// 2) four independent signals, joined before fusion
	signals := s.collectSignals(ctx, rctx, ids)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	// 3) weighted blend per candidate
	ranked := make([]domain.RankedRecommendation, 0, len(candidates))
	for _, c := range candidates {
		breakdown := domain.SignalBreakdown{
			Bandit:        signalScore(signals.bandit, c.ID),
			Trending:      signalScore(signals.trending, c.ID),
			Affinity:      signalScore(signals.affinity, c.ID),
			Collaborative: signalScore(signals.collaborative, c.ID),
		}

		ranked = append(ranked, domain.RankedRecommendation{
			ItemID: c.ID,
			Score: weights.Bandit*breakdown.Bandit +
				weights.Trending*breakdown.Trending +
				weights.Affinity*breakdown.Affinity +
				weights.Collaborative*breakdown.Collaborative,
			Signals:  breakdown,
			Metadata: c.Metadata,
		})
	}

	// 4) deterministic order: score descending, item ID ascending on ties
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score == ranked[j].Score {
			return ranked[i].ItemID < ranked[j].ItemID
		}
		return ranked[i].Score > ranked[j].Score
	})

	// 5) cold-start exploration slots
	out := s.applyExplorationSlots(ctx, ranked, ids, limit)

	for i := range out {
		out[i].Rank = i + 1
	}

	return out, nil
}

// TrendingSnapshot exposes the trend detector over the current catalog,
// for the trending endpoint.
func (s *Service) TrendingSnapshot(ctx context.Context, category string, windowHours, limit int) ([]domain.TrendingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if windowHours <= 0 {
		windowHours = s.cfg.TrendingWindowHours
	}

	candidates, err := s.catalogRepo.FindAvailable(ctx, category, s.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	if len(candidates) == 0 {
		return []domain.TrendingItem{}, nil
	}

	ids := make([]uint64, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}

	items, err := s.trendingSc.Trending(ctx, ids, windowHours)
	if err != nil {
		return nil, err
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// Weights resolves the blend for a vertical: DB override first, in-code
// defaults when missing, invalid or unreachable.
func (s *Service) Weights(ctx context.Context, vertical string) Weights {
	if vertical == "" {
		vertical = VerticalFoodDelivery
	}

	def := DefaultWeights(vertical)
	if s.weightsRepo == nil {
		return def
	}

	row, ok, err := s.weightsRepo.GetWeights(ctx, vertical)
	if err != nil || !ok {
		return def
	}

	w := Weights{
		Bandit:        row.WBandit,
		Trending:      row.WTrending,
		Affinity:      row.WAffinity,
		Collaborative: row.WCollaborative,
	}
	if err := w.Validate(); err != nil {
		logger.Warn("stored weights invalid, using defaults", "vertical", vertical, "error", err)
		return def
	}

	return w
}

// ---- internals ----

func (s *Service) loadCandidates(ctx context.Context, category string, cartItemIDs []uint64) ([]domain.CandidateItem, error) {
	rows, err := s.catalogRepo.FindAvailable(ctx, category, s.cfg.MaxCandidates)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}

	inCart := make(map[uint64]struct{}, len(cartItemIDs))
	for _, id := range cartItemIDs {
		inCart[id] = struct{}{}
	}

	out := rows[:0]
	for _, c := range rows {
		if !c.IsAvailable {
			continue
		}
		if _, ok := inCart[c.ID]; ok {
			continue
		}
		out = append(out, c)
	}

	return out, nil
}

type signalSet struct {
	bandit        map[uint64]float64
	trending      map[uint64]float64
	affinity      map[uint64]float64
	collaborative map[uint64]float64
}

// collectSignals runs the four scorers concurrently and joins them before
// fusion. Each runs behind its own bulkhead: an error or panic degrades
// that signal to neutral for every item instead of failing the request.
func (s *Service) collectSignals(ctx context.Context, rctx domain.RecommendationContext, ids []uint64) signalSet {
	var out signalSet

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.bandit = s.runScorer(gctx, "bandit", func(c context.Context) (map[uint64]float64, error) {
			return s.banditSc.Scores(c, ids)
		})
		return nil
	})
	g.Go(func() error {
		out.trending = s.runScorer(gctx, "trending", func(c context.Context) (map[uint64]float64, error) {
			return s.trendingSc.Scores(c, ids, s.cfg.TrendingWindowHours)
		})
		return nil
	})
	g.Go(func() error {
		out.affinity = s.runScorer(gctx, "affinity", func(c context.Context) (map[uint64]float64, error) {
			return s.affinitySc.Scores(c, rctx.CartItemIDs, ids)
		})
		return nil
	})
	g.Go(func() error {
		out.collaborative = s.runScorer(gctx, "collaborative", func(c context.Context) (map[uint64]float64, error) {
			return s.collabSc.Scores(c, rctx.CustomerID, ids)
		})
		return nil
	})

	_ = g.Wait()
	return out
}

func (s *Service) runScorer(
	ctx context.Context,
	signal string,
	fn func(context.Context) (map[uint64]float64, error),
) (scores map[uint64]float64) {

	defer func() {
		if r := recover(); r != nil {
			logger.Error("scorer panicked, degrading to neutral",
				"signal", signal,
				"panic", fmt.Sprintf("%v", r),
			)
			metrics.ScorerFailuresTotal.WithLabelValues(signal).Inc()
			scores = nil
		}
	}()

	scores, err := fn(ctx)
	if err != nil {
		logger.Warn("scorer failed, degrading to neutral", "signal", signal, "error", err)
		metrics.ScorerFailuresTotal.WithLabelValues(signal).Inc()
		return nil
	}

	return scores
}

func signalScore(m map[uint64]float64, itemID uint64) float64 {
	if m == nil {
		return neutralScore
	}
	if v, ok := m[itemID]; ok {
		return v
	}
	return neutralScore
}

// applyExplorationSlots reserves the tail of the result list for the
// catalog's least-sampled items so cold arms are guaranteed visibility
// regardless of their blended score.
func (s *Service) applyExplorationSlots(
	ctx context.Context,
	ranked []domain.RankedRecommendation,
	ids []uint64,
	limit int,
) []domain.RankedRecommendation {

	if limit > len(ranked) {
		limit = len(ranked)
	}

	slots := int(math.Round(bandit.OptimalExplorationRate(len(ids)) * float64(limit)))
	if slots >= limit {
		slots = limit - 1
	}
	if slots <= 0 {
		return ranked[:limit]
	}

	byID := make(map[uint64]domain.RankedRecommendation, len(ranked))
	for _, r := range ranked {
		byID[r.ItemID] = r
	}

	keep := limit - slots
	out := make([]domain.RankedRecommendation, 0, limit)
	taken := make(map[uint64]struct{}, limit)
	for _, r := range ranked[:keep] {
		out = append(out, r)
		taken[r.ItemID] = struct{}{}
	}

	for _, id := range s.banditSc.LeastSampled(ctx, ids, limit) {
		if len(out) >= limit {
			break
		}
		if _, ok := taken[id]; ok {
			continue
		}
		rec := byID[id]
		rec.Exploration = true
		out = append(out, rec)
		taken[id] = struct{}{}
		metrics.ExplorationSlotsTotal.Inc()
	}

	// backfill from the ranked order if exploration couldn't fill the tail
	for _, r := range ranked {
		if len(out) >= limit {
			break
		}
		if _, ok := taken[r.ItemID]; ok {
			continue
		}
		out = append(out, r)
		taken[r.ItemID] = struct{}{}
	}

	return out
}

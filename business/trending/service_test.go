package trending

import (
	"context"
	"errors"
	"testing"
	"time"

	"freshBite/domain"
)

type fakeOrderHistory struct {
	// windows keyed by how far back the window starts, in hours
	counts map[int]map[uint64]int64
	err    error
	calls  int
	now    time.Time
}

func (f *fakeOrderHistory) CountByItem(_ context.Context, from, _ time.Time) (map[uint64]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	back := int(f.now.Sub(from).Hours())
	if counts, ok := f.counts[back]; ok {
		return counts, nil
	}
	return map[uint64]int64{}, nil
}

func newTrendingService(repo *fakeOrderHistory, ttl time.Duration) *Service {
	svc := NewService(repo, ttl)
	svc.now = func() time.Time { return repo.now }
	return svc
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous int64
		want              float64
	}{
		{5, 0, 500},  // zero base: proportional to raw count
		{0, 0, 0},
		{15, 10, 50},
		{5, 10, -50},
		{10, 10, 0},
	}

	for _, c := range cases {
		if got := percentChange(c.current, c.previous); got != c.want {
			t.Errorf("percentChange(%d, %d) = %v, want %v", c.current, c.previous, got, c.want)
		}
	}
}

func TestMomentumThresholdsAreStrict(t *testing.T) {
	cases := []struct {
		pc   float64
		want string
	}{
		{11, domain.MomentumRising},
		{10, domain.MomentumStable},
		{0, domain.MomentumStable},
		{-10, domain.MomentumStable},
		{-11, domain.MomentumFalling},
	}

	for _, c := range cases {
		if got := momentumFor(c.pc); got != c.want {
			t.Errorf("momentumFor(%v) = %q, want %q", c.pc, got, c.want)
		}
	}
}

func TestTrendingScoreStaysInUnitInterval(t *testing.T) {
	cases := []struct {
		current     int64
		vel, maxVel float64
	}{
		{0, 0, 0},
		{1000000, 50, 50},
		{0, -50, 50},
		{3, 0.5, 0.5},
	}

	for _, c := range cases {
		got := trendingScore(c.current, c.vel, c.maxVel, 6)
		if got < 0 || got > 1 {
			t.Errorf("trendingScore(%d, %v, %v, 6) = %v, out of [0,1]", c.current, c.vel, c.maxVel, got)
		}
	}
}

// Three items over a 6-hour window: A surging (2 -> 10), B flat (3 -> 3),
// C collapsed (5 -> 0). A must rank first and read rising, C last and
// falling.
func TestTrendingRanksAcceleratingItemFirst(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &fakeOrderHistory{
		now: now,
		counts: map[int]map[uint64]int64{
			6:  {1: 10, 2: 3, 3: 0}, // current window
			12: {1: 2, 2: 3, 3: 5},  // previous window
			18: {1: 1, 2: 3, 3: 6},  // older window
		},
	}
	svc := newTrendingService(repo, time.Minute)

	items, err := svc.Trending(context.Background(), []uint64{1, 2, 3}, 6)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	if items[0].ItemID != 1 || items[0].Rank != 1 {
		t.Errorf("top item = %d rank %d, want item 1 rank 1", items[0].ItemID, items[0].Rank)
	}
	if items[2].ItemID != 3 || items[2].Rank != 3 {
		t.Errorf("bottom item = %d rank %d, want item 3 rank 3", items[2].ItemID, items[2].Rank)
	}

	byID := make(map[uint64]domain.TrendingItem)
	for _, it := range items {
		byID[it.ItemID] = it
	}

	if byID[1].Momentum != domain.MomentumRising {
		t.Errorf("item 1 momentum = %q, want rising", byID[1].Momentum)
	}
	if byID[2].Momentum != domain.MomentumStable {
		t.Errorf("item 2 momentum = %q, want stable", byID[2].Momentum)
	}
	if byID[3].Momentum != domain.MomentumFalling {
		t.Errorf("item 3 momentum = %q, want falling", byID[3].Momentum)
	}

	if byID[1].PercentChange != 400 {
		t.Errorf("item 1 percent change = %v, want 400", byID[1].PercentChange)
	}
	if byID[3].PercentChange != -100 {
		t.Errorf("item 3 percent change = %v, want -100", byID[3].PercentChange)
	}
	// 8 more orders over 6 hours
	if byID[1].Velocity != 8.0/6.0 {
		t.Errorf("item 1 velocity = %v, want %v", byID[1].Velocity, 8.0/6.0)
	}
	// velocity rose from (2-1)/6 to 8/6: still speeding up
	if byID[1].Acceleration <= 0 {
		t.Errorf("item 1 acceleration = %v, want > 0", byID[1].Acceleration)
	}
}

func TestTrendingTieBreaksByItemID(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &fakeOrderHistory{now: now, counts: map[int]map[uint64]int64{}}
	svc := newTrendingService(repo, time.Minute)

	items, err := svc.Trending(context.Background(), []uint64{30, 10, 20}, 1)
	if err != nil {
		t.Fatalf("Trending: %v", err)
	}

	// all scores equal, so ascending ID decides
	want := []uint64{10, 20, 30}
	for i, it := range items {
		if it.ItemID != want[i] {
			t.Errorf("position %d: got item %d, want %d", i, it.ItemID, want[i])
		}
	}
}

func TestTrendingDegradesToNeutralOnQueryFailure(t *testing.T) {
	repo := &fakeOrderHistory{
		now: time.Now(),
		err: errors.New("relation does not exist"),
	}
	svc := newTrendingService(repo, time.Minute)

	items, err := svc.Trending(context.Background(), []uint64{1, 2}, 6)
	if err != nil {
		t.Fatalf("Trending returned error on query failure: %v", err)
	}
	for _, it := range items {
		if it.Score != 0.5 || it.Momentum != domain.MomentumStable {
			t.Errorf("item %d = score %v momentum %q, want neutral 0.5 stable", it.ItemID, it.Score, it.Momentum)
		}
	}
}

func TestTrendingCachesWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &fakeOrderHistory{
		now:    now,
		counts: map[int]map[uint64]int64{1: {1: 4}},
	}
	svc := newTrendingService(repo, 5*time.Minute)
	ctx := context.Background()

	if _, err := svc.Trending(ctx, []uint64{1}, 1); err != nil {
		t.Fatalf("Trending: %v", err)
	}
	first := repo.calls

	// same items, same window: served from cache
	if _, err := svc.Trending(ctx, []uint64{1}, 1); err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if repo.calls != first {
		t.Errorf("repo queried %d times after cached call, want %d", repo.calls, first)
	}

	// past the TTL the cache entry is stale
	repo.now = now.Add(6 * time.Minute)
	if _, err := svc.Trending(ctx, []uint64{1}, 1); err != nil {
		t.Fatalf("Trending: %v", err)
	}
	if repo.calls == first {
		t.Error("expected fresh repo queries after TTL expiry")
	}
}

func TestScoresFlattensTrending(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	repo := &fakeOrderHistory{
		now:    now,
		counts: map[int]map[uint64]int64{1: {7: 9}},
	}
	svc := newTrendingService(repo, time.Minute)

	scores, err := svc.Scores(context.Background(), []uint64{7, 8}, 1)
	if err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("got %d scores, want 2", len(scores))
	}
	if scores[7] <= scores[8] {
		t.Errorf("ordered item score %v not above cold item score %v", scores[7], scores[8])
	}
}

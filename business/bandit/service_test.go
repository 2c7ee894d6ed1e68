package bandit

import (
	"context"
	"errors"
	"math"
	"testing"

	"freshBite/domain"
)

type fakeStatsRepo struct {
	arms    map[uint64]domain.BanditArm
	getErr  error
	imprs   map[uint64]int
	convs   map[uint64]int
	resets  map[uint64]int
	incrErr error
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{
		arms:   make(map[uint64]domain.BanditArm),
		imprs:  make(map[uint64]int),
		convs:  make(map[uint64]int),
		resets: make(map[uint64]int),
	}
}

func (f *fakeStatsRepo) GetArms(_ context.Context, itemIDs []uint64) (map[uint64]domain.BanditArm, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[uint64]domain.BanditArm)
	for _, id := range itemIDs {
		if arm, ok := f.arms[id]; ok {
			out[id] = arm
		}
	}
	return out, nil
}

func (f *fakeStatsRepo) IncrImpression(_ context.Context, itemID uint64) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	f.imprs[itemID]++
	return nil
}

func (f *fakeStatsRepo) IncrConversion(_ context.Context, itemID uint64) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	f.convs[itemID]++
	return nil
}

func (f *fakeStatsRepo) Reset(_ context.Context, itemID uint64) error {
	f.resets[itemID]++
	return nil
}

func TestScoresFallsBackToPriorOnStoreFailure(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewService(repo, NewSampler(11))

	scores, err := svc.Scores(context.Background(), []uint64{1, 2, 3})
	if err != nil {
		t.Fatalf("Scores returned error on store failure: %v", err)
	}
	if len(scores) != 3 {
		t.Fatalf("got %d scores, want 3", len(scores))
	}
	for id, v := range scores {
		if v < 0 || v > 1 {
			t.Errorf("item %d prior score %v out of [0,1]", id, v)
		}
	}
}

func TestScoresFavorsHighConversionArm(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.arms[1] = domain.BanditArm{ItemID: 1, Impressions: 1000, Conversions: 800}
	repo.arms[2] = domain.BanditArm{ItemID: 2, Impressions: 1000, Conversions: 10}
	svc := NewService(repo, NewSampler(21))

	wins := 0
	const trials = 200
	for i := 0; i < trials; i++ {
		scores, err := svc.Scores(context.Background(), []uint64{1, 2})
		if err != nil {
			t.Fatalf("Scores: %v", err)
		}
		if scores[1] > scores[2] {
			wins++
		}
	}

	if wins < trials*9/10 {
		t.Errorf("high-conversion arm won only %d/%d trials", wins, trials)
	}
}

func TestScoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(newFakeStatsRepo(), NewSampler(1))
	if _, err := svc.Scores(ctx, []uint64{1}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestLeastSampledOrdersByImpressions(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.arms[10] = domain.BanditArm{ItemID: 10, Impressions: 500}
	repo.arms[20] = domain.BanditArm{ItemID: 20, Impressions: 2}
	repo.arms[30] = domain.BanditArm{ItemID: 30, Impressions: 2}
	// item 40 has no arm at all: zero impressions, first out.
	svc := NewService(repo, NewSampler(1))

	got := svc.LeastSampled(context.Background(), []uint64{10, 30, 20, 40}, 3)
	want := []uint64{40, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLeastSampledCapsAtCandidateCount(t *testing.T) {
	svc := NewService(newFakeStatsRepo(), NewSampler(1))

	got := svc.LeastSampled(context.Background(), []uint64{5, 6}, 10)
	if len(got) != 2 {
		t.Errorf("got %d items, want 2", len(got))
	}
	if got := svc.LeastSampled(context.Background(), nil, 3); got != nil {
		t.Errorf("empty candidates: got %v, want nil", got)
	}
}

func TestOptimalExplorationRate(t *testing.T) {
	cases := []struct {
		size int
		want float64
	}{
		{100, 0.10},
		{4, 0.30},   // 1/sqrt(4)=0.5 clamped to max
		{10000, 0.05}, // 1/sqrt(10000)=0.01 clamped to min
		{0, 0.30},
	}

	for _, c := range cases {
		got := OptimalExplorationRate(c.size)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("OptimalExplorationRate(%d) = %v, want %v", c.size, got, c.want)
		}
	}
}

func TestRecordConversionWrapsStoreError(t *testing.T) {
	repo := newFakeStatsRepo()
	repo.incrErr = errors.New("write timeout")
	svc := NewService(repo, NewSampler(1))

	if err := svc.RecordConversion(context.Background(), 7); err == nil {
		t.Error("expected wrapped store error")
	}
	if err := svc.RecordImpression(context.Background(), 7); err == nil {
		t.Error("expected wrapped store error")
	}
}

func TestResetDelegatesToStore(t *testing.T) {
	repo := newFakeStatsRepo()
	svc := NewService(repo, NewSampler(1))

	if err := svc.Reset(context.Background(), 42); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if repo.resets[42] != 1 {
		t.Errorf("reset count = %d, want 1", repo.resets[42])
	}
}

//go:build !integration

package memory

import (
	"context"
	"sync"
	"testing"
)

// scenario params
const (
	stressNumItems   = 200
	stressNumWorkers = 16
	stressPerWorker  = 500
)

func TestConcurrentIncrementsLoseNothing(t *testing.T) {
	repo := NewBanditStatsRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < stressNumWorkers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < stressPerWorker; i++ {
				id := uint64((worker*stressPerWorker + i) % stressNumItems)
				if i%5 == 0 {
					if err := repo.IncrConversion(ctx, id); err != nil {
						t.Errorf("IncrConversion: %v", err)
						return
					}
				} else {
					if err := repo.IncrImpression(ctx, id); err != nil {
						t.Errorf("IncrImpression: %v", err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()

	ids := make([]uint64, stressNumItems)
	for i := range ids {
		ids[i] = uint64(i)
	}

	arms, err := repo.GetArms(ctx, ids)
	if err != nil {
		t.Fatalf("GetArms: %v", err)
	}

	var totalImpr, totalConv uint64
	for _, arm := range arms {
		totalImpr += arm.Impressions
		totalConv += arm.Conversions
	}

	// Every write bumps impressions; every fifth write also bumps conversions.
	wantTotal := uint64(stressNumWorkers * stressPerWorker)
	wantConv := uint64(stressNumWorkers * stressPerWorker / 5)

	t.Logf("impressions=%d conversions=%d arms=%d", totalImpr, totalConv, len(arms))
	if totalImpr != wantTotal {
		t.Errorf("total impressions = %d, want %d", totalImpr, wantTotal)
	}
	if totalConv != wantConv {
		t.Errorf("total conversions = %d, want %d", totalConv, wantConv)
	}
}

func TestResetClearsArm(t *testing.T) {
	repo := NewBanditStatsRepository()
	ctx := context.Background()

	if err := repo.IncrImpression(ctx, 9); err != nil {
		t.Fatalf("IncrImpression: %v", err)
	}
	if err := repo.Reset(ctx, 9); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	arms, err := repo.GetArms(ctx, []uint64{9})
	if err != nil {
		t.Fatalf("GetArms: %v", err)
	}
	if _, ok := arms[9]; ok {
		t.Error("arm 9 still present after reset")
	}
}

func TestGetArmsSkipsUnknownItems(t *testing.T) {
	repo := NewBanditStatsRepository()
	ctx := context.Background()

	if err := repo.IncrConversion(ctx, 1); err != nil {
		t.Fatalf("IncrConversion: %v", err)
	}

	arms, err := repo.GetArms(ctx, []uint64{1, 2})
	if err != nil {
		t.Fatalf("GetArms: %v", err)
	}
	if len(arms) != 1 {
		t.Fatalf("got %d arms, want 1", len(arms))
	}
	if arms[1].Impressions != 1 || arms[1].Conversions != 1 {
		t.Errorf("arm 1 = %+v, want impressions=1 conversions=1", arms[1])
	}
}

package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"freshBite/domain"
)

type fakeStatsWriter struct {
	mu          sync.Mutex
	impressions map[uint64]int
	conversions map[uint64]int
	failFirst   int // fail this many calls before succeeding
}

func newFakeStatsWriter() *fakeStatsWriter {
	return &fakeStatsWriter{
		impressions: make(map[uint64]int),
		conversions: make(map[uint64]int),
	}
}

func (f *fakeStatsWriter) RecordImpression(_ context.Context, itemID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("store busy")
	}
	f.impressions[itemID]++
	return nil
}

func (f *fakeStatsWriter) RecordConversion(_ context.Context, itemID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFirst > 0 {
		f.failFirst--
		return errors.New("store busy")
	}
	f.conversions[itemID]++
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.FeedbackEvent
	err    error
}

func (f *fakeEventRepo) SaveEvent(_ context.Context, event domain.FeedbackEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func TestProcessViewBumpsImpressionsOnly(t *testing.T) {
	stats := newFakeStatsWriter()
	r := NewRecorder(stats, nil, 8, 0)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 1, Action: ActionView})
	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 1, Action: ActionView})

	if stats.impressions[1] != 2 {
		t.Errorf("impressions = %d, want 2", stats.impressions[1])
	}
	if stats.conversions[1] != 0 {
		t.Errorf("conversions = %d, want 0", stats.conversions[1])
	}
}

func TestProcessOrderBumpsConversions(t *testing.T) {
	stats := newFakeStatsWriter()
	r := NewRecorder(stats, nil, 8, 0)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 2, Action: ActionOrder})
	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 2, Action: ActionAddToCart})

	if stats.conversions[2] != 2 {
		t.Errorf("conversions = %d, want 2", stats.conversions[2])
	}
}

func TestProcessDismissIsAcceptedButNotCounted(t *testing.T) {
	stats := newFakeStatsWriter()
	events := &fakeEventRepo{}
	r := NewRecorder(stats, events, 8, 0)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 3, Action: ActionDismiss})
	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 3, Action: ActionRemoveFromCart})

	if len(stats.impressions) != 0 || len(stats.conversions) != 0 {
		t.Errorf("negative actions mutated counters: %+v %+v", stats.impressions, stats.conversions)
	}
	if len(events.events) != 2 {
		t.Errorf("logged %d events, want 2", len(events.events))
	}
}

func TestProcessRetriesTransientStoreFailure(t *testing.T) {
	stats := newFakeStatsWriter()
	stats.failFirst = 2
	r := NewRecorder(stats, nil, 8, 3)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 4, Action: ActionView})

	if stats.impressions[4] != 1 {
		t.Errorf("impressions = %d, want 1 after retries", stats.impressions[4])
	}
}

func TestProcessGivesUpAfterMaxRetries(t *testing.T) {
	stats := newFakeStatsWriter()
	stats.failFirst = 100
	events := &fakeEventRepo{}
	r := NewRecorder(stats, events, 8, 1)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 5, Action: ActionView})

	if stats.impressions[5] != 0 {
		t.Errorf("impressions = %d, want 0", stats.impressions[5])
	}
	// a dropped event is not logged either
	if len(events.events) != 0 {
		t.Errorf("logged %d events for a dropped event, want 0", len(events.events))
	}
}

func TestProcessLogsEventAfterApply(t *testing.T) {
	stats := newFakeStatsWriter()
	events := &fakeEventRepo{}
	r := NewRecorder(stats, events, 8, 0)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 6, Action: ActionOrder, SessionID: "s-1"})

	if len(events.events) != 1 || events.events[0].SessionID != "s-1" {
		t.Errorf("event log = %+v, want the processed event", events.events)
	}
}

func TestProcessEventLogFailureIsBestEffort(t *testing.T) {
	stats := newFakeStatsWriter()
	events := &fakeEventRepo{err: errors.New("insert failed")}
	r := NewRecorder(stats, events, 8, 0)

	r.Process(context.Background(), domain.FeedbackEvent{ItemID: 7, Action: ActionView})

	// the counter mutation still landed
	if stats.impressions[7] != 1 {
		t.Errorf("impressions = %d, want 1", stats.impressions[7])
	}
}

func TestRecordRejectsUnknownAction(t *testing.T) {
	r := NewRecorder(newFakeStatsWriter(), nil, 8, 0)

	if err := r.Record(domain.FeedbackEvent{ItemID: 1, Action: "purchase"}); err == nil {
		t.Error("unknown action accepted")
	}
}

func TestRecordDropsWhenQueueFull(t *testing.T) {
	// no worker running: the queue fills and stays full
	r := NewRecorder(newFakeStatsWriter(), nil, 1, 0)

	if err := r.Record(domain.FeedbackEvent{ItemID: 1, Action: ActionView}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	// second enqueue overflows but must not error or block
	if err := r.Record(domain.FeedbackEvent{ItemID: 2, Action: ActionView}); err != nil {
		t.Errorf("overflow Record returned error: %v", err)
	}
}

func TestWorkerDrainsQueueOnClose(t *testing.T) {
	stats := newFakeStatsWriter()
	r := NewRecorder(stats, nil, 32, 0)
	r.Start(context.Background())

	for i := 0; i < 10; i++ {
		if err := r.Record(domain.FeedbackEvent{ItemID: 1, Action: ActionView}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	r.Close()

	if stats.impressions[1] != 10 {
		t.Errorf("impressions = %d, want 10 after drain", stats.impressions[1])
	}
}

func TestValidAction(t *testing.T) {
	for _, a := range []string{ActionView, ActionAddToCart, ActionOrder, ActionRemoveFromCart, ActionDismiss} {
		if !ValidAction(a) {
			t.Errorf("ValidAction(%q) = false", a)
		}
	}
	if ValidAction("click") {
		t.Error(`ValidAction("click") = true`)
	}
}

func TestProcessCancelledContextStopsRetrying(t *testing.T) {
	stats := newFakeStatsWriter()
	stats.failFirst = 100
	r := NewRecorder(stats, nil, 8, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	r.Process(ctx, domain.FeedbackEvent{ItemID: 8, Action: ActionView})
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Process blocked %v on cancelled context", elapsed)
	}
}

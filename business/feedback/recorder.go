package feedback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"freshBite/domain"
	"freshBite/pkg/logger"
)

const (
	ActionView           = "view"
	ActionAddToCart      = "add_to_cart"
	ActionOrder          = "order"
	ActionRemoveFromCart = "remove_from_cart"
	ActionDismiss        = "dismiss"
)

const (
	defaultQueueSize  = 1024
	defaultMaxRetries = 3
	baseBackoff       = 100 * time.Millisecond
)

// StatsWriter is the mutation side of the bandit statistics store.
type StatsWriter interface {
	RecordImpression(ctx context.Context, itemID uint64) error
	RecordConversion(ctx context.Context, itemID uint64) error
}

type EventRepository interface {
	SaveEvent(ctx context.Context, event domain.FeedbackEvent) error
}

// Recorder ingests impression/conversion/dismiss events from the serving
// surface and applies them to the statistics store off the request path:
// events are queued and a worker drains them with backoff retries, so a
// slow or failing store never blocks a response. Counters are monotonic,
// which makes retried and out-of-order deliveries safe.
type Recorder struct {
	stats      StatsWriter
	events     EventRepository // optional raw event log
	queue      chan domain.FeedbackEvent
	maxRetries int

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewRecorder(stats StatsWriter, events EventRepository, queueSize, maxRetries int) *Recorder {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}

	return &Recorder{
		stats:      stats,
		events:     events,
		queue:      make(chan domain.FeedbackEvent, queueSize),
		maxRetries: maxRetries,
	}
}

// Start launches the worker. The context bounds the worker's lifetime.
func (r *Recorder) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.loop(ctx)
}

// Close stops accepting events, drains the queue and waits for the worker.
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
	})
	r.wg.Wait()
}

// Record enqueues one feedback event, fire-and-forget. A full queue drops
// the event (recommendation feedback is best-effort and must never block
// the checkout flow it rides along with); an unknown action is the only
// caller error.
func (r *Recorder) Record(event domain.FeedbackEvent) error {
	if !ValidAction(event.Action) {
		return fmt.Errorf("unknown action: %s", event.Action)
	}

	select {
	case r.queue <- event:
		return nil
	default:
		FeedbackDroppedTotal.Inc()
		logger.Warn("feedback queue full, dropping event",
			"item_id", event.ItemID,
			"action", event.Action,
		)
		return nil
	}
}

func ValidAction(action string) bool {
	switch action {
	case ActionView, ActionAddToCart, ActionOrder, ActionRemoveFromCart, ActionDismiss:
		return true
	}
	return false
}

func (r *Recorder) loop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.queue:
			if !ok {
				return
			}
			r.Process(ctx, event)
		}
	}
}

// Process applies one event: counter mutation with backoff retries, then
// the best-effort raw event log. Exported so tests (and synchronous
// callers) can bypass the queue.
func (r *Recorder) Process(ctx context.Context, event domain.FeedbackEvent) {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			FeedbackRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return
			case <-time.After(baseBackoff << (attempt - 1)):
			}
		}

		err = r.apply(ctx, event)
		if err == nil {
			break
		}
	}
	if err != nil {
		logger.Error("feedback event dropped after retries",
			"item_id", event.ItemID,
			"action", event.Action,
			"error", err,
		)
		FeedbackDroppedTotal.Inc()
		return
	}

	if r.events != nil {
		if err := r.events.SaveEvent(ctx, event); err != nil {
			logger.Warn("failed to persist feedback event", "item_id", event.ItemID, "error", err)
		}
	}

	FeedbackEventsTotal.WithLabelValues(event.Action).Inc()
}

func (r *Recorder) apply(ctx context.Context, event domain.FeedbackEvent) error {
	switch event.Action {
	case ActionView:
		return r.stats.RecordImpression(ctx, event.ItemID)
	case ActionAddToCart, ActionOrder:
		return r.stats.RecordConversion(ctx, event.ItemID)
	case ActionRemoveFromCart, ActionDismiss:
		// accepted but not counted: negative-feedback modeling is not
		// wired yet, and inventing a penalty here would skew the arms
		return nil
	default:
		return fmt.Errorf("unknown action: %s", event.Action)
	}
}

package domain

import "time"

const (
	TimeBucketNight     = "night"
	TimeBucketMorning   = "morning"
	TimeBucketAfternoon = "afternoon"
	TimeBucketEvening   = "evening"
)

// RecommendationContext is the per-request input to the ranking engine.
// It is built once per request and never persisted as-is.
type RecommendationContext struct {
	CustomerID  uint      `json:"customer_id"` // 0 = anonymous
	SessionID   string    `json:"session_id"`
	Timestamp   time.Time `json:"timestamp"`
	TimeBucket  string    `json:"time_bucket"`
	DayOfWeek   int       `json:"dow"` // 0=Sunday
	IsWeekend   bool      `json:"is_weekend"`
	CartItemIDs []uint64  `json:"cart_item_ids,omitempty"`
	DeviceType  string    `json:"device_type,omitempty"`
}

func NewRecommendationContext(customerID uint, sessionID string, now time.Time, cartItemIDs []uint64, deviceType string) RecommendationContext {
	dow := int(now.Weekday())
	return RecommendationContext{
		CustomerID:  customerID,
		SessionID:   sessionID,
		Timestamp:   now,
		TimeBucket:  ComputeTimeBucket(now),
		DayOfWeek:   dow,
		IsWeekend:   dow == 0 || dow == 6,
		CartItemIDs: cartItemIDs,
		DeviceType:  deviceType,
	}
}

func (c RecommendationContext) IsAnonymous() bool {
	return c.CustomerID == 0
}

func ComputeTimeBucket(t time.Time) string {
	h := t.Hour()
	switch {
	case h < 6:
		return TimeBucketNight
	case h < 12:
		return TimeBucketMorning
	case h < 18:
		return TimeBucketAfternoon
	default:
		return TimeBucketEvening
	}
}

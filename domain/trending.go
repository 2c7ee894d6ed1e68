package domain

const (
	MomentumRising  = "rising"
	MomentumStable  = "stable"
	MomentumFalling = "falling"
)

// TrendingItem is a short-lived snapshot derived from raw order history.
// It is cached with a bounded TTL and never persisted as system-of-record.
type TrendingItem struct {
	ItemID        uint64  `json:"item_id"`
	Velocity      float64 `json:"velocity"`     // net order-rate change per hour
	Acceleration  float64 `json:"acceleration"` // rate of velocity change per hour
	Score         float64 `json:"score"`        // normalized, in [0,1]
	Momentum      string  `json:"momentum"`     // rising / stable / falling
	CurrentCount  int64   `json:"current_count"`
	PreviousCount int64   `json:"previous_count"`
	PercentChange float64 `json:"percent_change"`
	Rank          int     `json:"rank"`
}

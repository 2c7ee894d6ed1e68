package domain

import "gorm.io/datatypes"

// SignalBreakdown carries each scorer's contribution so a ranked result
// can be explained and debugged.
type SignalBreakdown struct {
	Bandit        float64 `json:"bandit"`
	Trending      float64 `json:"trending"`
	Affinity      float64 `json:"affinity"`
	Collaborative float64 `json:"collaborative"`
}

type RankedRecommendation struct {
	ItemID      uint64            `json:"item_id"`
	Score       float64           `json:"score"`
	Rank        int               `json:"rank"`
	Exploration bool              `json:"exploration,omitempty"` // promoted via cold-start slot
	Signals     SignalBreakdown   `json:"signals"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

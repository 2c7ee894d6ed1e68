package domain

import "time"

// RecoWeights is the per-vertical blend configuration row. Exact numbers
// are a tunable business decision; code only enforces that they sum to 1.
type RecoWeights struct {
	Vertical       string    `json:"vertical" gorm:"column:vertical;primaryKey"`
	WBandit        float64   `json:"w_bandit" gorm:"column:w_bandit"`
	WTrending      float64   `json:"w_trending" gorm:"column:w_trending"`
	WAffinity      float64   `json:"w_affinity" gorm:"column:w_affinity"`
	WCollaborative float64   `json:"w_collaborative" gorm:"column:w_collaborative"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RecoWeights) TableName() string {
	return "reco_weights"
}

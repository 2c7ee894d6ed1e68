package domain

import (
	"time"

	"gorm.io/datatypes"
)

// BanditArm holds the raw counters behind one item's Beta posterior.
// Arms are created lazily with zero counters, which corresponds to the
// uniform Beta(1,1) prior.
type BanditArm struct {
	ItemID      uint64    `json:"item_id"`
	Impressions uint64    `json:"impressions"`
	Conversions uint64    `json:"conversions"`
	LastUpdated time.Time `json:"last_updated"`
}

// Alpha is the Beta shape parameter for successes: conversions + 1.
// Always >= 1 (Laplace prior).
func (a BanditArm) Alpha() float64 {
	return float64(a.Conversions) + 1
}

// Beta is the Beta shape parameter for failures: (impressions - conversions) + 1.
// Always >= 1; out-of-order counter delivery is guarded against going negative.
func (a BanditArm) Beta() float64 {
	if a.Conversions >= a.Impressions {
		return 1
	}
	return float64(a.Impressions-a.Conversions) + 1
}

type FeedbackEvent struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	CustomerID uint              `gorm:"column:customer_id" json:"customer_id"`
	SessionID  string            `gorm:"column:session_id" json:"session_id"`
	ItemID     uint64            `gorm:"column:item_id;not null" json:"item_id"`
	Action     string            `gorm:"column:action;not null" json:"action"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	Context    datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
}

func (FeedbackEvent) TableName() string {
	return "feedback_events"
}

package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CREATE TABLE public.menu_items (
//     id                BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
//     name              TEXT,
//     category          TEXT,
//     price             NUMERIC,
//     rating            NUMERIC,
//     rating_count      INTEGER,
//     tags              JSONB,
//     prep_time_minutes INTEGER,
//     popularity        BIGINT DEFAULT 0,
//     is_available      BOOLEAN DEFAULT TRUE,
//     metadata          JSONB,
//     created_at        TIMESTAMPTZ DEFAULT NOW()
// );

type CandidateItem struct {
	ID              uint64                      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string                      `gorm:"column:name;type:text" json:"name"`
	Category        string                      `gorm:"column:category;type:text" json:"category"`
	Price           float64                     `gorm:"column:price;type:numeric" json:"price"`
	Rating          float64                     `gorm:"column:rating;type:numeric" json:"rating"`
	RatingCount     int                         `gorm:"column:rating_count;default:0" json:"rating_count"`
	Tags            datatypes.JSONSlice[string] `gorm:"column:tags" json:"tags"`
	PrepTimeMinutes int                         `gorm:"column:prep_time_minutes;default:0" json:"prep_time_minutes"`
	Popularity      uint64                      `gorm:"column:popularity;default:0" json:"popularity"`
	IsAvailable     bool                        `gorm:"column:is_available;default:true" json:"is_available"`

	// Opaque provider/chef display info, carried through to the response
	// but never used for scoring.
	Metadata datatypes.JSONMap `gorm:"column:metadata;type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (CandidateItem) TableName() string {
	return "menu_items"
}

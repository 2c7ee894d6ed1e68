package domain

import "time"

// Order is one order line. The engine only reads this table (aggregated
// counts, baskets, per-customer history); writes belong to the checkout
// flow, which is a separate system.
type Order struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	CustomerID uint      `gorm:"column:customer_id;not null" json:"customer_id"`
	ItemID     uint64    `gorm:"column:item_id;not null" json:"item_id"`
	Quantity   int       `gorm:"column:quantity;not null" json:"quantity"`
	PriceEach  float64   `gorm:"column:price_each;type:numeric" json:"price_each"`
	Subtotal   float64   `gorm:"column:subtotal;type:numeric" json:"subtotal"`
	Status     string    `gorm:"column:status" json:"status"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Order) TableName() string {
	return "orders"
}

package model

import "time"

// PriceHistory records a price point for a product.
// Rows are immutable; the current price is the row with the latest EffectiveFrom.
type PriceHistory struct {
	ID            uint      `gorm:"primaryKey"`
	ProductID     uint      `gorm:"not null;index:idx_price_history_product_effective,priority:1"`
	PriceCents    int64     `gorm:"not null"`
	EffectiveFrom time.Time `gorm:"not null;index:idx_price_history_product_effective,priority:2"`
	CreatedAt     time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName keeps the ledger table singular.
func (PriceHistory) TableName() string { return "price_history" }

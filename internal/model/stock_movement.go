package model

import "time"

// StockMovement is a signed stock delta for a product.
// Positive = stock in, negative = stock out. Current stock is the sum.
type StockMovement struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;index"`
	Quantity  int    `gorm:"not null"`
	Reason    string `gorm:"not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

package model

import "time"

// Product is a catalogue entry. Price and stock are not stored here: they are
// derived from PriceHistory and StockMovement.
type Product struct {
	ID         uint    `gorm:"primaryKey"`
	Name       string  `gorm:"index;not null"`
	Brand      *string `gorm:"index"`
	Barcode    *string `gorm:"uniqueIndex"`
	SupplierID *uint   `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

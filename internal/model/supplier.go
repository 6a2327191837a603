package model

import "time"

// Supplier is a vendor that products are bought from and invoices come from.
type Supplier struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Products []Product `gorm:"foreignKey:SupplierID"`
}

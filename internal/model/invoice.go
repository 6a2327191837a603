package model

import "time"

// InvoiceStatus moves strictly forward: UPLOADED -> PARSED -> APPLIED.
type InvoiceStatus string

const (
	InvoiceUploaded InvoiceStatus = "UPLOADED"
	InvoiceParsed   InvoiceStatus = "PARSED"
	InvoiceApplied  InvoiceStatus = "APPLIED"
)

// Invoice is one uploaded supplier document. Parsed lines are never stored.
type Invoice struct {
	ID            uint          `gorm:"primaryKey"`
	SupplierID    uint          `gorm:"not null;index"`
	OriginalName  string        `gorm:"not null"`
	StoredPath    string        `gorm:"not null"` // relative, e.g. uploads/invoices/<uuid>.jpg
	MimeType      string        `gorm:"not null"`
	Status        InvoiceStatus `gorm:"type:varchar(16);not null;default:'UPLOADED';index"`
	ThumbnailPath *string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Supplier *Supplier `gorm:"foreignKey:SupplierID"`
}

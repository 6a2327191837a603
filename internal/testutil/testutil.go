// Package testutil provides an in-memory database and seed helpers for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kerem-gursoy/uup/internal/model"
)

// NewDB opens a private in-memory SQLite database with every model migrated.
// A single connection keeps the database alive and serializes transactions.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.All()...))
	return db
}

func SeedSupplier(t *testing.T, db *gorm.DB, name string) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: name}
	require.NoError(t, db.Create(s).Error)
	return s
}

func SeedProduct(t *testing.T, db *gorm.DB, name string, barcode *string, supplierID *uint) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Barcode: barcode, SupplierID: supplierID}
	require.NoError(t, db.Create(p).Error)
	return p
}

func SeedInvoice(t *testing.T, db *gorm.DB, supplierID uint, storedPath, mimeType string) *model.Invoice {
	t.Helper()
	inv := &model.Invoice{
		SupplierID:   supplierID,
		OriginalName: "invoice.jpg",
		StoredPath:   storedPath,
		MimeType:     mimeType,
		Status:       model.InvoiceUploaded,
	}
	require.NoError(t, db.Create(inv).Error)
	return inv
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

package repository

import (
	"context"

	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/model"

	"gorm.io/gorm"
)

// InvoiceRepository defines the data access contract for uploaded invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *model.Invoice) error
	// FindByID preloads the supplier.
	FindByID(ctx context.Context, id uint) (*model.Invoice, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, error)
	// MarkParsed moves the invoice to PARSED unless it is already APPLIED.
	MarkParsed(ctx context.Context, id uint) error
	SetThumbnail(ctx context.Context, id uint, path string) error

	// Used inside transactions; callers pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uint) (*model.Invoice, error)
	// MarkAppliedTx performs the guarded transition to APPLIED and returns the
	// number of rows it changed: 0 means another caller applied it first.
	MarkAppliedTx(tx *gorm.DB, id uint) (int64, error)

	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) Create(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uint) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Supplier").First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) List(ctx context.Context, filter dto.InvoiceFilter) ([]model.Invoice, error) {
	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Preload("Supplier")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != 0 {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	var invoices []model.Invoice
	err := q.Order("created_at DESC, id DESC").Find(&invoices).Error
	return invoices, err
}

func (r *invoiceRepo) MarkParsed(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status <> ?", id, model.InvoiceApplied).
		Update("status", model.InvoiceParsed).Error
}

func (r *invoiceRepo) SetThumbnail(ctx context.Context, id uint, path string) error {
	return r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ?", id).
		Update("thumbnail_path", path).Error
}

func (r *invoiceRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) MarkAppliedTx(tx *gorm.DB, id uint) (int64, error) {
	res := tx.Model(&model.Invoice{}).
		Where("id = ? AND status <> ?", id, model.InvoiceApplied).
		Update("status", model.InvoiceApplied)
	return res.RowsAffected, res.Error
}

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

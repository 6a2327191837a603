package repository

import (
	"context"

	"github.com/kerem-gursoy/uup/internal/model"

	"gorm.io/gorm"
)

// StockMovementRepository is the append-only stock ledger.
type StockMovementRepository interface {
	Create(ctx context.Context, m *model.StockMovement) error
	CreateTx(tx *gorm.DB, m *model.StockMovement) error
	// Recent returns up to limit movements newest first.
	Recent(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error)
	// CurrentStock is the sum of all movements for the product.
	CurrentStock(ctx context.Context, productID uint) (int64, error)
	CurrentStockTx(tx *gorm.DB, productID uint) (int64, error)
	// Levels maps product id to current stock. Products without movements are absent.
	Levels(ctx context.Context) (map[uint]int64, error)
}

type stockMovementRepo struct{ db *gorm.DB }

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &stockMovementRepo{db: db}
}

func (r *stockMovementRepo) Create(ctx context.Context, m *model.StockMovement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *stockMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	return tx.Create(m).Error
}

func (r *stockMovementRepo) Recent(ctx context.Context, productID uint, limit int) ([]model.StockMovement, error) {
	var rows []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *stockMovementRepo) CurrentStock(ctx context.Context, productID uint) (int64, error) {
	return r.CurrentStockTx(r.db.WithContext(ctx), productID)
}

func (r *stockMovementRepo) CurrentStockTx(tx *gorm.DB, productID uint) (int64, error) {
	var total int64
	err := tx.Model(&model.StockMovement{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&total).Error
	return total, err
}

func (r *stockMovementRepo) Levels(ctx context.Context) (map[uint]int64, error) {
	var rows []struct {
		ProductID uint
		Total     int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.StockMovement{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	levels := make(map[uint]int64, len(rows))
	for _, row := range rows {
		levels[row.ProductID] = row.Total
	}
	return levels, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/kerem-gursoy/uup/internal/model"

	"gorm.io/gorm"
)

// PriceHistoryRepository is the append-only price ledger.
type PriceHistoryRepository interface {
	Create(ctx context.Context, h *model.PriceHistory) error
	CreateTx(tx *gorm.DB, h *model.PriceHistory) error
	// ListByProduct returns every entry oldest first.
	ListByProduct(ctx context.Context, productID uint) ([]model.PriceHistory, error)
	// Recent returns up to limit entries newest first.
	Recent(ctx context.Context, productID uint, limit int) ([]model.PriceHistory, error)
	// Latest returns the current price entry, or nil when the product has none.
	Latest(ctx context.Context, productID uint) (*model.PriceHistory, error)
	// LatestAll maps product id to its current price entry.
	LatestAll(ctx context.Context) (map[uint]model.PriceHistory, error)
}

type priceHistoryRepo struct{ db *gorm.DB }

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &priceHistoryRepo{db: db}
}

func (r *priceHistoryRepo) Create(ctx context.Context, h *model.PriceHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *priceHistoryRepo) CreateTx(tx *gorm.DB, h *model.PriceHistory) error {
	return tx.Create(h).Error
}

func (r *priceHistoryRepo) ListByProduct(ctx context.Context, productID uint) ([]model.PriceHistory, error) {
	var rows []model.PriceHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("effective_from ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *priceHistoryRepo) Recent(ctx context.Context, productID uint, limit int) ([]model.PriceHistory, error) {
	var rows []model.PriceHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("effective_from DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *priceHistoryRepo) Latest(ctx context.Context, productID uint) (*model.PriceHistory, error) {
	var h model.PriceHistory
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("effective_from DESC, id DESC").
		First(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *priceHistoryRepo) LatestAll(ctx context.Context) (map[uint]model.PriceHistory, error) {
	var rows []model.PriceHistory
	if err := r.db.WithContext(ctx).
		Order("product_id ASC, effective_from DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	latest := make(map[uint]model.PriceHistory)
	for _, h := range rows {
		if _, seen := latest[h.ProductID]; !seen {
			latest[h.ProductID] = h
		}
	}
	return latest, nil
}

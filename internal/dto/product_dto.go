package dto

import (
	"time"

	"github.com/kerem-gursoy/uup/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductRequest serves both create and update; update replaces every field.
type ProductRequest struct {
	Name       string  `json:"name"       validate:"required,notblank,max=200"`
	Brand      *string `json:"brand"      validate:"omitempty,max=120"`
	Barcode    *string `json:"barcode"    validate:"omitempty,max=64"`
	SupplierID *uint   `json:"supplierId" validate:"omitempty,gt=0"`
}

// SetPriceRequest uses a float so that 19.5 is rejected as "not an integer"
// instead of failing JSON binding.
type SetPriceRequest struct {
	PriceCents *float64 `json:"priceCents"`
}

type AdjustStockRequest struct {
	Quantity *float64 `json:"quantity"`
	Reason   string   `json:"reason"   validate:"max=500"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductFilter struct {
	Search     string `form:"search"`
	Brand      string `form:"brand"`
	SupplierID uint   `form:"supplierId"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID         uint             `json:"id"`
	Name       string           `json:"name"`
	Brand      *string          `json:"brand"`
	Barcode    *string          `json:"barcode"`
	SupplierID *uint            `json:"supplierId"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Supplier   *SupplierSummary `json:"supplier,omitempty"`
}

// ProductDetailResponse adds the most recent ledger rows.
type ProductDetailResponse struct {
	ProductResponse
	PriceHistory   []PriceHistoryResponse  `json:"priceHistory"`
	StockMovements []StockMovementResponse `json:"stockMovements"`
}

type PriceHistoryResponse struct {
	ID            uint      `json:"id"`
	ProductID     uint      `json:"productId"`
	PriceCents    int64     `json:"priceCents"`
	EffectiveFrom time.Time `json:"effectiveFrom"`
}

type StockMovementResponse struct {
	ID        uint      `json:"id"`
	ProductID uint      `json:"productId"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

type AdjustStockResponse struct {
	Movement     StockMovementResponse `json:"movement"`
	CurrentStock int64                 `json:"currentStock"`
}

type ProductSummaryResponse struct {
	Product      ProductResponse       `json:"product"`
	LatestPrice  *PriceHistoryResponse `json:"latestPrice"`
	CurrentStock int64                 `json:"currentStock"`
}

// StockLevelResponse is one row of the low-stock report.
type StockLevelResponse struct {
	ProductResponse
	CurrentStock int64 `json:"currentStock"`
}

func NewProductResponse(p *model.Product) ProductResponse {
	resp := ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Brand:      p.Brand,
		Barcode:    p.Barcode,
		SupplierID: p.SupplierID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Supplier != nil {
		resp.Supplier = &SupplierSummary{ID: p.Supplier.ID, Name: p.Supplier.Name}
	}
	return resp
}

func NewPriceHistoryResponse(h *model.PriceHistory) PriceHistoryResponse {
	return PriceHistoryResponse{
		ID:            h.ID,
		ProductID:     h.ProductID,
		PriceCents:    h.PriceCents,
		EffectiveFrom: h.EffectiveFrom,
	}
}

func NewStockMovementResponse(m *model.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}

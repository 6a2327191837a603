package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// DefaultLowStockThreshold is used when the report is requested without one.
const DefaultLowStockThreshold = 5

// maxExactInteger is the largest integer a float64 holds without rounding.
const maxExactInteger = 1 << 53

// InventoryService owns the append-only price and stock ledgers.
type InventoryService interface {
	SetPrice(ctx context.Context, productID uint, req dto.SetPriceRequest) (*dto.PriceHistoryResponse, error)
	PriceHistory(ctx context.Context, productID uint) ([]dto.PriceHistoryResponse, error)
	AdjustStock(ctx context.Context, productID uint, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error)
	Summary(ctx context.Context, productID uint) (*dto.ProductSummaryResponse, error)
	LowStock(ctx context.Context, threshold int64) ([]dto.StockLevelResponse, error)
	// ExportStock writes an .xlsx workbook with one row per product.
	ExportStock(ctx context.Context, w io.Writer) error
}

type inventoryService struct {
	products repository.ProductRepository
	prices   repository.PriceHistoryRepository
	stock    repository.StockMovementRepository
	cache    SummaryCache
	now      func() time.Time
}

func NewInventoryService(
	products repository.ProductRepository,
	prices repository.PriceHistoryRepository,
	stock repository.StockMovementRepository,
	cache SummaryCache,
) InventoryService {
	return &inventoryService{products: products, prices: prices, stock: stock, cache: cache, now: time.Now}
}

// wholeNumber reports whether v is a finite integer small enough to be exact.
func wholeNumber(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || math.Abs(v) > maxExactInteger {
		return 0, false
	}
	return int64(v), true
}

// priceToCents converts a unit price to integer cents, rounding half away from zero.
func priceToCents(price float64) int64 {
	return decimal.NewFromFloat(price).Shift(2).Round(0).IntPart()
}

func (s *inventoryService) SetPrice(ctx context.Context, productID uint, req dto.SetPriceRequest) (*dto.PriceHistoryResponse, error) {
	if req.PriceCents == nil {
		return nil, apierror.Validation("priceCents must be a positive integer (in cents)")
	}
	cents, ok := wholeNumber(*req.PriceCents)
	if !ok || cents <= 0 {
		return nil, apierror.Validation("priceCents must be a positive integer (in cents)")
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}

	entry := &model.PriceHistory{ProductID: productID, PriceCents: cents, EffectiveFrom: s.now()}
	if err := s.prices.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, productID)
	resp := dto.NewPriceHistoryResponse(entry)
	return &resp, nil
}

func (s *inventoryService) PriceHistory(ctx context.Context, productID uint) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	rows, err := s.prices.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PriceHistoryResponse, len(rows))
	for i := range rows {
		resp[i] = dto.NewPriceHistoryResponse(&rows[i])
	}
	return resp, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, productID uint, req dto.AdjustStockRequest) (*dto.AdjustStockResponse, error) {
	if req.Quantity == nil {
		return nil, apierror.Validation("quantity must be a non-zero integer")
	}
	qty, ok := wholeNumber(*req.Quantity)
	if !ok || qty == 0 || qty > math.MaxInt32 || qty < math.MinInt32 {
		return nil, apierror.Validation("quantity must be a non-zero integer")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, apierror.Validation("reason is required")
	}

	var (
		movement model.StockMovement
		current  int64
	)
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		if _, err := s.products.FindByIDTx(tx, productID); err != nil {
			return notFound(err, "product")
		}
		movement = model.StockMovement{ProductID: productID, Quantity: int(qty), Reason: reason}
		if err := s.stock.CreateTx(tx, &movement); err != nil {
			return err
		}
		var err error
		current, err = s.stock.CurrentStockTx(tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, productID)

	return &dto.AdjustStockResponse{
		Movement:     dto.NewStockMovementResponse(&movement),
		CurrentStock: current,
	}, nil
}

func (s *inventoryService) Summary(ctx context.Context, productID uint) (*dto.ProductSummaryResponse, error) {
	var cached dto.ProductSummaryResponse
	if s.cache.get(ctx, productID, &cached) {
		return &cached, nil
	}

	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	latest, err := s.prices.Latest(ctx, productID)
	if err != nil {
		return nil, err
	}
	current, err := s.stock.CurrentStock(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductSummaryResponse{
		Product:      dto.NewProductResponse(p),
		CurrentStock: current,
	}
	if latest != nil {
		lp := dto.NewPriceHistoryResponse(latest)
		resp.LatestPrice = &lp
	}
	s.cache.set(ctx, productID, resp)
	return resp, nil
}

func (s *inventoryService) LowStock(ctx context.Context, threshold int64) ([]dto.StockLevelResponse, error) {
	products, err := s.products.List(ctx, dto.ProductFilter{})
	if err != nil {
		return nil, err
	}
	levels, err := s.stock.Levels(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.StockLevelResponse, 0)
	for i := range products {
		current := levels[products[i].ID]
		if current <= threshold {
			resp = append(resp, dto.StockLevelResponse{
				ProductResponse: dto.NewProductResponse(&products[i]),
				CurrentStock:    current,
			})
		}
	}
	sort.SliceStable(resp, func(i, j int) bool { return resp[i].CurrentStock < resp[j].CurrentStock })
	return resp, nil
}

var exportHeader = []string{"ID", "Name", "Brand", "Barcode", "Supplier", "Latest price", "Current stock"}

func (s *inventoryService) ExportStock(ctx context.Context, w io.Writer) error {
	products, err := s.products.List(ctx, dto.ProductFilter{})
	if err != nil {
		return err
	}
	levels, err := s.stock.Levels(ctx)
	if err != nil {
		return err
	}
	prices, err := s.prices.LatestAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Stock"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for col, title := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return err
		}
	}

	for i, p := range products {
		row := i + 2
		values := []any{p.ID, p.Name, deref(p.Brand), deref(p.Barcode), "", "", levels[p.ID]}
		if p.Supplier != nil {
			values[4] = p.Supplier.Name
		}
		if h, ok := prices[p.ID]; ok {
			values[5] = decimal.New(h.PriceCents, -2).InexactFloat64()
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("export row %d: %w", row, err)
			}
		}
	}

	return f.Write(w)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"

	"gorm.io/gorm"
)

// recentLedgerRows is how many price and stock rows the product detail embeds.
const recentLedgerRows = 10

// ProductService defines the business logic contract for the product catalogue.
type ProductService interface {
	Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error)
	Get(ctx context.Context, id uint) (*dto.ProductDetailResponse, error)
	GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	Update(ctx context.Context, id uint, req dto.ProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uint) error
}

type productService struct {
	repo      repository.ProductRepository
	suppliers repository.SupplierRepository
	prices    repository.PriceHistoryRepository
	stock     repository.StockMovementRepository
	cache     SummaryCache
}

func NewProductService(
	repo repository.ProductRepository,
	suppliers repository.SupplierRepository,
	prices repository.PriceHistoryRepository,
	stock repository.StockMovementRepository,
	cache SummaryCache,
) ProductService {
	return &productService{repo: repo, suppliers: suppliers, prices: prices, stock: stock, cache: cache}
}

func (s *productService) Create(ctx context.Context, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{}
	if err := s.assign(ctx, p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.reload(ctx, p.ID)
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = dto.NewProductResponse(&products[i])
	}
	return resp, nil
}

func (s *productService) Get(ctx context.Context, id uint) (*dto.ProductDetailResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	prices, err := s.prices.Recent(ctx, id, recentLedgerRows)
	if err != nil {
		return nil, err
	}
	movements, err := s.stock.Recent(ctx, id, recentLedgerRows)
	if err != nil {
		return nil, err
	}

	resp := &dto.ProductDetailResponse{
		ProductResponse: dto.NewProductResponse(p),
		PriceHistory:    make([]dto.PriceHistoryResponse, len(prices)),
		StockMovements:  make([]dto.StockMovementResponse, len(movements)),
	}
	for i := range prices {
		resp.PriceHistory[i] = dto.NewPriceHistoryResponse(&prices[i])
	}
	for i := range movements {
		resp.StockMovements[i] = dto.NewStockMovementResponse(&movements[i])
	}
	return resp, nil
}

func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, apierror.Validation("barcode is required")
	}
	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, notFound(err, "product")
	}
	resp := dto.NewProductResponse(p)
	return &resp, nil
}

func (s *productService) Update(ctx context.Context, id uint, req dto.ProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if err := s.assign(ctx, p, req); err != nil {
		return nil, err
	}
	p.Supplier = nil
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx, id)
	return s.reload(ctx, id)
}

func (s *productService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "product")
	}
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apierror.Conflict("product has price or stock history and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(ctx, id)
	return nil
}

// assign copies req onto p after checking the supplier reference and barcode
// uniqueness.
func (s *productService) assign(ctx context.Context, p *model.Product, req dto.ProductRequest) error {
	barcode := trimToNil(req.Barcode)
	if barcode != nil {
		existing, err := s.repo.FindByBarcode(ctx, *barcode)
		switch {
		case err == nil && existing.ID != p.ID:
			return apierror.Conflict("barcode %s is already used by product %d", *barcode, existing.ID)
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
	}
	if req.SupplierID != nil {
		if _, err := s.suppliers.FindByID(ctx, *req.SupplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.Validation("supplier %d does not exist", *req.SupplierID)
			}
			return err
		}
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Brand = trimToNil(req.Brand)
	p.Barcode = barcode
	p.SupplierID = req.SupplierID
	return nil
}

func (s *productService) reload(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	resp := dto.NewProductResponse(p)
	return &resp, nil
}

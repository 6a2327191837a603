package service

import (
	"context"
	"strings"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"
)

// SupplierService defines the business logic contract for suppliers.
type SupplierService interface {
	Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	List(ctx context.Context) ([]dto.SupplierResponse, error)
	// Get includes the supplier's products.
	Get(ctx context.Context, id uint) (*dto.SupplierResponse, error)
	Update(ctx context.Context, id uint, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Delete(ctx context.Context, id uint) error
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func (s *supplierService) Create(ctx context.Context, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup := &model.Supplier{Name: strings.TrimSpace(req.Name)}
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, err
	}
	resp := dto.NewSupplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) List(ctx context.Context) ([]dto.SupplierResponse, error) {
	suppliers, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SupplierResponse, len(suppliers))
	for i := range suppliers {
		resp[i] = dto.NewSupplierResponse(&suppliers[i])
	}
	return resp, nil
}

func (s *supplierService) Get(ctx context.Context, id uint) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindWithProducts(ctx, id)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	if sup.Products == nil {
		sup.Products = []model.Product{}
	}
	resp := dto.NewSupplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) Update(ctx context.Context, id uint, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	sup.Name = strings.TrimSpace(req.Name)
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	resp := dto.NewSupplierResponse(sup)
	return &resp, nil
}

func (s *supplierService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFound(err, "supplier")
	}
	inUse, err := s.repo.InUse(ctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return apierror.Conflict("supplier is referenced by products or invoices")
	}
	return s.repo.Delete(ctx, id)
}

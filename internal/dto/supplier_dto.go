package dto

import (
	"time"

	"github.com/kerem-gursoy/uup/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SupplierRequest struct {
	Name string `json:"name" validate:"required,notblank,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplierResponse struct {
	ID        uint              `json:"id"`
	Name      string            `json:"name"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Products  []ProductResponse `json:"products,omitempty"`
}

// SupplierSummary is the compact form embedded in invoice responses.
type SupplierSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func NewSupplierResponse(s *model.Supplier) SupplierResponse {
	resp := SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if s.Products != nil {
		resp.Products = make([]ProductResponse, len(s.Products))
		for i := range s.Products {
			resp.Products[i] = NewProductResponse(&s.Products[i])
		}
	}
	return resp
}

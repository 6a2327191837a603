package dto

import (
	"time"

	"github.com/kerem-gursoy/uup/internal/model"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ApplyInvoiceLine is one operator decision from the review screen.
type ApplyInvoiceLine struct {
	LineIndex    *int     `json:"lineIndex"`
	ParsedLineNo *float64 `json:"parsedLineNo"`
	Apply        bool     `json:"apply"`
	ProductID    *uint    `json:"productId"`
	Quantity     *float64 `json:"quantity"`
	UnitPrice    *float64 `json:"unitPrice"`
	ApplyStock   bool     `json:"applyStock"`
	ApplyPrice   bool     `json:"applyPrice"`
}

type ApplyInvoiceRequest struct {
	Lines []ApplyInvoiceLine `json:"lines"`
}

type InvoiceFilter struct {
	Status     string `form:"status" validate:"omitempty,oneof=UPLOADED PARSED APPLIED"`
	SupplierID uint   `form:"supplierId"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceFileResponse struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	StoredPath   string `json:"storedPath"`
}

type UploadInvoiceResponse struct {
	InvoiceID uint                `json:"invoiceId"`
	Supplier  SupplierSummary     `json:"supplier"`
	File      InvoiceFileResponse `json:"file"`
	Status    model.InvoiceStatus `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
}

type InvoiceResponse struct {
	ID           uint                `json:"id"`
	SupplierID   uint                `json:"supplierId"`
	OriginalName string              `json:"originalName"`
	StoredPath   string              `json:"storedPath"`
	MimeType     string              `json:"mimeType"`
	Status       model.InvoiceStatus `json:"status"`
	HasThumbnail bool                `json:"hasThumbnail"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	Supplier     *SupplierSummary    `json:"supplier,omitempty"`
}

// ParsedInvoiceLine is a normalized extracted line. It is never persisted.
type ParsedInvoiceLine struct {
	LineNo             *float64 `json:"lineNo"`
	Code               *string  `json:"code"`
	Description        string   `json:"description"`
	Barcode            *string  `json:"barcode"`
	Quantity           *float64 `json:"quantity"`
	Unit               *string  `json:"unit"`
	UnitPrice          *float64 `json:"unitPrice"`
	TotalPrice         *float64 `json:"totalPrice"`
	MatchedProductID   *uint    `json:"matchedProductId"`
	MatchedProductName *string  `json:"matchedProductName"`
	MatchedBrand       *string  `json:"matchedBrand"`
	MatchScore         float64  `json:"matchScore"`
}

type ParsedInvoiceResponse struct {
	InvoiceID            uint                `json:"invoiceId"`
	SupplierID           uint                `json:"supplierId"`
	SupplierName         string              `json:"supplierName"`
	SupplierFromDocument *string             `json:"supplierFromDocument"`
	IssueDate            *string             `json:"issueDate"`
	Currency             *string             `json:"currency"`
	Lines                []ParsedInvoiceLine `json:"lines"`
}

type ApplyInvoiceResponse struct {
	InvoiceID    uint `json:"invoiceId"`
	AppliedLines int  `json:"appliedLines"`
	SkippedLines int  `json:"skippedLines"`
}

func NewInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:           inv.ID,
		SupplierID:   inv.SupplierID,
		OriginalName: inv.OriginalName,
		StoredPath:   inv.StoredPath,
		MimeType:     inv.MimeType,
		Status:       inv.Status,
		HasThumbnail: inv.ThumbnailPath != nil,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
	if inv.Supplier != nil {
		resp.Supplier = &SupplierSummary{ID: inv.Supplier.ID, Name: inv.Supplier.Name}
	}
	return resp
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/extraction"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/metrics"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// UploadedFile is a document received from a client.
type UploadedFile struct {
	OriginalName string
	MimeType     string
	Content      io.Reader
}

// StoredFile locates a document on disk for streaming back to a client.
type StoredFile struct {
	Path     string
	Name     string
	MimeType string
}

// ThumbnailQueue schedules thumbnail rendering for an uploaded invoice.
type ThumbnailQueue interface {
	EnqueueThumbnail(ctx context.Context, invoiceID uint) error
}

// InvoiceService runs the invoice pipeline: upload, parse, apply.
type InvoiceService interface {
	Upload(ctx context.Context, supplierID uint, file *UploadedFile) (*dto.UploadInvoiceResponse, error)
	List(ctx context.Context, filter dto.InvoiceFilter) ([]dto.InvoiceResponse, error)
	Get(ctx context.Context, id uint) (*dto.InvoiceResponse, error)
	File(ctx context.Context, id uint) (*StoredFile, error)
	Thumbnail(ctx context.Context, id uint) (*StoredFile, error)
	Parse(ctx context.Context, id uint) (*dto.ParsedInvoiceResponse, error)
	Apply(ctx context.Context, id uint, req dto.ApplyInvoiceRequest) (*dto.ApplyInvoiceResponse, error)
}

// InvoiceDeps groups the collaborators of the invoice service.
type InvoiceDeps struct {
	Invoices     repository.InvoiceRepository
	Suppliers    repository.SupplierRepository
	Products     repository.ProductRepository
	Prices       repository.PriceHistoryRepository
	Stock        repository.StockMovementRepository
	Files        *infra.FileStore
	Extractor    extraction.Extractor
	Matcher      ProductMatcher
	Locker       *infra.Locker
	Thumbnails   ThumbnailQueue // optional
	Cache        SummaryCache
	ApplyLockTTL time.Duration
}

type invoiceService struct {
	InvoiceDeps
	now func() time.Time
}

func NewInvoiceService(deps InvoiceDeps) InvoiceService {
	if deps.Matcher == nil {
		deps.Matcher = NoMatch{}
	}
	if deps.ApplyLockTTL <= 0 {
		deps.ApplyLockTTL = 30 * time.Second
	}
	return &invoiceService{InvoiceDeps: deps, now: time.Now}
}

// ── Upload ────────────────────────────────────────────────────────────────────

func (s *invoiceService) Upload(ctx context.Context, supplierID uint, file *UploadedFile) (*dto.UploadInvoiceResponse, error) {
	supplier, err := s.Suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	if file == nil || file.Content == nil {
		return nil, apierror.Validation("no file uploaded (field 'file' is required)")
	}

	stored, err := s.Files.SaveInvoice(file.OriginalName, file.Content)
	if err != nil {
		return nil, fmt.Errorf("store invoice file: %w", err)
	}

	inv := &model.Invoice{
		SupplierID:   supplier.ID,
		OriginalName: file.OriginalName,
		StoredPath:   stored,
		MimeType:     file.MimeType,
		Status:       model.InvoiceUploaded,
	}
	if err := s.Invoices.Create(ctx, inv); err != nil {
		if rmErr := s.Files.Remove(stored); rmErr != nil {
			log.Warn().Err(rmErr).Str("stored_path", stored).Msg("orphaned upload not removed")
		}
		return nil, err
	}
	metrics.InvoicesUploaded.Inc()

	if s.Thumbnails != nil && infra.IsDecodableImage(inv.MimeType) {
		if err := s.Thumbnails.EnqueueThumbnail(ctx, inv.ID); err != nil {
			log.Warn().Err(err).Uint("invoice_id", inv.ID).Msg("thumbnail job not enqueued")
		}
	}

	return &dto.UploadInvoiceResponse{
		InvoiceID: inv.ID,
		Supplier:  dto.SupplierSummary{ID: supplier.ID, Name: supplier.Name},
		File: dto.InvoiceFileResponse{
			OriginalName: inv.OriginalName,
			MimeType:     inv.MimeType,
			StoredPath:   inv.StoredPath,
		},
		Status:    inv.Status,
		CreatedAt: inv.CreatedAt,
	}, nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *invoiceService) List(ctx context.Context, filter dto.InvoiceFilter) ([]dto.InvoiceResponse, error) {
	invoices, err := s.Invoices.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.InvoiceResponse, len(invoices))
	for i := range invoices {
		resp[i] = dto.NewInvoiceResponse(&invoices[i])
	}
	return resp, nil
}

func (s *invoiceService) Get(ctx context.Context, id uint) (*dto.InvoiceResponse, error) {
	inv, err := s.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	resp := dto.NewInvoiceResponse(inv)
	return &resp, nil
}

func (s *invoiceService) File(ctx context.Context, id uint) (*StoredFile, error) {
	inv, err := s.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	abs, err := s.Files.Resolve(inv.StoredPath)
	if err != nil {
		return nil, err
	}
	return &StoredFile{Path: abs, Name: inv.OriginalName, MimeType: inv.MimeType}, nil
}

func (s *invoiceService) Thumbnail(ctx context.Context, id uint) (*StoredFile, error) {
	inv, err := s.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}
	if inv.ThumbnailPath == nil {
		return nil, apierror.NotFound("thumbnail not available")
	}
	abs, err := s.Files.Resolve(*inv.ThumbnailPath)
	if err != nil {
		return nil, err
	}
	return &StoredFile{Path: abs, Name: "thumbnail.jpg", MimeType: "image/jpeg"}, nil
}

// ── Parse ─────────────────────────────────────────────────────────────────────

// Parse runs extraction on the stored document and returns normalized lines.
// Lines are not persisted; each call extracts again.
func (s *invoiceService) Parse(ctx context.Context, id uint) (*dto.ParsedInvoiceResponse, error) {
	ctx, span := startInvoiceSpan(ctx, "invoice.parse", id)
	resp, err := s.parse(ctx, id)
	endSpan(span, err)
	return resp, err
}

func (s *invoiceService) parse(ctx context.Context, id uint) (*dto.ParsedInvoiceResponse, error) {
	inv, err := s.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "invoice")
	}

	data, err := s.Files.Read(inv.StoredPath)
	if err != nil {
		return nil, fmt.Errorf("read stored invoice %d: %w", id, err)
	}

	doc, err := s.Extractor.Extract(ctx, data, inv.MimeType)
	if err != nil {
		return nil, err
	}

	lines := normalizeLines(doc)
	for i := range lines {
		if err := s.Matcher.Match(ctx, &lines[i]); err != nil {
			log.Warn().Err(err).Uint("invoice_id", id).Int("line", i).Msg("product match failed")
		}
	}

	if err := s.Invoices.MarkParsed(ctx, id); err != nil {
		return nil, err
	}

	resp := &dto.ParsedInvoiceResponse{
		InvoiceID:  inv.ID,
		SupplierID: inv.SupplierID,
		IssueDate:  nullableString(doc.IssueDate),
		Currency:   nullableString(doc.Currency),
		Lines:      lines,
	}
	if inv.Supplier != nil {
		resp.SupplierName = inv.Supplier.Name
	}
	if name := nullableString(doc.SupplierName); name != nil && !strings.EqualFold(*name, resp.SupplierName) {
		resp.SupplierFromDocument = name
	}
	return resp, nil
}

// ── Apply ─────────────────────────────────────────────────────────────────────

func applyLockKey(id uint) string { return fmt.Sprintf("lock:invoice-apply:%d", id) }

// Apply writes the reviewed lines to the ledgers and marks the invoice
// APPLIED, all in one transaction. Any failing line rolls back every line.
func (s *invoiceService) Apply(ctx context.Context, id uint, req dto.ApplyInvoiceRequest) (*dto.ApplyInvoiceResponse, error) {
	ctx, span := startInvoiceSpan(ctx, "invoice.apply", id)
	resp, err := s.apply(ctx, id, req)
	endSpan(span, err)
	return resp, err
}

func (s *invoiceService) apply(ctx context.Context, id uint, req dto.ApplyInvoiceRequest) (*dto.ApplyInvoiceResponse, error) {
	if req.Lines == nil {
		return nil, apierror.Validation("lines must be an array")
	}

	release, err := s.Locker.Obtain(ctx, applyLockKey(id), s.ApplyLockTTL)
	defer release()
	switch {
	case errors.Is(err, infra.ErrLocked):
		return nil, apierror.Conflict("invoice %d is already being applied", id)
	case err != nil:
		log.Warn().Err(err).Uint("invoice_id", id).Msg("apply lock unavailable, relying on database guard")
	}

	resp := &dto.ApplyInvoiceResponse{InvoiceID: id}
	var touched []uint

	err = runTx(ctx, s.Invoices.DB(), func(tx *gorm.DB) error {
		inv, err := s.Invoices.FindByIDTx(tx, id)
		if err != nil {
			return notFound(err, "invoice")
		}
		if inv.Status == model.InvoiceApplied {
			return apierror.Conflict("invoice already applied")
		}
		claimed, err := s.Invoices.MarkAppliedTx(tx, id)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return apierror.Conflict("invoice already applied")
		}

		now := s.now()
		for i, line := range req.Lines {
			if !line.Apply || line.ProductID == nil {
				resp.SkippedLines++
				continue
			}
			label := lineLabel(line, i)

			if _, err := s.Products.FindByIDTx(tx, *line.ProductID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apierror.NotFound("Product not found for %s", label)
				}
				return err
			}

			if line.ApplyStock {
				qty, err := lineQuantity(line.Quantity, label)
				if err != nil {
					return err
				}
				movement := &model.StockMovement{
					ProductID: *line.ProductID,
					Quantity:  qty,
					Reason:    fmt.Sprintf("Invoice %d %s", id, label),
				}
				if err := s.Stock.CreateTx(tx, movement); err != nil {
					return err
				}
			}

			if line.ApplyPrice {
				cents, err := lineCents(line.UnitPrice, label)
				if err != nil {
					return err
				}
				entry := &model.PriceHistory{ProductID: *line.ProductID, PriceCents: cents, EffectiveFrom: now}
				if err := s.Prices.CreateTx(tx, entry); err != nil {
					return err
				}
			}

			touched = append(touched, *line.ProductID)
			resp.AppliedLines++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.invalidate(ctx, touched...)
	metrics.RecordApply(resp.AppliedLines, resp.SkippedLines)
	log.Info().
		Uint("invoice_id", id).
		Int("applied", resp.AppliedLines).
		Int("skipped", resp.SkippedLines).
		Msg("invoice applied")
	return resp, nil
}

// lineLabel names a line by its parsed line number, else its client index,
// else its position in the request.
func lineLabel(line dto.ApplyInvoiceLine, pos int) string {
	switch {
	case line.ParsedLineNo != nil:
		return "line " + strconv.FormatFloat(*line.ParsedLineNo, 'f', -1, 64)
	case line.LineIndex != nil:
		return "line " + strconv.Itoa(*line.LineIndex)
	default:
		return "line " + strconv.Itoa(pos)
	}
}

func lineQuantity(q *float64, label string) (int, error) {
	if q == nil {
		return 0, apierror.Validation("Invalid quantity for %s", label)
	}
	n, ok := wholeNumber(*q)
	if !ok || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, apierror.Validation("Invalid quantity for %s", label)
	}
	if n == 0 {
		return 0, apierror.Validation("Quantity must be non-zero for %s", label)
	}
	return int(n), nil
}

func lineCents(price *float64, label string) (int64, error) {
	if price == nil || math.IsNaN(*price) || math.IsInf(*price, 0) || *price <= 0 || *price > maxExactInteger/100 {
		return 0, apierror.Validation("Invalid unitPrice for %s", label)
	}
	cents := priceToCents(*price)
	if cents <= 0 {
		return 0, apierror.Validation("Invalid unitPrice for %s", label)
	}
	return cents, nil
}

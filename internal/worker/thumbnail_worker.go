package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/repository"
)

// ThumbnailWidth is the pixel width of generated invoice previews.
const ThumbnailWidth = 320

type ThumbnailPayload struct {
	InvoiceID uint `json:"invoice_id"`
}

// ThumbnailWorker renders a JPEG preview of uploaded invoice images.
type ThumbnailWorker struct {
	invoices repository.InvoiceRepository
	files    *infra.FileStore
}

func NewThumbnailWorker(invoices repository.InvoiceRepository, files *infra.FileStore) *ThumbnailWorker {
	return &ThumbnailWorker{invoices: invoices, files: files}
}

func (w *ThumbnailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p ThumbnailPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Skip("invalid thumbnail payload: %v", err)
	}

	inv, err := w.invoices.FindByID(ctx, p.InvoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Skip("invoice %d not found", p.InvoiceID)
	}
	if err != nil {
		return err
	}
	if !infra.IsDecodableImage(inv.MimeType) {
		return Skip("invoice %d is %s, not an image", inv.ID, inv.MimeType)
	}

	src, err := w.files.Resolve(inv.StoredPath)
	if err != nil {
		return Skip("invoice %d: %v", inv.ID, err)
	}
	stored := w.files.ThumbnailPath(inv.StoredPath)
	dst, err := w.files.Resolve(stored)
	if err != nil {
		return err
	}
	if err := infra.WriteThumbnail(src, dst, ThumbnailWidth); err != nil {
		return fmt.Errorf("invoice %d: %w", inv.ID, err)
	}
	if err := w.invoices.SetThumbnail(ctx, inv.ID, stored); err != nil {
		return err
	}

	log.Info().Uint("invoice_id", inv.ID).Str("thumbnail", stored).Msg("thumbnail rendered")
	return nil
}

package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/model"
	"github.com/kerem-gursoy/uup/internal/repository"
	"github.com/kerem-gursoy/uup/internal/testutil"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := imaging.New(w, h, color.NRGBA{B: 255, A: 255})
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func payload(t *testing.T, id uint) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(ThumbnailPayload{InvoiceID: id})
	require.NoError(t, err)
	return raw
}

func TestThumbnailWorker_Renders(t *testing.T) {
	db := testutil.NewDB(t)
	files, err := infra.NewFileStore(t.TempDir())
	require.NoError(t, err)
	supplier := testutil.SeedSupplier(t, db, "ACME")

	stored, err := files.SaveInvoice("scan.png", bytes.NewReader(pngBytes(t, 960, 480)))
	require.NoError(t, err)
	inv := testutil.SeedInvoice(t, db, supplier.ID, stored, "image/png")

	w := NewThumbnailWorker(repository.NewInvoiceRepository(db), files)
	require.NoError(t, w.Process(context.Background(), payload(t, inv.ID)))

	var got model.Invoice
	require.NoError(t, db.First(&got, inv.ID).Error)
	require.NotNil(t, got.ThumbnailPath)
	assert.Equal(t, files.ThumbnailPath(stored), *got.ThumbnailPath)

	data, err := files.Read(*got.ThumbnailPath)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, ThumbnailWidth, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())
}

func TestThumbnailWorker_Skips(t *testing.T) {
	db := testutil.NewDB(t)
	files, err := infra.NewFileStore(t.TempDir())
	require.NoError(t, err)
	supplier := testutil.SeedSupplier(t, db, "ACME")
	pdf := testutil.SeedInvoice(t, db, supplier.ID, "uploads/invoices/a.pdf", "application/pdf")
	escaped := testutil.SeedInvoice(t, db, supplier.ID, "../outside.png", "image/png")

	w := NewThumbnailWorker(repository.NewInvoiceRepository(db), files)
	cases := []struct {
		name string
		raw  json.RawMessage
	}{
		{"malformed payload", json.RawMessage(`"nope"`)},
		{"unknown invoice", payload(t, 999)},
		{"not an image", payload(t, pdf.ID)},
		{"bad stored path", payload(t, escaped.ID)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := w.Process(context.Background(), tc.raw)
			var perm *PermanentError
			assert.ErrorAs(t, err, &perm)
		})
	}
}

func TestThumbnailWorker_MissingFileIsRetryable(t *testing.T) {
	db := testutil.NewDB(t)
	files, err := infra.NewFileStore(t.TempDir())
	require.NoError(t, err)
	supplier := testutil.SeedSupplier(t, db, "ACME")
	inv := testutil.SeedInvoice(t, db, supplier.ID, "uploads/invoices/gone.png", "image/png")

	w := NewThumbnailWorker(repository.NewInvoiceRepository(db), files)
	err = w.Process(context.Background(), payload(t, inv.ID))
	require.Error(t, err)
	var perm *PermanentError
	assert.False(t, errors.As(err, &perm))
}

func noBackoff(int) time.Duration { return 0 }

func TestWithRetry(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, noBackoff, func(int) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, noBackoff, func(attempt int) error {
			calls++
			return fmt.Errorf("fail %d", attempt)
		})
		assert.EqualError(t, err, "fail 2")
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), 3, noBackoff, func(int) error {
			calls++
			return Skip("invoice %d not found", 4)
		})
		assert.EqualError(t, err, "invoice 4 not found")
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := withRetry(ctx, 3, func(int) time.Duration { return time.Hour }, func(int) error {
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestExponentialBackoff(t *testing.T) {
	assert.Equal(t, time.Second, exponentialBackoff(1))
	assert.Equal(t, 2*time.Second, exponentialBackoff(2))
	assert.Equal(t, 4*time.Second, exponentialBackoff(3))
}

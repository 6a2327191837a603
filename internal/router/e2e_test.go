//go:build integration

package router

// End-to-end tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/...

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/repository"
	"github.com/kerem-gursoy/uup/internal/worker"
)

type e2eEnv struct {
	srv    *httptest.Server
	client *http.Client
}

func setupE2E(t *testing.T, reply string) *e2eEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("inventory_test"),
		tcPostgres.WithUsername("inventory"),
		tcPostgres.WithPassword("inventory"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.DatabaseURL = pgURL
	cfg.RedisURL = rdURL

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	files, err := infra.NewFileStore(t.TempDir())
	require.NoError(t, err)

	poolCtx, cancel := context.WithCancel(ctx)
	pool := worker.NewPool(rdb)
	pool.Handle(worker.QueueThumbnails, worker.JobInvoiceThumbnail,
		worker.NewThumbnailWorker(repository.NewInvoiceRepository(db), files))
	pool.Start(poolCtx, 1)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})

	engine, err := New(cfg, Deps{
		DB:         db,
		Redis:      rdb,
		Files:      files,
		Extractor:  replyExtractor{reply: reply},
		Breaker:    infra.NewCircuitBreaker(infra.DefaultCBConfig("extraction")),
		Thumbnails: worker.NewDispatcher(rdb),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := srv.Client()
	client.Jar = jar

	env := &e2eEnv{srv: srv, client: client}
	resp := env.postJSON(t, "/auth/register", dto.CredentialsRequest{Username: "e2e", Password: "e2e-pass"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	return env
}

func (e *e2eEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := e.client.Post(e.srv.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func (e *e2eEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	return resp
}

func readJSON[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *e2eEnv) uploadPNG(t *testing.T, supplierID uint) dto.UploadInvoiceResponse {
	t.Helper()
	var img bytes.Buffer
	require.NoError(t, imaging.Encode(&img, imaging.New(800, 400, color.NRGBA{G: 128, A: 255}), imaging.PNG))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("supplierId", fmt.Sprint(supplierID)))
	part, err := mw.CreateFormFile("file", "invoice.png")
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := e.client.Post(e.srv.URL+"/invoices/upload", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return readJSON[dto.UploadInvoiceResponse](t, resp)
}

func TestE2E_InvoicePipeline(t *testing.T) {
	reply := `{"supplier_name":"Northwind","line_items":[
		{"line_no":1,"description":"Tea","barcode":"5000","quantity":6,"unit_price":3.5}
	]}`
	env := setupE2E(t, reply)

	supplier := readJSON[dto.SupplierResponse](t, env.postJSON(t, "/suppliers", dto.SupplierRequest{Name: "Northwind"}))
	barcode := "5000"
	product := readJSON[dto.ProductResponse](t, env.postJSON(t, "/products", dto.ProductRequest{
		Name:       "Tea",
		Barcode:    &barcode,
		SupplierID: &supplier.ID,
	}))

	uploaded := env.uploadPNG(t, supplier.ID)
	assert.Equal(t, "image/png", uploaded.File.MimeType)

	// The worker renders the thumbnail asynchronously.
	require.Eventually(t, func() bool {
		inv := readJSON[dto.InvoiceResponse](t, env.get(t, fmt.Sprintf("/invoices/%d", uploaded.InvoiceID)))
		return inv.HasThumbnail
	}, 15*time.Second, 200*time.Millisecond)

	resp := env.get(t, fmt.Sprintf("/invoices/%d/thumbnail", uploaded.InvoiceID))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	resp = env.postJSON(t, fmt.Sprintf("/invoices/%d/parse", uploaded.InvoiceID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	parsed := readJSON[dto.ParsedInvoiceResponse](t, resp)
	require.Len(t, parsed.Lines, 1)
	require.NotNil(t, parsed.Lines[0].MatchedProductID)
	assert.Nil(t, parsed.SupplierFromDocument)

	line := parsed.Lines[0]
	body := dto.ApplyInvoiceRequest{Lines: []dto.ApplyInvoiceLine{{
		ParsedLineNo: line.LineNo,
		Apply:        true,
		ProductID:    line.MatchedProductID,
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPrice,
		ApplyStock:   true,
		ApplyPrice:   true,
	}}}

	// Concurrent applies: exactly one wins.
	const callers = 5
	statuses := make([]int, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(body)
			r, err := env.client.Post(fmt.Sprintf("%s/invoices/%d/apply", env.srv.URL, uploaded.InvoiceID), "application/json", bytes.NewReader(b))
			if err == nil {
				statuses[i] = r.StatusCode
				r.Body.Close()
			}
		}(i)
	}
	wg.Wait()

	ok, conflict := 0, 0
	for _, s := range statuses {
		switch s {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, callers-1, conflict)

	summary := readJSON[dto.ProductSummaryResponse](t, env.get(t, fmt.Sprintf("/products/%d/summary", product.ID)))
	require.NotNil(t, summary.LatestPrice)
	assert.Equal(t, int64(350), summary.LatestPrice.PriceCents)
	assert.Equal(t, int64(6), summary.CurrentStock)

	history := readJSON[[]dto.PriceHistoryResponse](t, env.get(t, fmt.Sprintf("/products/%d/price-history", product.ID)))
	assert.Len(t, history, 1)

	health := readJSON[map[string]any](t, env.get(t, "/health"))
	assert.Equal(t, "connected", health["redis"])

	dead := readJSON[map[string]any](t, env.get(t, "/jobs/dead-letters"))
	assert.EqualValues(t, 0, dead["length"])
}

package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/config"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/extraction"
	"github.com/kerem-gursoy/uup/internal/infra"
	"github.com/kerem-gursoy/uup/internal/middleware"
	"github.com/kerem-gursoy/uup/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// replyExtractor answers every call with a canned model reply.
type replyExtractor struct{ reply string }

func (e replyExtractor) Extract(context.Context, []byte, string) (*extraction.Document, error) {
	return extraction.Decode(e.reply)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		CORSOrigins:        "http://localhost:5173",
		JWTSecret:          "router-test-secret",
		JWTExpirationHours: 1,
		MaxUploadBytes:     1 << 20,
		ProductMatcher:     "barcode",
		SummaryCacheTTL:    time.Minute,
		ApplyLockTTL:       time.Second,
	}
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	cookie *http.Cookie
}

func newTestServer(t *testing.T, ext extraction.Extractor) *testServer {
	t.Helper()
	files, err := infra.NewFileStore(t.TempDir())
	require.NoError(t, err)

	engine, err := New(testConfig(), Deps{
		DB:        testutil.NewDB(t),
		Files:     files,
		Extractor: ext,
		Breaker:   infra.NewCircuitBreaker(infra.DefaultCBConfig("extraction")),
	})
	require.NoError(t, err)
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) json(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req)
}

// upload posts a multipart form. An empty fileName omits the file part.
func (s *testServer) upload(supplierID, fileName string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if supplierID != "" {
		require.NoError(s.t, mw.WriteField("supplierId", supplierID))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(s.t, err)
		_, err = part.Write(content)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/invoices/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req)
}

func (s *testServer) login() {
	w := s.json(http.MethodPost, "/auth/register", dto.CredentialsRequest{Username: "clerk", Password: "hunter22"})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.TokenCookie {
			s.cookie = c
		}
	}
	require.NotNil(s.t, s.cookie)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) apierror.Response {
	return decode[apierror.Response](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"db":"connected","redis":"disabled","extraction":"closed"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestSwaggerDoc(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	w := s.do(httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[map[string]any](t, w)
	assert.Contains(t, doc["paths"], "/invoices/{id}/apply")
}

func TestDeadLettersWithoutRedis(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	s.login()

	w := s.do(httptest.NewRequest(http.MethodGet, "/jobs/dead-letters", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"queue":"jobs:thumbnails","length":0,"entries":[]}`, w.Body.String())

	w = s.do(httptest.NewRequest(http.MethodGet, "/jobs/dead-letters?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	for _, path := range []string{"/suppliers", "/products", "/invoices", "/reports/low-stock", "/auth/me"} {
		w := s.do(httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	s.login()

	w := s.do(httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.AuthResponse](t, w)
	assert.Equal(t, "clerk", me.User.Username)

	w = s.json(http.MethodPost, "/auth/login", dto.CredentialsRequest{Username: "clerk", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.json(http.MethodPost, "/auth/register", dto.CredentialsRequest{Username: "clerk", Password: "hunter22"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.json(http.MethodPost, "/auth/register", map[string]string{"username": "  ", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, errorOf(t, w).Fields, "username")

	w = s.json(http.MethodPost, "/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCatalogueAndLedgers(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	s.login()

	w := s.json(http.MethodPost, "/suppliers", dto.SupplierRequest{Name: "ACME"})
	require.Equal(t, http.StatusCreated, w.Code)
	supplier := decode[dto.SupplierResponse](t, w)

	barcode := "7790001"
	w = s.json(http.MethodPost, "/products", dto.ProductRequest{Name: "Coffee", Barcode: &barcode, SupplierID: &supplier.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	product := decode[dto.ProductResponse](t, w)

	w = s.json(http.MethodPost, "/products", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/products/by-barcode/7790001", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.ID, decode[dto.ProductResponse](t, w).ID)

	pricePath := fmt.Sprintf("/products/%d/set-price", product.ID)
	w = s.json(http.MethodPost, pricePath, map[string]any{"priceCents": 1999})
	assert.Equal(t, http.StatusCreated, w.Code)

	for _, body := range []map[string]any{{}, {"priceCents": 0}, {"priceCents": 19.5}, {"priceCents": -3}} {
		w = s.json(http.MethodPost, pricePath, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "priceCents must be a positive integer (in cents)", errorOf(t, w).Error)
	}

	stockPath := fmt.Sprintf("/products/%d/adjust-stock", product.ID)
	w = s.json(http.MethodPost, stockPath, map[string]any{"quantity": 12, "reason": "initial count"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, int64(12), decode[dto.AdjustStockResponse](t, w).CurrentStock)

	w = s.json(http.MethodPost, stockPath, map[string]any{"quantity": 0, "reason": "noop"})
	assert.Equal(t, "quantity must be a non-zero integer", errorOf(t, w).Error)
	w = s.json(http.MethodPost, stockPath, map[string]any{"quantity": 1, "reason": " "})
	assert.Equal(t, "reason is required", errorOf(t, w).Error)

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d/summary", product.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[dto.ProductSummaryResponse](t, w)
	require.NotNil(t, summary.LatestPrice)
	assert.Equal(t, int64(1999), summary.LatestPrice.PriceCents)
	assert.Equal(t, int64(12), summary.CurrentStock)

	w = s.do(httptest.NewRequest(http.MethodGet, "/reports/low-stock?threshold=20", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.StockLevelResponse](t, w), 1)
	w = s.do(httptest.NewRequest(http.MethodGet, "/reports/low-stock", nil))
	assert.Empty(t, decode[[]dto.StockLevelResponse](t, w))
	w = s.do(httptest.NewRequest(http.MethodGet, "/reports/low-stock?threshold=many", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/reports/stock.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=stock.xlsx", w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = s.do(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/products/%d", product.ID), nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/suppliers/%d", supplier.ID), nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/products/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(httptest.NewRequest(http.MethodGet, "/products/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadValidationOrder(t *testing.T) {
	s := newTestServer(t, replyExtractor{})
	s.login()
	w := s.json(http.MethodPost, "/suppliers", dto.SupplierRequest{Name: "ACME"})
	require.Equal(t, http.StatusCreated, w.Code)

	cases := []struct {
		name     string
		supplier string
		file     string
		status   int
		msg      string
	}{
		{"missing supplier", "", "scan.jpg", http.StatusBadRequest, "supplierId is required"},
		{"malformed supplier", "abc", "scan.jpg", http.StatusBadRequest, "Invalid supplierId"},
		{"unknown supplier", "99", "", http.StatusNotFound, "supplier not found"},
		{"missing file", "1", "", http.StatusBadRequest, "no file uploaded (field 'file' is required)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := s.upload(tc.supplier, tc.file, []byte("jpeg bytes"))
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, errorOf(t, w).Error)
		})
	}

	w = s.upload("1", "scan.jpg", bytes.Repeat([]byte("x"), 1<<20+1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file too large", errorOf(t, w).Error)

	w = s.upload("1", "scan.jpg", []byte("jpeg bytes"))
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decode[dto.UploadInvoiceResponse](t, w)
	assert.Equal(t, "image/jpeg", resp.File.MimeType)
	assert.Equal(t, "ACME", resp.Supplier.Name)
	assert.True(t, strings.HasPrefix(resp.File.StoredPath, "uploads/invoices/"))

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/invoices/%d/file", resp.InvoiceID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jpeg bytes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/invoices/%d/thumbnail", resp.InvoiceID), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestParseWithoutAPIKey(t *testing.T) {
	gemini, err := infra.NewGeminiExtractor(context.Background(), "", "gemini-2.5-flash", 0)
	require.NoError(t, err)
	s := newTestServer(t, gemini)
	s.login()
	require.Equal(t, http.StatusCreated, s.json(http.MethodPost, "/suppliers", dto.SupplierRequest{Name: "ACME"}).Code)
	require.Equal(t, http.StatusCreated, s.upload("1", "scan.jpg", []byte("jpeg")).Code)

	w := s.json(http.MethodPost, "/invoices/1/parse", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := errorOf(t, w)
	assert.Equal(t, "GEMINI_API_KEY is not configured", resp.Error)
	assert.Equal(t, "extraction_not_configured", resp.Code)
}

func TestInvoiceParseAndApply(t *testing.T) {
	reply := "```json\n" + `{
		"supplier_name": "ACME S.A.",
		"issue_date": "2024-03-01",
		"currency": "USD",
		"line_items": [
			{"line_no": 1, "description": "Coffee 1kg", "barcode": "7790001", "quantity": "4", "unit_price": 12.345},
			{"line_no": 2, "description": "Unknown", "quantity": null}
		]
	}` + "\n```"
	s := newTestServer(t, replyExtractor{reply: reply})
	s.login()

	require.Equal(t, http.StatusCreated, s.json(http.MethodPost, "/suppliers", dto.SupplierRequest{Name: "ACME"}).Code)
	barcode := "7790001"
	w := s.json(http.MethodPost, "/products", dto.ProductRequest{Name: "Coffee", Barcode: &barcode})
	require.Equal(t, http.StatusCreated, w.Code)
	product := decode[dto.ProductResponse](t, w)
	require.Equal(t, http.StatusCreated, s.upload("1", "scan.jpg", []byte("jpeg")).Code)

	w = s.json(http.MethodPost, "/invoices/1/parse", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	parsed := decode[dto.ParsedInvoiceResponse](t, w)
	assert.Equal(t, "ACME", parsed.SupplierName)
	require.NotNil(t, parsed.SupplierFromDocument)
	assert.Equal(t, "ACME S.A.", *parsed.SupplierFromDocument)
	require.Len(t, parsed.Lines, 2)
	require.NotNil(t, parsed.Lines[0].Quantity)
	assert.Equal(t, 4.0, *parsed.Lines[0].Quantity)
	require.NotNil(t, parsed.Lines[0].MatchedProductID)
	assert.Equal(t, product.ID, *parsed.Lines[0].MatchedProductID)
	assert.Nil(t, parsed.Lines[1].Quantity)

	w = s.do(httptest.NewRequest(http.MethodGet, "/invoices?status=PARSED", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]dto.InvoiceResponse](t, w), 1)

	lineNo := 1.0
	body := dto.ApplyInvoiceRequest{Lines: []dto.ApplyInvoiceLine{
		{
			ParsedLineNo: &lineNo,
			Apply:        true,
			ProductID:    &product.ID,
			Quantity:     parsed.Lines[0].Quantity,
			UnitPrice:    parsed.Lines[0].UnitPrice,
			ApplyStock:   true,
			ApplyPrice:   true,
		},
		{Apply: false},
	}}
	w = s.json(http.MethodPost, "/invoices/1/apply", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, dto.ApplyInvoiceResponse{InvoiceID: 1, AppliedLines: 1, SkippedLines: 1}, decode[dto.ApplyInvoiceResponse](t, w))

	w = s.json(http.MethodPost, "/invoices/1/apply", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invoice already applied", errorOf(t, w).Error)

	w = s.do(httptest.NewRequest(http.MethodGet, fmt.Sprintf("/products/%d/summary", product.ID), nil))
	summary := decode[dto.ProductSummaryResponse](t, w)
	require.NotNil(t, summary.LatestPrice)
	assert.Equal(t, int64(1235), summary.LatestPrice.PriceCents)
	assert.Equal(t, int64(4), summary.CurrentStock)

	w = s.json(http.MethodPost, "/invoices/1/apply", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "lines must be an array", errorOf(t, w).Error)
}

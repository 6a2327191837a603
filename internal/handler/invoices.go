package handler

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/service"
)

// multipartOverhead is headroom for form fields and part headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

type InvoicesHandler struct {
	svc            service.InvoiceService
	maxUploadBytes int64
}

func NewInvoicesHandler(svc service.InvoiceService, maxUploadBytes int64) *InvoicesHandler {
	return &InvoicesHandler{svc: svc, maxUploadBytes: maxUploadBytes}
}

// Upload godoc
// @Summary      Upload a supplier invoice
// @Description  Stores the document and creates an UPLOADED invoice. Images also get a thumbnail job.
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Security     CookieAuth
// @Param        supplierId formData int  true "Supplier ID"
// @Param        file       formData file true "Invoice image or PDF"
// @Success      201 {object} dto.UploadInvoiceResponse
// @Failure      400 {object} apierror.Response
// @Failure      404 {object} apierror.Response
// @Router       /invoices/upload [post]
func (h *InvoicesHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			c.JSON(http.StatusBadRequest, apierror.New("file too large"))
			return
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			// treated as a form without fields below
		default:
			c.JSON(http.StatusBadRequest, apierror.New("invalid multipart body"))
			return
		}
	}

	rawSupplier := strings.TrimSpace(c.PostForm("supplierId"))
	if rawSupplier == "" {
		c.JSON(http.StatusBadRequest, apierror.New("supplierId is required"))
		return
	}
	supplierID, err := strconv.ParseUint(rawSupplier, 10, 32)
	if err != nil || supplierID == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid supplierId"))
		return
	}

	var upload *service.UploadedFile
	header, err := c.FormFile("file")
	switch {
	case err == nil:
		if header.Size > h.maxUploadBytes {
			c.JSON(http.StatusBadRequest, apierror.New("file too large"))
			return
		}
		f, err := header.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer f.Close()
		mimeType, err := detectMimeType(header, f)
		if err != nil {
			respondError(c, err)
			return
		}
		upload = &service.UploadedFile{
			OriginalName: filepath.Base(header.Filename),
			MimeType:     mimeType,
			Content:      f,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// the service reports the missing file after checking the supplier
	default:
		c.JSON(http.StatusBadRequest, apierror.New("invalid multipart body"))
		return
	}

	resp, err := h.svc.Upload(c.Request.Context(), uint(supplierID), upload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// detectMimeType prefers the part header, then the file extension, then
// content sniffing. f is rewound before returning.
func detectMimeType(header *multipart.FileHeader, f multipart.File) (string, error) {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct, nil
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(header.Filename))); ct != "" {
		return ct, nil
	}
	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InvoicesHandler) File(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, err := h.svc.File(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	serveStored(c, file)
}

func (h *InvoicesHandler) Thumbnail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, err := h.svc.Thumbnail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	serveStored(c, file)
}

func serveStored(c *gin.Context, file *service.StoredFile) {
	if file.MimeType != "" {
		c.Header("Content-Type", file.MimeType)
	}
	c.Header("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": file.Name}))
	c.File(file.Path)
}

// Parse godoc
// @Summary      Extract line items from an invoice
// @Tags         invoices
// @Produce      json
// @Security     CookieAuth
// @Param        id path int true "Invoice ID"
// @Success      200 {object} dto.ParsedInvoiceResponse
// @Failure      404 {object} apierror.Response
// @Failure      500 {object} apierror.Response
// @Router       /invoices/{id}/parse [post]
func (h *InvoicesHandler) Parse(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Parse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Apply godoc
// @Summary      Apply reviewed invoice lines to the ledgers
// @Description  Appends stock movements and price entries in one transaction and marks the invoice APPLIED.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path int                     true "Invoice ID"
// @Param        body body dto.ApplyInvoiceRequest true "Reviewed lines"
// @Success      200 {object} dto.ApplyInvoiceResponse
// @Failure      400 {object} apierror.Response
// @Failure      404 {object} apierror.Response
// @Failure      409 {object} apierror.Response
// @Router       /invoices/{id}/apply [post]
func (h *InvoicesHandler) Apply(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ApplyInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

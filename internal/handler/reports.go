package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kerem-gursoy/uup/internal/apierror"
	"github.com/kerem-gursoy/uup/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportsHandler struct{ svc service.InventoryService }

func NewReportsHandler(svc service.InventoryService) *ReportsHandler {
	return &ReportsHandler{svc: svc}
}

// LowStock lists products at or below ?threshold (default 5).
func (h *ReportsHandler) LowStock(c *gin.Context) {
	threshold := int64(service.DefaultLowStockThreshold)
	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("threshold must be an integer"))
			return
		}
		threshold = v
	}
	resp, err := h.svc.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StockExport renders the whole catalogue with stock and price as a workbook.
func (h *ReportsHandler) StockExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.svc.ExportStock(c.Request.Context(), &buf); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=stock.xlsx")
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kerem-gursoy/uup/internal/dto"
	"github.com/kerem-gursoy/uup/internal/service"
)

// ProductsHandler serves the catalogue and the per-product ledgers.
type ProductsHandler struct {
	products  service.ProductService
	inventory service.InventoryService
}

func NewProductsHandler(products service.ProductService, inventory service.InventoryService) *ProductsHandler {
	return &ProductsHandler{products: products, inventory: inventory}
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetByBarcode backs the scanner flow.
func (h *ProductsHandler) GetByBarcode(c *gin.Context) {
	resp, err := h.products.GetByBarcode(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPrice godoc
// @Summary      Append a price entry
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path int                 true "Product ID"
// @Param        body body dto.SetPriceRequest true "Price in cents"
// @Success      201 {object} dto.PriceHistoryResponse
// @Failure      400 {object} apierror.Response
// @Failure      404 {object} apierror.Response
// @Router       /products/{id}/set-price [post]
func (h *ProductsHandler) SetPrice(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPriceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.SetPrice(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) PriceHistory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.PriceHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AdjustStock godoc
// @Summary      Append a stock movement
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Param        id   path int                    true "Product ID"
// @Param        body body dto.AdjustStockRequest true "Signed quantity and reason"
// @Success      201 {object} dto.AdjustStockResponse
// @Failure      400 {object} apierror.Response
// @Failure      404 {object} apierror.Response
// @Router       /products/{id}/adjust-stock [post]
func (h *ProductsHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventory.AdjustStock(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) Summary(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.inventory.Summary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

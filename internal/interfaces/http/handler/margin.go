package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
)

// MarginHandler serves margin rules and the below-minimum report
type MarginHandler struct {
	BaseHandler
	margins *pricing.MarginService
}

// NewMarginHandler creates a new MarginHandler
func NewMarginHandler(margins *pricing.MarginService) *MarginHandler {
	return &MarginHandler{margins: margins}
}

// ListRules handles GET /margins
func (h *MarginHandler) ListRules(c *gin.Context) {
	rules, err := h.margins.ListRules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rules)
}

// ResolveForProduct handles GET /margins/products/:id
func (h *MarginHandler) ResolveForProduct(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resolved, err := h.margins.ResolveForProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resolved)
}

// SetGlobal handles PUT /margins/global
func (h *MarginHandler) SetGlobal(c *gin.Context) {
	var req pricing.SetMarginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.margins.SetGlobal(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// UpsertCategory handles PUT /margins/categories/:name
func (h *MarginHandler) UpsertCategory(c *gin.Context) {
	category, ok := h.categoryParam(c)
	if !ok {
		return
	}
	var req pricing.SetMarginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.margins.UpsertCategoryRule(c.Request.Context(), category, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// DeleteCategory handles DELETE /margins/categories/:name
func (h *MarginHandler) DeleteCategory(c *gin.Context) {
	category, ok := h.categoryParam(c)
	if !ok {
		return
	}
	if err := h.margins.DeleteCategoryRule(c.Request.Context(), category); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpsertProduct handles PUT /margins/products/:id
func (h *MarginHandler) UpsertProduct(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req pricing.SetMarginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.margins.UpsertProductRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// DeleteProduct handles DELETE /margins/products/:id
func (h *MarginHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.margins.DeleteProductRule(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BelowMinimum handles GET /margins/below-minimum
func (h *MarginHandler) BelowMinimum(c *gin.Context) {
	products, err := h.margins.BelowMinimum(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, products)
}

func (h *MarginHandler) categoryParam(c *gin.Context) (string, bool) {
	category := strings.TrimSpace(c.Param("name"))
	if category == "" {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "name", Message: "This field is required"}})
		return "", false
	}
	return category, true
}

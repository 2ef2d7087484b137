package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
)

// PromotionHandler serves promotions and the margin guard dry run
type PromotionHandler struct {
	BaseHandler
	promotions *pricing.PromotionService
}

// NewPromotionHandler creates a new PromotionHandler
func NewPromotionHandler(promotions *pricing.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotions: promotions}
}

// Create handles POST /promotions. Percent promotions that would push any
// product below its minimum margin are rejected with 422.
func (h *PromotionHandler) Create(c *gin.Context) {
	var req pricing.CreatePromoRequest
	if !h.bindJSON(c, &req) {
		return
	}
	promo, err := h.promotions.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, promo)
}

// Validate handles POST /promotions/validate
func (h *PromotionHandler) Validate(c *gin.Context) {
	var req pricing.ValidatePromoRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.promotions.Validate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List handles GET /promotions
func (h *PromotionHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	promos, err := h.promotions.List(c.Request.Context(), shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, promos)
}

// Delete handles DELETE /promotions/:id
func (h *PromotionHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.promotions.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/trade"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/dto"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/interfaces/http/middleware"
)

const maxIdempotencyKeyLength = 128

// SaleHandler serves sale registration and history
type SaleHandler struct {
	BaseHandler
	sales *trade.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(sales *trade.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Register handles POST /sales. The Idempotency-Key header makes retries
// safe and ?reject_on_shortfall= overrides the body flag and the default.
func (h *SaleHandler) Register(c *gin.Context) {
	var req trade.RegisterSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		h.ValidationError(c, []dto.ValidationDetail{{
			Field:   middleware.IdempotencyKeyHeader,
			Message: "Must be at most " + strconv.Itoa(maxIdempotencyKeyLength) + " characters",
		}})
		return
	}
	if raw := c.Query("reject_on_shortfall"); raw != "" {
		reject, err := strconv.ParseBool(raw)
		if err != nil {
			h.ValidationError(c, []dto.ValidationDetail{{Field: "reject_on_shortfall", Message: "Must be true or false"}})
			return
		}
		req.RejectOnShortfall = &reject
	}

	sale, err := h.sales.RegisterSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// List handles GET /sales
func (h *SaleHandler) List(c *gin.Context) {
	var filter trade.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	sales, err := h.sales.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sales)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// ChangePaymentMethod handles PUT /sales/:id/payment-method
func (h *SaleHandler) ChangePaymentMethod(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req trade.ChangePaymentMethodRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.ChangePaymentMethod(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

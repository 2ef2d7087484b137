package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
)

// LotHandler serves purchase receipts and lot administration
type LotHandler struct {
	BaseHandler
	lots *inventory.LotService
}

// NewLotHandler creates a new LotHandler
func NewLotHandler(lots *inventory.LotService) *LotHandler {
	return &LotHandler{lots: lots}
}

// ReceivePurchase handles POST /purchases. Each line becomes one lot.
func (h *LotHandler) ReceivePurchase(c *gin.Context) {
	var req inventory.ReceivePurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	purchase, err := h.lots.ReceivePurchase(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, purchase)
}

// List handles GET /lots?product_id=&status=
func (h *LotHandler) List(c *gin.Context) {
	var filter inventory.LotListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	productID, ok := h.optionalUUIDQuery(c, "product_id")
	if !ok {
		return
	}
	filter.ProductID = productID

	lots, err := h.lots.ListLots(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// Get handles GET /lots/:id
func (h *LotHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.lots.GetLot(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// Expiring handles GET /lots/expiring?days=. Without days the
// alert_days_expiry setting applies.
func (h *LotHandler) Expiring(c *gin.Context) {
	days, ok := h.optionalIntQuery(c, "days")
	if !ok {
		return
	}
	lots, err := h.lots.ExpiringLots(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// Expire handles POST /lots/:id/expire
func (h *LotHandler) Expire(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.lots.ExpireLot(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// Discard handles POST /lots/:id/discard
func (h *LotHandler) Discard(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.lots.DiscardLot(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lot)
}

// Purge handles DELETE /lots/:id
func (h *LotHandler) Purge(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.lots.PurgeLot(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
)

// WasteHandler serves waste records
type WasteHandler struct {
	BaseHandler
	waste *inventory.WasteService
}

// NewWasteHandler creates a new WasteHandler
func NewWasteHandler(waste *inventory.WasteService) *WasteHandler {
	return &WasteHandler{waste: waste}
}

// Register handles POST /waste
func (h *WasteHandler) Register(c *gin.Context) {
	var req inventory.RegisterWasteRequest
	if !h.bindJSON(c, &req) {
		return
	}
	record, err := h.waste.RegisterWaste(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// List handles GET /waste?product_id=&from=&to=
func (h *WasteHandler) List(c *gin.Context) {
	var filter inventory.WasteListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	productID, ok := h.optionalUUIDQuery(c, "product_id")
	if !ok {
		return
	}
	filter.ProductID = productID

	records, err := h.waste.ListWaste(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/planning"
)

// PlanningHandler serves the advisory reports. All of them are read-only.
type PlanningHandler struct {
	BaseHandler
	advisory *planning.AdvisoryService
}

// NewPlanningHandler creates a new PlanningHandler
func NewPlanningHandler(advisory *planning.AdvisoryService) *PlanningHandler {
	return &PlanningHandler{advisory: advisory}
}

// Demand handles GET /planning/demand
func (h *PlanningHandler) Demand(c *gin.Context) {
	report, err := h.advisory.Demand(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Reorder handles GET /planning/reorder?lead_time_days=&cover_days=&z=
func (h *PlanningHandler) Reorder(c *gin.Context) {
	var filter planning.ReorderFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	rows, err := h.advisory.Reorder(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// Liquidation handles GET /planning/liquidation?window_days=
func (h *PlanningHandler) Liquidation(c *gin.Context) {
	windowDays, ok := h.optionalIntQuery(c, "window_days")
	if !ok {
		return
	}
	rows, err := h.advisory.Liquidation(c.Request.Context(), windowDays)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rows)
}

// KPIs handles GET /planning/kpis?from=&to=
func (h *PlanningHandler) KPIs(c *gin.Context) {
	var filter planning.KPIFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	kpis, err := h.advisory.KPIs(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, kpis)
}

// SalesPeriods handles GET /planning/sales-periods?granularity=week|month
func (h *PlanningHandler) SalesPeriods(c *gin.Context) {
	var filter planning.SalesPeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	periods, err := h.advisory.SalesPeriods(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, periods)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
)

// AuditHandler serves the audit log
type AuditHandler struct {
	BaseHandler
	audit *audit.Service
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(svc *audit.Service) *AuditHandler {
	return &AuditHandler{audit: svc}
}

// List handles GET /audit?entity=&entity_id=&limit=
func (h *AuditHandler) List(c *gin.Context) {
	var filter audit.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	entityID, ok := h.optionalUUIDQuery(c, "entity_id")
	if !ok {
		return
	}
	filter.EntityID = entityID

	entries, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

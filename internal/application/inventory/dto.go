package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
)

// LotResponse represents a lot in API responses
type LotResponse struct {
	ID         uuid.UUID       `json:"id"`
	ProductID  uuid.UUID       `json:"product_id"`
	LotCode    string          `json:"lot_code"`
	ReceivedAt time.Time       `json:"received_at"`
	Expiration *time.Time      `json:"expiration,omitempty"`
	QtyInitial int             `json:"qty_initial"`
	QtyCurrent int             `json:"qty_current"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	StockValue decimal.Decimal `json:"stock_value"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	PurchaseID *uuid.UUID      `json:"purchase_id,omitempty"`
	DocRef     string          `json:"doc_ref,omitempty"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToLotResponse converts a domain lot to a response
func ToLotResponse(l *inventory.Lot) LotResponse {
	return LotResponse{
		ID:         l.ID,
		ProductID:  l.ProductID,
		LotCode:    l.LotCode,
		ReceivedAt: l.ReceivedAt,
		Expiration: l.Expiration,
		QtyInitial: l.QtyInitial,
		QtyCurrent: l.QtyCurrent,
		UnitCost:   l.UnitCost,
		StockValue: l.StockValue(),
		SupplierID: l.SupplierID,
		PurchaseID: l.PurchaseID,
		DocRef:     l.DocRef,
		Status:     string(l.Status),
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// ToLotResponses converts a slice of lots
func ToLotResponses(lots []inventory.Lot) []LotResponse {
	out := make([]LotResponse, len(lots))
	for i := range lots {
		out[i] = ToLotResponse(&lots[i])
	}
	return out
}

// LotListFilter represents filter options for lot listings
type LotListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	Status    string     `form:"status" binding:"omitempty,oneof=vigente vendido vencido descartado"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

// ExpiringLotResponse is a lot close to its expiration
type ExpiringLotResponse struct {
	LotResponse
	DaysLeft int `json:"days_left"`
}

// PurchaseLineRequest is one product received in a purchase
type PurchaseLineRequest struct {
	ProductID  uuid.UUID        `json:"product_id" binding:"required"`
	Qty        int              `json:"qty" binding:"required,min=1"`
	UnitCost   *decimal.Decimal `json:"unit_cost" binding:"omitempty,dec_nonneg"`
	Expiration *time.Time       `json:"expiration"`
	LotCode    string           `json:"lot_code" binding:"max=64"`
}

// ReceivePurchaseRequest represents a supplier delivery
type ReceivePurchaseRequest struct {
	ReceivedAt *time.Time            `json:"received_at"`
	SupplierID *uuid.UUID            `json:"supplier_id"`
	DocRef     string                `json:"doc_ref" binding:"max=100"`
	Lines      []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// PurchaseResponse represents a received purchase and the lots it created
type PurchaseResponse struct {
	ID         uuid.UUID       `json:"id"`
	ReceivedAt time.Time       `json:"received_at"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	DocRef     string          `json:"doc_ref,omitempty"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Lots       []LotResponse   `json:"lots"`
}

// ChangeLotStatusRequest represents a manual lot status edit
type ChangeLotStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=vencido descartado"`
}

// SweepResult reports what an expiry sweep changed
type SweepResult struct {
	RanAt   time.Time   `json:"ran_at"`
	Expired []uuid.UUID `json:"expired"`
}

// RegisterWasteRequest represents a waste registration
type RegisterWasteRequest struct {
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	LotID       *uuid.UUID       `json:"lot_id"`
	Qty         int              `json:"qty" binding:"required,min=1"`
	UnitCostEst *decimal.Decimal `json:"unit_cost_est" binding:"omitempty,dec_nonneg"`
	Reason      string           `json:"reason" binding:"required,oneof=caducidad daño preparación"`
	Shift       string           `json:"shift" binding:"required,oneof=mañana tarde noche"`
	OccurredAt  *time.Time       `json:"ts"`
}

// WasteResponse represents a waste record in API responses
type WasteResponse struct {
	ID          uuid.UUID       `json:"id"`
	OccurredAt  time.Time       `json:"ts"`
	ProductID   uuid.UUID       `json:"product_id"`
	LotID       *uuid.UUID      `json:"lot_id,omitempty"`
	Qty         int             `json:"qty"`
	UnitCostEst decimal.Decimal `json:"unit_cost_est"`
	Cost        decimal.Decimal `json:"cost"`
	Reason      string          `json:"reason"`
	Shift       string          `json:"shift"`
	ApprovedBy  string          `json:"approved_by"`
}

// ToWasteResponse converts a waste record to a response
func ToWasteResponse(w *inventory.Waste) WasteResponse {
	return WasteResponse{
		ID:          w.ID,
		OccurredAt:  w.OccurredAt,
		ProductID:   w.ProductID,
		LotID:       w.LotID,
		Qty:         w.Qty,
		UnitCostEst: w.UnitCostEst,
		Cost:        w.Cost(),
		Reason:      string(w.Reason),
		Shift:       string(w.Shift),
		ApprovedBy:  w.ApprovedBy,
	}
}

// WasteListFilter represents filter options for waste listings
type WasteListFilter struct {
	ProductID *uuid.UUID `form:"-"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=500"`
}

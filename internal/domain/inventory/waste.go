package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// WasteReason explains why stock was written off
type WasteReason string

const (
	WasteReasonExpiry      WasteReason = "caducidad"
	WasteReasonDamage      WasteReason = "daño"
	WasteReasonPreparation WasteReason = "preparación"
)

// IsValid reports whether r is a known reason
func (r WasteReason) IsValid() bool {
	switch r {
	case WasteReasonExpiry, WasteReasonDamage, WasteReasonPreparation:
		return true
	}
	return false
}

// Shift is the store shift during which the waste occurred
type Shift string

const (
	ShiftMorning   Shift = "mañana"
	ShiftAfternoon Shift = "tarde"
	ShiftNight     Shift = "noche"
)

// IsValid reports whether s is a known shift
func (s Shift) IsValid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftNight:
		return true
	}
	return false
}

// Waste records units lost to expiry, damage or preparation
type Waste struct {
	shared.BaseEntity
	OccurredAt  time.Time
	ProductID   uuid.UUID
	LotID       *uuid.UUID
	Qty         int
	UnitCostEst decimal.Decimal
	Reason      WasteReason
	Shift       Shift
	ApprovedBy  string
}

// NewWaste creates a waste record
func NewWaste(productID uuid.UUID, lotID *uuid.UUID, qty int, unitCostEst decimal.Decimal, reason WasteReason, shift Shift, occurredAt time.Time) (*Waste, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Waste must reference a product")
	}
	if qty <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Waste quantity must be positive")
	}
	if unitCostEst.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Estimated unit cost cannot be negative")
	}
	if !reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Unknown waste reason: "+string(reason))
	}
	if !shift.IsValid() {
		return nil, shared.NewDomainError("INVALID_SHIFT", "Unknown shift: "+string(shift))
	}
	return &Waste{
		BaseEntity:  shared.NewBaseEntity(),
		OccurredAt:  occurredAt,
		ProductID:   productID,
		LotID:       lotID,
		Qty:         qty,
		UnitCostEst: unitCostEst,
		Reason:      reason,
		Shift:       shift,
		ApprovedBy:  "sistema",
	}, nil
}

// Cost returns qty * estimated unit cost
func (w *Waste) Cost() decimal.Decimal {
	return w.UnitCostEst.Mul(decimal.NewFromInt(int64(w.Qty)))
}

package inventory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// LotStatus is the lifecycle state of a lot
type LotStatus string

const (
	LotStatusActive    LotStatus = "vigente"
	LotStatusSoldOut   LotStatus = "vendido"
	LotStatusExpired   LotStatus = "vencido"
	LotStatusDiscarded LotStatus = "descartado"
)

// IsValid reports whether s is a known lot status
func (s LotStatus) IsValid() bool {
	switch s {
	case LotStatusActive, LotStatusSoldOut, LotStatusExpired, LotStatusDiscarded:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s LotStatus) IsTerminal() bool {
	return s == LotStatusSoldOut || s == LotStatusExpired || s == LotStatusDiscarded
}

// CanTransitionTo reports whether the lot state machine allows s -> target.
// Only vigente lots move, and never back to vigente.
func (s LotStatus) CanTransitionTo(target LotStatus) bool {
	if s != LotStatusActive {
		return false
	}
	return target == LotStatusSoldOut || target == LotStatusExpired || target == LotStatusDiscarded
}

// Lot is a discrete received batch of one product with its own expiration
// and remaining quantity.
type Lot struct {
	shared.BaseEntity
	ProductID  uuid.UUID
	LotCode    string
	ReceivedAt time.Time
	Expiration *time.Time
	QtyInitial int
	QtyCurrent int
	UnitCost   decimal.Decimal
	SupplierID *uuid.UUID
	PurchaseID *uuid.UUID
	DocRef     string
	Status     LotStatus
}

// NewLot creates an active lot holding qty units
func NewLot(productID uuid.UUID, lotCode string, receivedAt time.Time, expiration *time.Time, qty int, unitCost decimal.Decimal) (*Lot, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Lot must belong to a product")
	}
	if lotCode == "" {
		return nil, shared.NewDomainError("INVALID_LOT_CODE", "Lot code cannot be empty")
	}
	if qty <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Lot quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Lot unit cost cannot be negative")
	}
	if expiration != nil && expiration.Before(receivedAt) {
		return nil, shared.NewDomainError("INVALID_EXPIRATION", "Expiration cannot precede reception")
	}

	return &Lot{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		LotCode:    lotCode,
		ReceivedAt: receivedAt,
		Expiration: expiration,
		QtyInitial: qty,
		QtyCurrent: qty,
		UnitCost:   unitCost,
		Status:     LotStatusActive,
	}, nil
}

// IsActive reports whether the lot can still be consumed
func (l *Lot) IsActive() bool {
	return l.Status == LotStatusActive
}

// Available returns the quantity that allocation may take from the lot
func (l *Lot) Available() int {
	if !l.IsActive() || l.QtyCurrent < 0 {
		return 0
	}
	return l.QtyCurrent
}

// Consume takes qty units from the lot. A lot that reaches zero becomes vendido.
func (l *Lot) Consume(qty int) error {
	if !l.IsActive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Lot %s is %s and cannot be consumed", l.LotCode, l.Status))
	}
	if qty <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Consumed quantity must be positive")
	}
	if qty > l.QtyCurrent {
		return shared.NewDomainError("NEGATIVE_QUANTITY",
			fmt.Sprintf("Lot %s holds %d units, cannot consume %d", l.LotCode, l.QtyCurrent, qty))
	}

	l.QtyCurrent -= qty
	if l.QtyCurrent == 0 {
		l.Status = LotStatusSoldOut
	}
	l.Touch()
	return nil
}

// MarkExpired moves an active lot to vencido
func (l *Lot) MarkExpired() error {
	return l.transitionTo(LotStatusExpired)
}

// Discard moves an active lot to descartado
func (l *Lot) Discard() error {
	return l.transitionTo(LotStatusDiscarded)
}

// ChangeStatus applies an operator status edit. Only vencido and descartado
// may be set by hand; vendido is reached through consumption.
func (l *Lot) ChangeStatus(target LotStatus) error {
	switch target {
	case LotStatusExpired, LotStatusDiscarded:
		return l.transitionTo(target)
	default:
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Status %q cannot be set manually", target))
	}
}

func (l *Lot) transitionTo(target LotStatus) error {
	if !l.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Lot %s cannot move from %s to %s", l.LotCode, l.Status, target))
	}
	l.Status = target
	l.Touch()
	return nil
}

// DaysUntilExpiry returns whole days until expiration, floored, and false when
// the lot has no expiration date.
func (l *Lot) DaysUntilExpiry(now time.Time) (int, bool) {
	if l.Expiration == nil {
		return 0, false
	}
	return int(math.Floor(l.Expiration.Sub(now).Hours() / 24)), true
}

// ExpiresWithin reports whether the lot expires within d of now
func (l *Lot) ExpiresWithin(now time.Time, d time.Duration) bool {
	if l.Expiration == nil {
		return false
	}
	return l.Expiration.Sub(now) <= d
}

// IsExpiredAt reports whether the expiration date has passed
func (l *Lot) IsExpiredAt(now time.Time) bool {
	return l.Expiration != nil && l.Expiration.Before(now)
}

// StockValue returns the cost of the remaining units
func (l *Lot) StockValue() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.QtyCurrent)))
}

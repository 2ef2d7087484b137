package inventory

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// PurchaseLine records one lot created by a purchase receipt
type PurchaseLine struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	LotID     uuid.UUID
	Qty       int
	UnitCost  decimal.Decimal
}

// LineCost returns qty * unit cost
func (l PurchaseLine) LineCost() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Purchase is a supplier delivery; every line becomes an active lot
type Purchase struct {
	shared.BaseEntity
	ReceivedAt time.Time
	SupplierID *uuid.UUID
	DocRef     string
	Lines      []PurchaseLine
	TotalCost  decimal.Decimal
}

// NewPurchase starts an empty purchase receipt
func NewPurchase(receivedAt time.Time, supplierID *uuid.UUID, docRef string) *Purchase {
	return &Purchase{
		BaseEntity: shared.NewBaseEntity(),
		ReceivedAt: receivedAt,
		SupplierID: supplierID,
		DocRef:     docRef,
		Lines:      make([]PurchaseLine, 0),
		TotalCost:  decimal.Zero,
	}
}

// AddLot links a freshly received lot to the purchase and updates the total
func (p *Purchase) AddLot(lot *Lot) {
	lot.PurchaseID = &p.ID
	lot.SupplierID = p.SupplierID
	if lot.DocRef == "" {
		lot.DocRef = p.DocRef
	}
	line := PurchaseLine{
		ID:        uuid.New(),
		ProductID: lot.ProductID,
		LotID:     lot.ID,
		Qty:       lot.QtyInitial,
		UnitCost:  lot.UnitCost,
	}
	p.Lines = append(p.Lines, line)
	p.TotalCost = p.TotalCost.Add(line.LineCost())
}

// GenerateLotCode builds a lot code of the form LOT-<SKU>-<YYYYMMDD>-<NNNN>
func GenerateLotCode(sku string, receivedAt time.Time) string {
	return fmt.Sprintf("LOT-%s-%s-%04d", strings.ToUpper(sku), receivedAt.Format("20060102"), 1000+rand.IntN(9000))
}

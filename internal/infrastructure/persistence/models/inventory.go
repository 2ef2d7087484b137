package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
)

// LotModel is the persistence model for lots
type LotModel struct {
	BaseModel
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index:idx_lots_product_status"`
	LotCode    string    `gorm:"type:varchar(60);not null"`
	ReceivedAt time.Time `gorm:"not null"`
	Expiration *time.Time
	QtyInitial int             `gorm:"not null"`
	QtyCurrent int             `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	SupplierID *uuid.UUID      `gorm:"type:uuid"`
	PurchaseID *uuid.UUID      `gorm:"type:uuid;index"`
	DocRef     string          `gorm:"type:varchar(100)"`
	Status     string          `gorm:"type:varchar(20);not null;default:'vigente';index:idx_lots_product_status"`
}

// TableName returns the table name for GORM
func (LotModel) TableName() string {
	return "lots"
}

// ToDomain converts the persistence model to a domain Lot
func (m *LotModel) ToDomain() *inventory.Lot {
	return &inventory.Lot{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		LotCode:    m.LotCode,
		ReceivedAt: m.ReceivedAt,
		Expiration: m.Expiration,
		QtyInitial: m.QtyInitial,
		QtyCurrent: m.QtyCurrent,
		UnitCost:   m.UnitCost,
		SupplierID: m.SupplierID,
		PurchaseID: m.PurchaseID,
		DocRef:     m.DocRef,
		Status:     inventory.LotStatus(m.Status),
	}
}

// LotModelFromDomain creates a persistence model from a domain Lot
func LotModelFromDomain(l *inventory.Lot) *LotModel {
	m := &LotModel{
		ProductID:  l.ProductID,
		LotCode:    l.LotCode,
		ReceivedAt: l.ReceivedAt,
		Expiration: l.Expiration,
		QtyInitial: l.QtyInitial,
		QtyCurrent: l.QtyCurrent,
		UnitCost:   l.UnitCost,
		SupplierID: l.SupplierID,
		PurchaseID: l.PurchaseID,
		DocRef:     l.DocRef,
		Status:     string(l.Status),
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// PurchaseModel is the persistence model for purchase receipts
type PurchaseModel struct {
	BaseModel
	ReceivedAt time.Time           `gorm:"not null;index"`
	SupplierID *uuid.UUID          `gorm:"type:uuid"`
	DocRef     string              `gorm:"type:varchar(100)"`
	TotalCost  decimal.Decimal     `gorm:"type:numeric(14,2);not null;default:0"`
	Lines      []PurchaseLineModel `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "purchases"
}

// PurchaseLineModel is the persistence model for purchase lines
type PurchaseLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null"`
	LotID      uuid.UUID       `gorm:"type:uuid;not null"`
	Qty        int             `gorm:"not null"`
	UnitCost   decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseLineModel) TableName() string {
	return "purchase_lines"
}

// ToDomain converts the persistence model to a domain Purchase
func (m *PurchaseModel) ToDomain() *inventory.Purchase {
	p := &inventory.Purchase{
		BaseEntity: m.BaseModel.ToDomain(),
		ReceivedAt: m.ReceivedAt,
		SupplierID: m.SupplierID,
		DocRef:     m.DocRef,
		TotalCost:  m.TotalCost,
		Lines:      make([]inventory.PurchaseLine, len(m.Lines)),
	}
	for i, line := range m.Lines {
		p.Lines[i] = inventory.PurchaseLine{
			ID:        line.ID,
			ProductID: line.ProductID,
			LotID:     line.LotID,
			Qty:       line.Qty,
			UnitCost:  line.UnitCost,
		}
	}
	return p
}

// PurchaseModelFromDomain creates a persistence model from a domain Purchase
func PurchaseModelFromDomain(p *inventory.Purchase) *PurchaseModel {
	m := &PurchaseModel{
		ReceivedAt: p.ReceivedAt,
		SupplierID: p.SupplierID,
		DocRef:     p.DocRef,
		TotalCost:  p.TotalCost,
		Lines:      make([]PurchaseLineModel, len(p.Lines)),
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	for i, line := range p.Lines {
		m.Lines[i] = PurchaseLineModel{
			ID:         line.ID,
			PurchaseID: p.ID,
			ProductID:  line.ProductID,
			LotID:      line.LotID,
			Qty:        line.Qty,
			UnitCost:   line.UnitCost,
		}
	}
	return m
}

// WasteModel is the persistence model for waste records
type WasteModel struct {
	BaseModel
	OccurredAt  time.Time       `gorm:"not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID       *uuid.UUID      `gorm:"type:uuid"`
	Qty         int             `gorm:"not null"`
	UnitCostEst decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	Reason      string          `gorm:"type:varchar(30);not null"`
	Shift       string          `gorm:"type:varchar(20)"`
	ApprovedBy  string          `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (WasteModel) TableName() string {
	return "waste"
}

// ToDomain converts the persistence model to a domain Waste
func (m *WasteModel) ToDomain() *inventory.Waste {
	return &inventory.Waste{
		BaseEntity:  m.BaseModel.ToDomain(),
		OccurredAt:  m.OccurredAt,
		ProductID:   m.ProductID,
		LotID:       m.LotID,
		Qty:         m.Qty,
		UnitCostEst: m.UnitCostEst,
		Reason:      inventory.WasteReason(m.Reason),
		Shift:       inventory.Shift(m.Shift),
		ApprovedBy:  m.ApprovedBy,
	}
}

// WasteModelFromDomain creates a persistence model from a domain Waste
func WasteModelFromDomain(w *inventory.Waste) *WasteModel {
	m := &WasteModel{
		OccurredAt:  w.OccurredAt,
		ProductID:   w.ProductID,
		LotID:       w.LotID,
		Qty:         w.Qty,
		UnitCostEst: w.UnitCostEst,
		Reason:      string(w.Reason),
		Shift:       string(w.Shift),
		ApprovedBy:  w.ApprovedBy,
	}
	m.FromDomainBaseEntity(w.BaseEntity)
	return m
}

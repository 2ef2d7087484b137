package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// SaleModel is the persistence model for sales
type SaleModel struct {
	BaseModel
	SoldAt        time.Time       `gorm:"not null;index"`
	Channel       string          `gorm:"type:varchar(30);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	ReceiptNo     string          `gorm:"type:varchar(50)"`
	Total         decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"`
	Items         []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleItemModel is the persistence model for sale items
type SaleItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LotID     *uuid.UUID      `gorm:"type:uuid"`
	Qty       int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	PromoID   *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem
func (m *SaleItemModel) ToDomain() trade.SaleItem {
	return trade.SaleItem{
		ID:        m.ID,
		SaleID:    m.SaleID,
		ProductID: m.ProductID,
		LotID:     m.LotID,
		Qty:       m.Qty,
		UnitPrice: m.UnitPrice,
		PromoID:   m.PromoID,
	}
}

// ToDomain converts the persistence model to a domain Sale. Items are only
// present when they were preloaded.
func (m *SaleModel) ToDomain() *trade.Sale {
	s := &trade.Sale{
		BaseEntity:    m.BaseModel.ToDomain(),
		SoldAt:        m.SoldAt,
		Channel:       m.Channel,
		PaymentMethod: trade.PaymentMethod(m.PaymentMethod),
		ReceiptNo:     m.ReceiptNo,
		Total:         m.Total,
	}
	if len(m.Items) > 0 {
		s.Items = make([]trade.SaleItem, len(m.Items))
		for i := range m.Items {
			s.Items[i] = m.Items[i].ToDomain()
		}
	}
	return s
}

// SaleModelFromDomain creates a persistence model, items included, from a domain Sale
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		SoldAt:        s.SoldAt,
		Channel:       s.Channel,
		PaymentMethod: string(s.PaymentMethod),
		ReceiptNo:     s.ReceiptNo,
		Total:         s.Total,
		Items:         make([]SaleItemModel, len(s.Items)),
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	for i, item := range s.Items {
		m.Items[i] = SaleItemModel{
			ID:        item.ID,
			SaleID:    s.ID,
			ProductID: item.ProductID,
			LotID:     item.LotID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			PromoID:   item.PromoID,
		}
	}
	return m
}

package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
)

// SupplierModel is the persistence model for suppliers
type SupplierModel struct {
	BaseModel
	Name      string `gorm:"type:varchar(200);not null"`
	Contact   string `gorm:"type:varchar(200)"`
	Frequency string `gorm:"type:varchar(20);not null;default:'semanal'"`
	Notes     string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier
func (m *SupplierModel) ToDomain() *catalog.Supplier {
	return &catalog.Supplier{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Contact:    m.Contact,
		Frequency:  catalog.DeliveryFrequency(m.Frequency),
		Notes:      m.Notes,
	}
}

// SupplierModelFromDomain creates a persistence model from a domain Supplier
func SupplierModelFromDomain(s *catalog.Supplier) *SupplierModel {
	m := &SupplierModel{
		Name:      s.Name,
		Contact:   s.Contact,
		Frequency: string(s.Frequency),
		Notes:     s.Notes,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}

// ProductModel is the persistence model for products
type ProductModel struct {
	BaseModel
	SKU           string          `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Name          string          `gorm:"type:varchar(200);not null"`
	Category      string          `gorm:"type:varchar(100);index"`
	Type          string          `gorm:"type:varchar(20);not null"`
	ShelfLifeDays int             `gorm:"not null;default:0"`
	UnitCost      decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	MinStock      *int
	SupplierID    *uuid.UUID `gorm:"type:uuid;index"`
	UnitFormat    string     `gorm:"type:varchar(20);not null;default:'unidad'"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:    m.BaseModel.ToDomain(),
		SKU:           m.SKU,
		Name:          m.Name,
		Category:      m.Category,
		Type:          catalog.ProductType(m.Type),
		ShelfLifeDays: m.ShelfLifeDays,
		UnitCost:      m.UnitCost,
		SalePrice:     m.SalePrice,
		MinStock:      m.MinStock,
		SupplierID:    m.SupplierID,
		UnitFormat:    m.UnitFormat,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		SKU:           p.SKU,
		Name:          p.Name,
		Category:      p.Category,
		Type:          string(p.Type),
		ShelfLifeDays: p.ShelfLifeDays,
		UnitCost:      p.UnitCost,
		SalePrice:     p.SalePrice,
		MinStock:      p.MinStock,
		SupplierID:    p.SupplierID,
		UnitFormat:    p.UnitFormat,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

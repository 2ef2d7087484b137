package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// ProductType classifies how a product is produced or stored
type ProductType string

const (
	ProductTypePrepared    ProductType = "preparado"
	ProductTypePackaged    ProductType = "empacado"
	ProductTypeFrozen      ProductType = "congelado"
	ProductTypeRawMaterial ProductType = "materia prima"
	ProductTypeOther       ProductType = "otro"
)

// IsValid reports whether t is a known product type
func (t ProductType) IsValid() bool {
	switch t {
	case ProductTypePrepared, ProductTypePackaged, ProductTypeFrozen, ProductTypeRawMaterial, ProductTypeOther:
		return true
	}
	return false
}

// DefaultShelfLifeDays is applied to lots when the product has no shelf life configured
const DefaultShelfLifeDays = 3

// Product represents a sellable SKU
type Product struct {
	shared.BaseEntity
	SKU           string
	Name          string
	Category      string
	Type          ProductType
	ShelfLifeDays int
	UnitCost      decimal.Decimal
	SalePrice     decimal.Decimal
	MinStock      *int
	SupplierID    *uuid.UUID
	UnitFormat    string
}

// ProductDetails carries the editable attributes of a product
type ProductDetails struct {
	Name          string
	Category      string
	Type          ProductType
	ShelfLifeDays int
	UnitCost      decimal.Decimal
	SalePrice     decimal.Decimal
	MinStock      *int
	SupplierID    *uuid.UUID
	UnitFormat    string
}

// NewProduct creates a new product
func NewProduct(sku string, details ProductDetails) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}

	p := &Product{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        strings.ToUpper(strings.TrimSpace(sku)),
	}
	if err := p.apply(details); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the editable attributes of the product
func (p *Product) Update(details ProductDetails) error {
	if err := p.apply(details); err != nil {
		return err
	}
	p.Touch()
	return nil
}

func (p *Product) apply(d ProductDetails) error {
	if err := validateProductName(d.Name); err != nil {
		return err
	}
	if err := validatePrices(d.UnitCost, d.SalePrice); err != nil {
		return err
	}
	if d.ShelfLifeDays < 0 {
		return shared.NewDomainError("INVALID_SHELF_LIFE", "Shelf life cannot be negative")
	}
	if d.MinStock != nil && *d.MinStock < 0 {
		return shared.NewDomainError("INVALID_MIN_STOCK", "Minimum stock cannot be negative")
	}
	if d.Type == "" {
		d.Type = ProductTypeOther
	}
	if !d.Type.IsValid() {
		return shared.NewDomainError("INVALID_PRODUCT_TYPE", "Unknown product type: "+string(d.Type))
	}
	if d.UnitFormat == "" {
		d.UnitFormat = "unidad"
	}

	p.Name = strings.TrimSpace(d.Name)
	p.Category = strings.TrimSpace(d.Category)
	p.Type = d.Type
	p.ShelfLifeDays = d.ShelfLifeDays
	p.UnitCost = d.UnitCost
	p.SalePrice = d.SalePrice
	p.MinStock = d.MinStock
	p.SupplierID = d.SupplierID
	p.UnitFormat = d.UnitFormat
	return nil
}

// SetPrices updates cost and sale price
func (p *Product) SetPrices(unitCost, salePrice decimal.Decimal) error {
	if err := validatePrices(unitCost, salePrice); err != nil {
		return err
	}
	p.UnitCost = unitCost
	p.SalePrice = salePrice
	p.Touch()
	return nil
}

// HasCost reports whether the product has a positive unit cost, which is
// required for any margin computation.
func (p *Product) HasCost() bool {
	return p.UnitCost.IsPositive()
}

// MarginAt returns the markup fraction (price - cost) / cost for the given price.
// The second return value is false when the product has no positive cost.
func (p *Product) MarginAt(price decimal.Decimal) (decimal.Decimal, bool) {
	if !p.HasCost() {
		return decimal.Zero, false
	}
	return price.Sub(p.UnitCost).Div(p.UnitCost), true
}

// CurrentMargin returns the margin at the current sale price
func (p *Product) CurrentMargin() (decimal.Decimal, bool) {
	return p.MarginAt(p.SalePrice)
}

// MinimumPriceFor returns the lowest price that still yields the required margin
func (p *Product) MinimumPriceFor(required decimal.Decimal) decimal.Decimal {
	return p.UnitCost.Mul(decimal.NewFromInt(1).Add(required))
}

// ExpirationFrom derives a lot expiration from the reception date
func (p *Product) ExpirationFrom(receivedAt time.Time) time.Time {
	days := p.ShelfLifeDays
	if days <= 0 {
		days = DefaultShelfLifeDays
	}
	return receivedAt.AddDate(0, 0, days)
}

func validateSKU(sku string) error {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validatePrices(unitCost, salePrice decimal.Decimal) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Unit cost cannot be negative")
	}
	if salePrice.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Sale price cannot be negative")
	}
	return nil
}

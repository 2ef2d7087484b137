package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
)

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU           string          `json:"sku" binding:"required,min=1,max=50"`
	Name          string          `json:"name" binding:"required,min=1,max=200"`
	Category      string          `json:"category" binding:"max=100"`
	Type          string          `json:"type" binding:"omitempty,oneof=preparado empacado congelado 'materia prima' otro"`
	ShelfLifeDays int             `json:"shelf_life_days" binding:"min=0,max=3650"`
	UnitCost      decimal.Decimal `json:"unit_cost" binding:"dec_nonneg"`
	SalePrice     decimal.Decimal `json:"sale_price" binding:"dec_nonneg"`
	MinStock      *int            `json:"min_stock" binding:"omitempty,min=0"`
	SupplierID    *uuid.UUID      `json:"supplier_id"`
	UnitFormat    string          `json:"unit_format" binding:"max=50"`
}

// UpdateProductRequest represents a partial product update. Omitted fields keep their value.
type UpdateProductRequest struct {
	Name          *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Category      *string          `json:"category" binding:"omitempty,max=100"`
	Type          *string          `json:"type" binding:"omitempty,oneof=preparado empacado congelado 'materia prima' otro"`
	ShelfLifeDays *int             `json:"shelf_life_days" binding:"omitempty,min=0,max=3650"`
	UnitCost      *decimal.Decimal `json:"unit_cost" binding:"omitempty,dec_nonneg"`
	SalePrice     *decimal.Decimal `json:"sale_price" binding:"omitempty,dec_nonneg"`
	MinStock      *int             `json:"min_stock" binding:"omitempty,min=0"`
	SupplierID    *uuid.UUID       `json:"supplier_id"`
	UnitFormat    *string          `json:"unit_format" binding:"omitempty,max=50"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID            uuid.UUID        `json:"id"`
	SKU           string           `json:"sku"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	Type          string           `json:"type"`
	ShelfLifeDays int              `json:"shelf_life_days"`
	UnitCost      decimal.Decimal  `json:"unit_cost"`
	SalePrice     decimal.Decimal  `json:"sale_price"`
	Margin        *decimal.Decimal `json:"margin,omitempty"`
	MinStock      *int             `json:"min_stock,omitempty"`
	SupplierID    *uuid.UUID       `json:"supplier_id,omitempty"`
	UnitFormat    string           `json:"unit_format"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ToProductResponse converts a domain product to a response
func ToProductResponse(p *catalog.Product) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
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
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if m, ok := p.CurrentMargin(); ok {
		m = m.Round(4)
		resp.Margin = &m
	}
	return resp
}

// ProductListFilter represents filter options for product listings
type ProductListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SupplierRequest creates or replaces a supplier
type SupplierRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=200"`
	Contact   string `json:"contact" binding:"max=200"`
	Frequency string `json:"frequency" binding:"omitempty,oneof=semanal quincenal mensual 'bajo demanda'"`
	Notes     string `json:"notes" binding:"max=2000"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Frequency string    `json:"frequency"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToSupplierResponse converts a domain supplier to a response
func ToSupplierResponse(s *catalog.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Contact:   s.Contact,
		Frequency: string(s.Frequency),
		Notes:     s.Notes,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	supplierRepo catalog.SupplierRepository
	lotRepo      inventory.LotRepository
	recorder     *appaudit.Recorder
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	supplierRepo catalog.SupplierRepository,
	lotRepo inventory.LotRepository,
	recorder *appaudit.Recorder,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		lotRepo:      lotRepo,
		recorder:     recorder,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, req.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}

	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	product, err := catalog.NewProduct(req.SKU, catalog.ProductDetails{
		Name:          req.Name,
		Category:      req.Category,
		Type:          catalog.ProductType(req.Type),
		ShelfLifeDays: req.ShelfLifeDays,
		UnitCost:      req.UnitCost,
		SalePrice:     req.SalePrice,
		MinStock:      req.MinStock,
		SupplierID:    req.SupplierID,
		UnitFormat:    req.UnitFormat,
	})
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.recorder.Created(ctx, audit.EntityProduct, product.ID, map[string]any{
		"sku":        product.SKU,
		"name":       product.Name,
		"unit_cost":  product.UnitCost.String(),
		"sale_price": product.SalePrice.String(),
	})

	resp := ToProductResponse(product)
	return &resp, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// List lists products ordered by SKU
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, error) {
	products, err := s.productRepo.FindAll(ctx, shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Search:   filter.Search,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}.Normalize())
	if err != nil {
		return nil, err
	}
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out, nil
}

// Update applies a partial update to a product. Price changes are recorded
// with their previous values.
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := catalog.ProductDetails{
		Name:          product.Name,
		Category:      product.Category,
		Type:          product.Type,
		ShelfLifeDays: product.ShelfLifeDays,
		UnitCost:      product.UnitCost,
		SalePrice:     product.SalePrice,
		MinStock:      product.MinStock,
		SupplierID:    product.SupplierID,
		UnitFormat:    product.UnitFormat,
	}
	if req.Name != nil {
		details.Name = *req.Name
	}
	if req.Category != nil {
		details.Category = *req.Category
	}
	if req.Type != nil {
		details.Type = catalog.ProductType(*req.Type)
	}
	if req.ShelfLifeDays != nil {
		details.ShelfLifeDays = *req.ShelfLifeDays
	}
	if req.UnitCost != nil {
		details.UnitCost = *req.UnitCost
	}
	if req.SalePrice != nil {
		details.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		details.MinStock = req.MinStock
	}
	if req.SupplierID != nil {
		if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
			return nil, err
		}
		details.SupplierID = req.SupplierID
	}
	if req.UnitFormat != nil {
		details.UnitFormat = *req.UnitFormat
	}

	diff := map[string]any{}
	if !details.UnitCost.Equal(product.UnitCost) {
		diff["unit_cost"] = map[string]any{"before": product.UnitCost.String(), "after": details.UnitCost.String()}
	}
	if !details.SalePrice.Equal(product.SalePrice) {
		diff["sale_price"] = map[string]any{"before": product.SalePrice.String(), "after": details.SalePrice.String()}
	}
	if details.Name != product.Name {
		diff["name"] = map[string]any{"before": product.Name, "after": details.Name}
	}
	if details.Category != product.Category {
		diff["category"] = map[string]any{"before": product.Category, "after": details.Category}
	}

	if err := product.Update(details); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.recorder.Updated(ctx, audit.EntityProduct, product.ID, diff)

	resp := ToProductResponse(product)
	return &resp, nil
}

// Delete deletes a product. Products that still have lots cannot be deleted;
// their lots must be purged first.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	lots, err := s.lotRepo.FindAll(ctx, inventory.LotFilter{
		Filter:    shared.Filter{Page: 1, PageSize: 1},
		ProductID: &id,
	})
	if err != nil {
		return err
	}
	if len(lots) > 0 {
		return shared.NewDomainError("INVALID_STATE", "Product has lots and cannot be deleted")
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recorder.Deleted(ctx, audit.EntityProduct, id, map[string]any{"sku": product.SKU})
	return nil
}

func (s *ProductService) checkSupplier(ctx context.Context, supplierID *uuid.UUID) error {
	if supplierID == nil {
		return nil
	}
	if _, err := s.supplierRepo.FindByID(ctx, *supplierID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("INVALID_SUPPLIER", fmt.Sprintf("Supplier %s not found", supplierID))
		}
		return err
	}
	return nil
}

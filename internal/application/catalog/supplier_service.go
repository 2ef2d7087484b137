package catalog

import (
	"context"

	"github.com/google/uuid"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// SupplierService handles supplier maintenance
type SupplierService struct {
	supplierRepo catalog.SupplierRepository
	recorder     *appaudit.Recorder
}

// NewSupplierService creates a new SupplierService
func NewSupplierService(supplierRepo catalog.SupplierRepository, recorder *appaudit.Recorder) *SupplierService {
	return &SupplierService{supplierRepo: supplierRepo, recorder: recorder}
}

// Create creates a supplier
func (s *SupplierService) Create(ctx context.Context, req SupplierRequest) (*SupplierResponse, error) {
	supplier, err := catalog.NewSupplier(req.Name, req.Contact, catalog.DeliveryFrequency(req.Frequency), req.Notes)
	if err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.recorder.Created(ctx, audit.EntitySupplier, supplier.ID, map[string]any{"name": supplier.Name})
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// GetByID retrieves a supplier
func (s *SupplierService) GetByID(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// List lists suppliers by name
func (s *SupplierService) List(ctx context.Context, filter shared.Filter) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx, filter.Normalize())
	if err != nil {
		return nil, err
	}
	out := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = ToSupplierResponse(&suppliers[i])
	}
	return out, nil
}

// Update replaces a supplier's attributes
func (s *SupplierService) Update(ctx context.Context, id uuid.UUID, req SupplierRequest) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := supplier.Name
	if err := supplier.Update(req.Name, req.Contact, catalog.DeliveryFrequency(req.Frequency), req.Notes); err != nil {
		return nil, err
	}
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	s.recorder.Updated(ctx, audit.EntitySupplier, supplier.ID, appaudit.Change("name", before, supplier.Name))
	resp := ToSupplierResponse(supplier)
	return &resp, nil
}

// Delete removes a supplier. Lots and products keep their supplier reference
// cleared by the database.
func (s *SupplierService) Delete(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.supplierRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Deleted(ctx, audit.EntitySupplier, id, map[string]any{"name": supplier.Name})
	return nil
}

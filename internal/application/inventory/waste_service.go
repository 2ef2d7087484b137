package inventory

import (
	"context"
	"time"

	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/telemetry"
)

// WasteService registers waste. Waste records never change lot quantities;
// spoiled lots are discarded separately through LotService.
type WasteService struct {
	wasteRepo   inventory.WasteRepository
	lotRepo     inventory.LotRepository
	productRepo catalog.ProductRepository
	recorder    *appaudit.Recorder
	metrics     *telemetry.InventoryMetrics
	now         func() time.Time
}

// NewWasteService creates a new WasteService
func NewWasteService(
	wasteRepo inventory.WasteRepository,
	lotRepo inventory.LotRepository,
	productRepo catalog.ProductRepository,
	recorder *appaudit.Recorder,
) *WasteService {
	return &WasteService{
		wasteRepo:   wasteRepo,
		lotRepo:     lotRepo,
		productRepo: productRepo,
		recorder:    recorder,
		now:         time.Now,
	}
}

// SetMetrics sets the inventory metrics collector
func (s *WasteService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// RegisterWaste records wasted units. The estimated unit cost defaults to the
// referenced lot's cost, or the product cost when no lot is given.
func (s *WasteService) RegisterWaste(ctx context.Context, req RegisterWasteRequest) (*WasteResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	unitCost := product.UnitCost
	if req.LotID != nil {
		lot, err := s.lotRepo.FindByID(ctx, *req.LotID)
		if err != nil {
			return nil, err
		}
		if lot.ProductID != product.ID {
			return nil, shared.NewDomainError("INVALID_LOT", "Lot does not belong to the product")
		}
		unitCost = lot.UnitCost
	}
	if req.UnitCostEst != nil {
		unitCost = *req.UnitCostEst
	}

	occurredAt := s.now()
	if req.OccurredAt != nil {
		occurredAt = *req.OccurredAt
	}

	waste, err := inventory.NewWaste(product.ID, req.LotID, req.Qty, unitCost,
		inventory.WasteReason(req.Reason), inventory.Shift(req.Shift), occurredAt)
	if err != nil {
		return nil, err
	}
	if actor := audit.ActorFromContext(ctx); actor != audit.SystemActor {
		waste.ApprovedBy = actor
	}
	if err := s.wasteRepo.Save(ctx, waste); err != nil {
		return nil, err
	}

	s.recorder.Created(ctx, audit.EntityWaste, waste.ID, map[string]any{
		"product_id": waste.ProductID.String(),
		"qty":        waste.Qty,
		"reason":     string(waste.Reason),
	})
	s.metrics.RecordWaste(ctx, string(waste.Reason), waste.Qty)

	resp := ToWasteResponse(waste)
	return &resp, nil
}

// ListWaste lists waste records, newest first
func (s *WasteService) ListWaste(ctx context.Context, filter WasteListFilter) ([]WasteResponse, error) {
	records, err := s.wasteRepo.FindAll(ctx, inventory.WasteFilter{
		Filter:    shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		ProductID: filter.ProductID,
		From:      filter.From,
		To:        filter.To,
	})
	if err != nil {
		return nil, err
	}
	out := make([]WasteResponse, len(records))
	for i := range records {
		out[i] = ToWasteResponse(&records[i])
	}
	return out, nil
}

package inventory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultAlertDaysExpiry is used when the alert_days_expiry setting is absent or malformed
const DefaultAlertDaysExpiry = 7

// LotService handles purchase receipt and lot administration
type LotService struct {
	lotRepo     inventory.LotRepository
	productRepo catalog.ProductRepository
	settings    setting.Repository
	txScope     TransactionScope
	recorder    *appaudit.Recorder
	metrics     *telemetry.InventoryMetrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewLotService creates a new LotService
func NewLotService(
	lotRepo inventory.LotRepository,
	productRepo catalog.ProductRepository,
	settings setting.Repository,
	txScope TransactionScope,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *LotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotService{
		lotRepo:     lotRepo,
		productRepo: productRepo,
		settings:    settings,
		txScope:     txScope,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// SetMetrics sets the inventory metrics collector
func (s *LotService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// ReceivePurchase records a supplier delivery and creates one vigente lot per line.
// Lot expiration defaults to reception plus the product shelf life and the lot
// code defaults to LOT-<SKU>-<YYYYMMDD>-<NNNN>.
func (s *LotService) ReceivePurchase(ctx context.Context, req ReceivePurchaseRequest) (*PurchaseResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Purchase requires at least one line")
	}

	receivedAt := s.now()
	if req.ReceivedAt != nil {
		receivedAt = *req.ReceivedAt
	}

	products, err := s.loadProducts(ctx, req.Lines)
	if err != nil {
		return nil, err
	}

	purchase := inventory.NewPurchase(receivedAt, req.SupplierID, req.DocRef)
	lots := make([]*inventory.Lot, 0, len(req.Lines))
	for i, line := range req.Lines {
		product := products[line.ProductID]

		unitCost := product.UnitCost
		if line.UnitCost != nil {
			unitCost = *line.UnitCost
		}
		expiration := line.Expiration
		if expiration == nil {
			e := product.ExpirationFrom(receivedAt)
			expiration = &e
		}
		lotCode := line.LotCode
		if lotCode == "" {
			lotCode = inventory.GenerateLotCode(product.SKU, receivedAt)
		}

		lot, err := inventory.NewLot(product.ID, lotCode, receivedAt, expiration, line.Qty, unitCost)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		purchase.AddLot(lot)
		lots = append(lots, lot)
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.PurchaseRepo().Save(ctx, purchase); err != nil {
			return err
		}
		return repos.LotRepo().SaveBatch(ctx, lots)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Created(ctx, audit.EntityPurchase, purchase.ID, map[string]any{
		"lots":       len(lots),
		"total_cost": purchase.TotalCost.String(),
		"doc_ref":    purchase.DocRef,
	})
	s.logger.Info("Purchase received",
		zap.String("purchase_id", purchase.ID.String()),
		zap.Int("lots", len(lots)),
		zap.String("total_cost", purchase.TotalCost.String()),
	)

	resp := &PurchaseResponse{
		ID:         purchase.ID,
		ReceivedAt: purchase.ReceivedAt,
		SupplierID: purchase.SupplierID,
		DocRef:     purchase.DocRef,
		TotalCost:  purchase.TotalCost,
		Lots:       make([]LotResponse, len(lots)),
	}
	for i, lot := range lots {
		resp.Lots[i] = ToLotResponse(lot)
	}
	return resp, nil
}

func (s *LotService) loadProducts(ctx context.Context, lines []PurchaseLineRequest) (map[uuid.UUID]*catalog.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}

	found, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Product %s not found", id))
		}
	}
	return byID, nil
}

// GetLot returns a lot by ID
func (s *LotService) GetLot(ctx context.Context, id uuid.UUID) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToLotResponse(lot)
	return &resp, nil
}

// ListLots lists lots, most recently received first
func (s *LotService) ListLots(ctx context.Context, filter LotListFilter) ([]LotResponse, error) {
	f := inventory.LotFilter{
		Filter:    shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize(),
		ProductID: filter.ProductID,
	}
	if filter.Status != "" {
		status := inventory.LotStatus(filter.Status)
		if !status.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown lot status: "+filter.Status)
		}
		f.Status = &status
	}

	lots, err := s.lotRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	return ToLotResponses(lots), nil
}

// ChangeLotStatus applies a manual status edit (vencido or descartado)
func (s *LotService) ChangeLotStatus(ctx context.Context, id uuid.UUID, req ChangeLotStatusRequest) (*LotResponse, error) {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	before := lot.Status
	if err := lot.ChangeStatus(inventory.LotStatus(req.Status)); err != nil {
		return nil, err
	}
	if err := s.lotRepo.TransitionStatus(ctx, id, before, lot.Status); err != nil {
		return nil, err
	}
	// reload so the response carries any decrement committed since the read
	if lot, err = s.lotRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}

	s.recorder.Updated(ctx, audit.EntityLot, lot.ID, appaudit.Change("status", string(before), string(lot.Status)))
	resp := ToLotResponse(lot)
	return &resp, nil
}

// ExpireLot marks a lot as vencido
func (s *LotService) ExpireLot(ctx context.Context, id uuid.UUID) (*LotResponse, error) {
	return s.ChangeLotStatus(ctx, id, ChangeLotStatusRequest{Status: string(inventory.LotStatusExpired)})
}

// DiscardLot marks a lot as descartado
func (s *LotService) DiscardLot(ctx context.Context, id uuid.UUID) (*LotResponse, error) {
	return s.ChangeLotStatus(ctx, id, ChangeLotStatusRequest{Status: string(inventory.LotStatusDiscarded)})
}

// PurgeLot deletes a lot. This is an explicit administrative action.
func (s *LotService) PurgeLot(ctx context.Context, id uuid.UUID) error {
	lot, err := s.lotRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.lotRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.recorder.Deleted(ctx, audit.EntityLot, id, map[string]any{
		"lot_code":    lot.LotCode,
		"qty_current": lot.QtyCurrent,
		"status":      string(lot.Status),
	})
	s.logger.Warn("Lot purged", zap.String("lot_id", id.String()), zap.String("lot_code", lot.LotCode))
	return nil
}

// ExpireDueLots marks every vigente lot whose expiration has passed as vencido.
// It is invoked by the scheduler; the core never triggers it on its own.
func (s *LotService) ExpireDueLots(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	result := &SweepResult{RanAt: now, Expired: make([]uuid.UUID, 0)}

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		due, err := repos.LotRepo().ListActiveExpiringBefore(ctx, now)
		if err != nil {
			return err
		}
		for i := range due {
			err := repos.LotRepo().TransitionStatus(ctx, due[i].ID, inventory.LotStatusActive, inventory.LotStatusExpired)
			if errors.Is(err, shared.ErrInvalidState) {
				// sold out by a sale that committed after the listing
				continue
			}
			if err != nil {
				return err
			}
			result.Expired = append(result.Expired, due[i].ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, id := range result.Expired {
		s.recorder.Updated(ctx, audit.EntityLot, id, appaudit.Change("status", string(inventory.LotStatusActive), string(inventory.LotStatusExpired)))
	}
	s.metrics.RecordLotsExpired(ctx, len(result.Expired))
	return result, nil
}

// ExpiringLots lists vigente lots expiring within days. A nil days reads the
// alert_days_expiry setting. Lots already past their date are included.
func (s *LotService) ExpiringLots(ctx context.Context, days *int) ([]ExpiringLotResponse, error) {
	horizon := s.alertDays(ctx)
	if days != nil {
		if *days < 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Days cannot be negative")
		}
		horizon = *days
	}

	lots, err := s.lotRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	window := time.Duration(horizon) * 24 * time.Hour
	out := make([]ExpiringLotResponse, 0)
	for i := range lots {
		lot := &lots[i]
		if !lot.ExpiresWithin(now, window) {
			continue
		}
		daysLeft, _ := lot.DaysUntilExpiry(now)
		out = append(out, ExpiringLotResponse{LotResponse: ToLotResponse(lot), DaysLeft: daysLeft})
	}
	return out, nil
}

func (s *LotService) alertDays(ctx context.Context) int {
	if s.settings == nil {
		return DefaultAlertDaysExpiry
	}
	raw, found, err := s.settings.Get(ctx, setting.KeyAlertDaysExpiry)
	if err != nil {
		s.logger.Warn("Failed to read setting, using default",
			zap.String("key", setting.KeyAlertDaysExpiry),
			zap.Error(err),
		)
		return DefaultAlertDaysExpiry
	}
	if !found {
		return DefaultAlertDaysExpiry
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		s.logger.Warn("Malformed setting, using default",
			zap.String("key", setting.KeyAlertDaysExpiry),
			zap.String("value", raw),
		)
		return DefaultAlertDaysExpiry
	}
	return days
}

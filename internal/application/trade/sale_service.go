package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	appinv "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const idempotencyKeyPrefix = "sale:"

// SaleService registers sales by allocating them against the lot ledger
type SaleService struct {
	productRepo catalog.ProductRepository
	promoRepo   pricing.PromoRepository
	saleRepo    trade.SaleRepository
	txScope     appinv.TransactionScope
	allocator   inventory.LotAllocator
	recorder    *appaudit.Recorder
	metrics     *telemetry.InventoryMetrics
	logger      *zap.Logger

	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration

	rejectOnShortfall bool
}

// NewSaleService creates a new SaleService using FEFO allocation.
// Shortfalls are rejected unless SetRejectOnShortfall(false) is called.
func NewSaleService(
	productRepo catalog.ProductRepository,
	promoRepo pricing.PromoRepository,
	saleRepo trade.SaleRepository,
	txScope appinv.TransactionScope,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		productRepo:       productRepo,
		promoRepo:         promoRepo,
		saleRepo:          saleRepo,
		txScope:           txScope,
		allocator:         inventory.NewFEFOAllocator(),
		recorder:          recorder,
		logger:            logger,
		idempotencyTTL:    shared.DefaultIdempotencyConfig().TTL,
		rejectOnShortfall: true,
	}
}

// SetMetrics sets the inventory metrics collector
func (s *SaleService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// SetIdempotencyStore enables Idempotency-Key handling
func (s *SaleService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	s.idempotency = store
	if ttl > 0 {
		s.idempotencyTTL = ttl
	}
}

// SetRejectOnShortfall sets the default shortfall policy
func (s *SaleService) SetRejectOnShortfall(reject bool) {
	s.rejectOnShortfall = reject
}

// SetAllocator replaces the lot allocator
func (s *SaleService) SetAllocator(a inventory.LotAllocator) {
	s.allocator = a
}

type pricedLine struct {
	product   *catalog.Product
	qty       int
	unitPrice decimal.Decimal
	promoID   *uuid.UUID
}

// RegisterSale allocates every line against vigente lots and records the sale
// with one item per consumed lot. Everything runs in one transaction: lots are
// locked per product in ascending product id order, decremented, and the sale is
// inserted. Any failure rolls back every decrement.
//
// With reject_on_shortfall (the default) a line that cannot be fully served
// fails the sale with ErrInsufficientStock. Otherwise the partial allocation is
// committed and the response reports fully_satisfied=false.
func (s *SaleService) RegisterSale(ctx context.Context, req RegisterSaleRequest) (*SaleResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Sale requires at least one line")
	}

	soldAt := time.Now()
	if req.SoldAt != nil {
		soldAt = *req.SoldAt
	}
	sale, err := trade.NewSale(soldAt, req.Channel, trade.PaymentMethod(req.PaymentMethod), req.ReceiptNo)
	if err != nil {
		return nil, err
	}

	lines, err := s.priceLines(ctx, req.Lines, soldAt)
	if err != nil {
		return nil, err
	}

	reject := s.rejectOnShortfall
	if req.RejectOnShortfall != nil {
		reject = *req.RejectOnShortfall
	}

	if err := s.claimIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	}

	allocations := make([]*inventory.Allocation, 0, len(lines))
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		for _, line := range lines {
			alloc, err := s.allocateLine(ctx, repos.LotRepo(), line, reject)
			if err != nil {
				return err
			}
			for _, take := range alloc.Takes {
				lotID := take.LotID
				if err := sale.AddItem(line.product.ID, &lotID, take.Qty, line.unitPrice, line.promoID); err != nil {
					return err
				}
			}
			allocations = append(allocations, alloc)
		}
		if len(sale.Items) == 0 {
			return shared.NewDomainError("INSUFFICIENT_STOCK", "No stock available for any line of the sale")
		}
		return repos.SaleRepo().Create(ctx, sale)
	})
	if err != nil {
		s.releaseIdempotencyKey(ctx, req.IdempotencyKey)
		if errors.Is(err, shared.ErrInsufficientStock) {
			s.logger.Info("Sale rejected on shortfall", zap.Error(err))
		}
		return nil, err
	}

	return s.completeSale(ctx, sale, allocations), nil
}

func (s *SaleService) allocateLine(ctx context.Context, lots inventory.LotRepository, line pricedLine, reject bool) (*inventory.Allocation, error) {
	active, err := lots.ListActiveByProductForUpdate(ctx, line.product.ID)
	if err != nil {
		return nil, err
	}
	pool := make([]*inventory.Lot, len(active))
	for i := range active {
		pool[i] = &active[i]
	}

	alloc, err := s.allocator.Allocate(line.product.ID, line.qty, pool)
	if err != nil {
		return nil, err
	}
	if !alloc.FullySatisfied && reject {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", line.product.SKU, alloc.Requested, alloc.Allocated))
	}

	for _, take := range alloc.Takes {
		if err := lots.Decrement(ctx, take.LotID, take.Qty); err != nil {
			return nil, fmt.Errorf("decrement lot %s: %w", take.LotCode, err)
		}
	}
	return alloc, nil
}

// priceLines loads the products of the request and resolves each unit price.
// Lines come back in ascending product id order, which is the lock order.
func (s *SaleService) priceLines(ctx context.Context, reqLines []SaleLineRequest, soldAt time.Time) ([]pricedLine, error) {
	ids := make([]uuid.UUID, 0, len(reqLines))
	seen := make(map[uuid.UUID]bool, len(reqLines))
	for _, l := range reqLines {
		if l.Qty <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Sale quantity must be positive")
		}
		if seen[l.ProductID] {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Product %s appears more than once", l.ProductID))
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]pricedLine, 0, len(reqLines))
	for _, l := range reqLines {
		product, ok := byID[l.ProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Product %s not found", l.ProductID))
		}
		price, err := s.unitPrice(ctx, product, l, soldAt)
		if err != nil {
			return nil, err
		}
		lines = append(lines, pricedLine{product: product, qty: l.Qty, unitPrice: price, promoID: l.PromoID})
	}

	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i].product.ID[:], lines[j].product.ID[:]) < 0
	})
	return lines, nil
}

// unitPrice is the explicit line price, else the promo price, else the product sale price
func (s *SaleService) unitPrice(ctx context.Context, product *catalog.Product, l SaleLineRequest, soldAt time.Time) (decimal.Decimal, error) {
	if l.UnitPrice != nil {
		return *l.UnitPrice, nil
	}
	if l.PromoID == nil || s.promoRepo == nil {
		return product.SalePrice, nil
	}

	promo, err := s.promoRepo.FindByID(ctx, *l.PromoID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, shared.NewDomainError("INVALID_PROMO", "Promotion not found")
		}
		return decimal.Zero, err
	}
	if !promo.IsActiveAt(soldAt) {
		return decimal.Zero, shared.NewDomainError("INVALID_PROMO", fmt.Sprintf("Promotion %q is not active", promo.Name))
	}

	switch promo.Type {
	case pricing.PromoTypePercent:
		return pricing.DiscountedPrice(product.SalePrice, promo.Value).Round(0), nil
	case pricing.PromoTypeFixedPrice:
		return promo.Value, nil
	default:
		return product.SalePrice, nil
	}
}

func (s *SaleService) claimIdempotencyKey(ctx context.Context, key string) error {
	if key == "" || s.idempotency == nil {
		return nil
	}
	fresh, err := s.idempotency.MarkProcessed(ctx, idempotencyKeyPrefix+key, s.idempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if !fresh {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *SaleService) releaseIdempotencyKey(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Release(context.WithoutCancel(ctx), idempotencyKeyPrefix+key); err != nil {
		s.logger.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *SaleService) completeSale(ctx context.Context, sale *trade.Sale, allocations []*inventory.Allocation) *SaleResponse {
	fully := true
	units, lots := 0, 0
	resp := ToSaleResponse(sale)
	resp.Allocations = make([]AllocationResponse, len(allocations))
	for i, a := range allocations {
		resp.Allocations[i] = ToAllocationResponse(a)
		if !a.FullySatisfied {
			fully = false
			s.metrics.RecordShortfall(ctx, a.ProductID.String(), a.Shortfall())
		}
		units += a.Allocated
		lots += len(a.Takes)
	}
	resp.FullySatisfied = &fully

	s.recorder.Created(ctx, audit.EntitySale, sale.ID, map[string]any{
		"total":           sale.Total.String(),
		"items":           len(sale.Items),
		"payment_method":  string(sale.PaymentMethod),
		"fully_satisfied": fully,
	})
	s.metrics.RecordSale(ctx, sale.Channel, sale.Total, units, lots, fully)
	s.logger.Info("Sale registered",
		zap.String("sale_id", sale.ID.String()),
		zap.String("total", sale.Total.String()),
		zap.Int("lots", lots),
		zap.Bool("fully_satisfied", fully),
		zap.String("allocator", s.allocator.Name()),
	)
	return &resp
}

// GetSale returns a sale with its items
func (s *SaleService) GetSale(ctx context.Context, id uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToSaleResponse(sale)
	return &resp, nil
}

// ListSales lists sales, newest first
func (s *SaleService) ListSales(ctx context.Context, filter SaleListFilter) ([]SaleResponse, error) {
	sales, err := s.saleRepo.FindAll(ctx, shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize())
	if err != nil {
		return nil, err
	}
	out := make([]SaleResponse, len(sales))
	for i := range sales {
		out[i] = ToSaleResponse(&sales[i])
	}
	return out, nil
}

// ChangePaymentMethod corrects the payment method of a recorded sale
func (s *SaleService) ChangePaymentMethod(ctx context.Context, id uuid.UUID, req ChangePaymentMethodRequest) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	before := sale.PaymentMethod
	if err := sale.ChangePaymentMethod(trade.PaymentMethod(req.PaymentMethod)); err != nil {
		return nil, err
	}
	if err := s.saleRepo.UpdatePaymentMethod(ctx, sale); err != nil {
		return nil, err
	}
	s.recorder.Updated(ctx, audit.EntitySale, sale.ID, appaudit.Change("payment_method", string(before), string(sale.PaymentMethod)))
	resp := ToSaleResponse(sale)
	return &resp, nil
}

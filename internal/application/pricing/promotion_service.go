package pricing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PromotionService creates promotions behind the margin guard
type PromotionService struct {
	promoRepo   pricing.PromoRepository
	productRepo catalog.ProductRepository
	resolver    pricing.MinMarginResolver
	recorder    *appaudit.Recorder
	metrics     *telemetry.InventoryMetrics
	logger      *zap.Logger
}

// NewPromotionService creates a new PromotionService
func NewPromotionService(
	promoRepo pricing.PromoRepository,
	productRepo catalog.ProductRepository,
	resolver pricing.MinMarginResolver,
	recorder *appaudit.Recorder,
	logger *zap.Logger,
) *PromotionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PromotionService{
		promoRepo:   promoRepo,
		productRepo: productRepo,
		resolver:    resolver,
		recorder:    recorder,
		logger:      logger,
	}
}

// SetMetrics sets the inventory metrics collector
func (s *PromotionService) SetMetrics(m *telemetry.InventoryMetrics) {
	s.metrics = m
}

// Create validates and stores a promotion. A percent promotion that would take
// any costed product below its minimum margin is rejected with a
// *pricing.MarginViolationError and nothing is stored.
func (s *PromotionService) Create(ctx context.Context, req CreatePromoRequest) (*PromoResponse, error) {
	promo, err := pricing.NewPromo(req.Name, pricing.PromoType(req.Type), req.Value, req.StartsAt, req.EndsAt, req.Notes)
	if err != nil {
		return nil, err
	}

	if promo.RequiresMarginGuard() {
		products, err := s.productRepo.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		if err := pricing.GuardPromo(ctx, promo, products, s.resolver); err != nil {
			var mv *pricing.MarginViolationError
			if errors.As(err, &mv) {
				s.metrics.RecordPromoRejected(ctx, len(mv.Violations))
				s.logger.Info("Promotion rejected by margin guard",
					zap.String("name", promo.Name),
					zap.String("discount_percent", promo.Value.String()),
					zap.Int("violations", len(mv.Violations)),
				)
			}
			return nil, err
		}
	}

	if err := s.promoRepo.Save(ctx, promo); err != nil {
		return nil, err
	}

	s.recorder.Created(ctx, audit.EntityPromo, promo.ID, map[string]any{
		"name":  promo.Name,
		"type":  string(promo.Type),
		"value": promo.Value.String(),
	})

	resp := ToPromoResponse(promo)
	return &resp, nil
}

// Validate runs the margin guard for a percent discount without storing anything
func (s *PromotionService) Validate(ctx context.Context, req ValidatePromoRequest) (*ValidationResponse, error) {
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Discount percent must be between 0 and 100")
	}
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	violations := pricing.ValidatePercentPromo(ctx, products, req.DiscountPercent, s.resolver)
	return &ValidationResponse{
		Valid:      len(violations) == 0,
		Violations: ToViolationResponses(violations),
	}, nil
}

// GetByID retrieves a promotion
func (s *PromotionService) GetByID(ctx context.Context, id uuid.UUID) (*PromoResponse, error) {
	promo, err := s.promoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPromoResponse(promo)
	return &resp, nil
}

// List lists promotions, latest start first
func (s *PromotionService) List(ctx context.Context, filter shared.Filter) ([]PromoResponse, error) {
	promos, err := s.promoRepo.FindAll(ctx, filter.Normalize())
	if err != nil {
		return nil, err
	}
	out := make([]PromoResponse, len(promos))
	for i := range promos {
		out[i] = ToPromoResponse(&promos[i])
	}
	return out, nil
}

// Delete removes a promotion
func (s *PromotionService) Delete(ctx context.Context, id uuid.UUID) error {
	promo, err := s.promoRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.promoRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.recorder.Deleted(ctx, audit.EntityPromo, id, map[string]any{"name": promo.Name})
	return nil
}

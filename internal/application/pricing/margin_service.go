package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// MarginService administers minimum margins. The global minimum is the
// margin_min_percent setting; category and product minimums are rules.
type MarginService struct {
	ruleRepo    pricing.MarginRuleRepository
	settings    setting.Repository
	productRepo catalog.ProductRepository
	resolver    pricing.MinMarginResolver
	recorder    *appaudit.Recorder
}

// NewMarginService creates a new MarginService
func NewMarginService(
	ruleRepo pricing.MarginRuleRepository,
	settings setting.Repository,
	productRepo catalog.ProductRepository,
	resolver pricing.MinMarginResolver,
	recorder *appaudit.Recorder,
) *MarginService {
	return &MarginService{
		ruleRepo:    ruleRepo,
		settings:    settings,
		productRepo: productRepo,
		resolver:    resolver,
		recorder:    recorder,
	}
}

// SetGlobal stores the global minimum margin
func (s *MarginService) SetGlobal(ctx context.Context, req SetMarginRequest) (*MarginRuleResponse, error) {
	if err := pricing.ValidateMarginRate(req.MinPercent); err != nil {
		return nil, err
	}

	before, _, err := s.settings.Get(ctx, setting.KeyMarginMinPercent)
	if err != nil {
		return nil, err
	}
	if err := s.settings.Set(ctx, setting.KeyMarginMinPercent, req.MinPercent.String()); err != nil {
		return nil, err
	}

	s.recorder.Record(ctx, audit.EntitySetting, nil, audit.ActionUpdate, map[string]any{
		"key":    setting.KeyMarginMinPercent,
		"before": before,
		"after":  req.MinPercent.String(),
	})
	return &MarginRuleResponse{Scope: string(pricing.ScopeKindGlobal), MinPercent: req.MinPercent}, nil
}

// UpsertCategoryRule sets the minimum margin of a category
func (s *MarginService) UpsertCategoryRule(ctx context.Context, category string, req SetMarginRequest) (*MarginRuleResponse, error) {
	return s.upsert(ctx, pricing.CategoryScope{Name: category}, req.MinPercent)
}

// UpsertProductRule sets the minimum margin of a single product
func (s *MarginService) UpsertProductRule(ctx context.Context, productID uuid.UUID, req SetMarginRequest) (*MarginRuleResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.upsert(ctx, pricing.ProductScope{ProductID: productID}, req.MinPercent)
}

func (s *MarginService) upsert(ctx context.Context, scope pricing.MarginScope, rate decimal.Decimal) (*MarginRuleResponse, error) {
	if c, ok := scope.(pricing.CategoryScope); ok && c.Name == "" {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Category scope requires a category name")
	}
	rule, err := pricing.NewMarginRule(scope, rate)
	if err != nil {
		return nil, err
	}

	before, found, err := s.ruleRepo.FindRate(ctx, scope)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Upsert(ctx, rule); err != nil {
		return nil, err
	}

	diff := map[string]any{"scope": scope.String(), "after": rate.String()}
	action := audit.ActionCreate
	if found {
		action = audit.ActionUpdate
		diff["before"] = before.String()
	}
	s.recorder.Record(ctx, audit.EntityMarginRule, nil, action, diff)

	return toRuleResponse(rule), nil
}

// DeleteCategoryRule removes a category rule so the category falls back to the global minimum
func (s *MarginService) DeleteCategoryRule(ctx context.Context, category string) error {
	return s.delete(ctx, pricing.CategoryScope{Name: category})
}

// DeleteProductRule removes a product rule
func (s *MarginService) DeleteProductRule(ctx context.Context, productID uuid.UUID) error {
	return s.delete(ctx, pricing.ProductScope{ProductID: productID})
}

func (s *MarginService) delete(ctx context.Context, scope pricing.MarginScope) error {
	_, found, err := s.ruleRepo.FindRate(ctx, scope)
	if err != nil {
		return err
	}
	if !found {
		return shared.ErrNotFound
	}
	if err := s.ruleRepo.DeleteByScope(ctx, scope); err != nil {
		return err
	}
	s.recorder.Record(ctx, audit.EntityMarginRule, nil, audit.ActionDelete, map[string]any{"scope": scope.String()})
	return nil
}

// ListRules lists the global minimum (when configured) followed by every rule
func (s *MarginService) ListRules(ctx context.Context) ([]MarginRuleResponse, error) {
	out := make([]MarginRuleResponse, 0)

	raw, found, err := s.settings.Get(ctx, setting.KeyMarginMinPercent)
	if err != nil {
		return nil, err
	}
	if found {
		if rate, perr := decimal.NewFromString(raw); perr == nil {
			out = append(out, MarginRuleResponse{Scope: string(pricing.ScopeKindGlobal), MinPercent: rate})
		}
	}

	rules, err := s.ruleRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rules {
		out = append(out, *toRuleResponse(&rules[i]))
	}
	return out, nil
}

// ResolveForProduct returns the minimum margin that applies to a product and where it came from
func (s *MarginService) ResolveForProduct(ctx context.Context, productID uuid.UUID) (*ResolvedMarginResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	res := s.resolver.Resolve(ctx, product)
	resp := &ResolvedMarginResponse{
		ProductID:  product.ID,
		MinPercent: res.Rate,
		Source:     string(res.Source),
	}
	for _, skipped := range res.Skipped {
		resp.Skipped = append(resp.Skipped, string(skipped.Source))
	}
	return resp, nil
}

// BelowMinimum lists products priced under their minimum margin, lowest first
func (s *MarginService) BelowMinimum(ctx context.Context) ([]BelowMarginResponse, error) {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToBelowMarginResponses(pricing.BelowMarginReport(ctx, products, s.resolver)), nil
}

func toRuleResponse(rule *pricing.MarginRule) *MarginRuleResponse {
	updated := rule.UpdatedAt
	return &MarginRuleResponse{
		Scope:      string(rule.Scope.Kind()),
		Ref:        rule.Scope.Ref(),
		MinPercent: rule.MinPercent,
		UpdatedAt:  &updated,
	}
}

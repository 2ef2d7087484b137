package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// MaxMarginRate caps configurable minimum margins at 95%
var MaxMarginRate = decimal.RequireFromString("0.95")

// MarginRule overrides the minimum margin for a category or a product
type MarginRule struct {
	shared.BaseEntity
	Scope      MarginScope
	MinPercent decimal.Decimal // fraction, 0.30 means 30%
}

// NewMarginRule creates a rule for a category or product scope. The global
// minimum lives in the margin_min_percent setting, not in a rule row.
func NewMarginRule(scope MarginScope, minPercent decimal.Decimal) (*MarginRule, error) {
	if scope == nil {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Margin rule requires a scope")
	}
	if _, ok := scope.(GlobalScope); ok {
		return nil, shared.NewDomainError("INVALID_SCOPE", "Global margin is configured through settings")
	}
	if err := ValidateMarginRate(minPercent); err != nil {
		return nil, err
	}
	return &MarginRule{
		BaseEntity: shared.NewBaseEntity(),
		Scope:      scope,
		MinPercent: minPercent,
	}, nil
}

// ValidateMarginRate checks a margin fraction is within [0, MaxMarginRate]
func ValidateMarginRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(MaxMarginRate) {
		return shared.NewDomainError("INVALID_MARGIN", "Margin must be between 0 and 0.95")
	}
	return nil
}

// MarginRuleRepository persists category and product margin rules
type MarginRuleRepository interface {
	// FindRate returns the rule rate for scope. found is false when no rule
	// exists; err is reserved for lookup failures.
	FindRate(ctx context.Context, scope MarginScope) (rate decimal.Decimal, found bool, err error)

	// FindAll lists every rule
	FindAll(ctx context.Context) ([]MarginRule, error)

	// Upsert creates or replaces the rule for its scope
	Upsert(ctx context.Context, rule *MarginRule) error

	// DeleteByScope removes the rule for scope, if any
	DeleteByScope(ctx context.Context, scope MarginScope) error
}

package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
)

// DefaultMinMargin applies when no rule or setting provides a minimum margin
var DefaultMinMargin = decimal.RequireFromString("0.22")

// MarginSource tells which tier produced a resolved margin
type MarginSource string

const (
	SourceProduct  MarginSource = "product"
	SourceCategory MarginSource = "category"
	SourceSetting  MarginSource = "setting"
	SourceDefault  MarginSource = "default"
)

// RuleLookup finds the rule rate for a scope
type RuleLookup interface {
	FindRate(ctx context.Context, scope MarginScope) (decimal.Decimal, bool, error)
}

// SettingLookup reads a raw setting value
type SettingLookup interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// TierError records a tier that was skipped because its lookup failed
type TierError struct {
	Source MarginSource
	Err    error
}

// Resolution is the outcome of resolving a product's minimum margin
type Resolution struct {
	Rate    decimal.Decimal
	Source  MarginSource
	Skipped []TierError
}

// MinMarginResolver resolves the minimum margin required for a product
type MinMarginResolver interface {
	Resolve(ctx context.Context, product *catalog.Product) Resolution
}

// MarginResolver walks the precedence chain product rule, category rule,
// margin_min_percent setting, DefaultMinMargin. A failing or malformed tier
// is recorded in Resolution.Skipped and treated as absent.
type MarginResolver struct {
	rules    RuleLookup
	settings SettingLookup
}

// NewMarginResolver creates a resolver. Either lookup may be nil.
func NewMarginResolver(rules RuleLookup, settings SettingLookup) *MarginResolver {
	return &MarginResolver{rules: rules, settings: settings}
}

// Resolve implements MinMarginResolver
func (r *MarginResolver) Resolve(ctx context.Context, product *catalog.Product) Resolution {
	res := Resolution{}

	if r.rules != nil {
		for _, scope := range []MarginScope{ProductScope{ProductID: product.ID}, CategoryScope{Name: product.Category}} {
			if c, ok := scope.(CategoryScope); ok && c.Name == "" {
				continue
			}
			source := sourceFor(scope)
			rate, found, err := r.rules.FindRate(ctx, scope)
			if err != nil {
				res.Skipped = append(res.Skipped, TierError{Source: source, Err: err})
				continue
			}
			if !found {
				continue
			}
			if err := ValidateMarginRate(rate); err != nil {
				res.Skipped = append(res.Skipped, TierError{Source: source, Err: fmt.Errorf("rule %s: %w", scope, err)})
				continue
			}
			res.Rate, res.Source = rate, source
			return res
		}
	}

	if r.settings != nil {
		raw, found, err := r.settings.Get(ctx, setting.KeyMarginMinPercent)
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, TierError{Source: SourceSetting, Err: err})
		case found:
			rate, perr := decimal.NewFromString(raw)
			if perr == nil {
				perr = ValidateMarginRate(rate)
			}
			if perr == nil {
				res.Rate, res.Source = rate, SourceSetting
				return res
			}
			res.Skipped = append(res.Skipped, TierError{
				Source: SourceSetting,
				Err:    fmt.Errorf("malformed %s %q: %w", setting.KeyMarginMinPercent, raw, perr),
			})
		}
	}

	res.Rate, res.Source = DefaultMinMargin, SourceDefault
	return res
}

func sourceFor(scope MarginScope) MarginSource {
	switch scope.(type) {
	case ProductScope:
		return SourceProduct
	case CategoryScope:
		return SourceCategory
	default:
		return SourceSetting
	}
}

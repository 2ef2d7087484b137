package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

var hundred = decimal.NewFromInt(100)

// MarginViolation describes a product whose margin would fall below its minimum
type MarginViolation struct {
	ProductID     uuid.UUID
	SKU           string
	Name          string
	AdjustedPrice decimal.Decimal
	Realized      decimal.Decimal
	Required      decimal.Decimal
}

// MarginViolationError rejects an operation that breaches minimum margins.
// It matches shared.ErrMarginViolation with errors.Is.
type MarginViolationError struct {
	Violations []MarginViolation
}

func (e *MarginViolationError) Error() string {
	names := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		names = append(names, fmt.Sprintf("%s (req %s%%)", v.Name, v.Required.Mul(hundred).Round(0).String()))
	}
	return "promotion would breach minimum margin for: " + strings.Join(names, ", ")
}

func (e *MarginViolationError) Unwrap() error {
	return shared.ErrMarginViolation
}

// DiscountedPrice applies a percent discount to price
func DiscountedPrice(price, discountPercent decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Sub(discountPercent.Div(hundred)))
}

// ValidatePercentPromo checks every product with a positive cost against its
// resolved minimum margin at the discounted price and returns the violations.
func ValidatePercentPromo(ctx context.Context, products []catalog.Product, discountPercent decimal.Decimal, resolver MinMarginResolver) []MarginViolation {
	violations := make([]MarginViolation, 0)
	for i := range products {
		p := &products[i]
		if !p.HasCost() {
			continue
		}
		adjusted := DiscountedPrice(p.SalePrice, discountPercent)
		realized, _ := p.MarginAt(adjusted)
		required := resolver.Resolve(ctx, p).Rate
		if realized.LessThan(required) {
			violations = append(violations, MarginViolation{
				ProductID:     p.ID,
				SKU:           p.SKU,
				Name:          p.Name,
				AdjustedPrice: adjusted,
				Realized:      realized,
				Required:      required,
			})
		}
	}
	return violations
}

// GuardPromo returns a MarginViolationError when a percent promo would breach
// margins. Other promo types pass unchecked.
func GuardPromo(ctx context.Context, promo *Promo, products []catalog.Product, resolver MinMarginResolver) error {
	if !promo.RequiresMarginGuard() {
		return nil
	}
	if v := ValidatePercentPromo(ctx, products, promo.Value, resolver); len(v) > 0 {
		return &MarginViolationError{Violations: v}
	}
	return nil
}

// BelowMarginItem is a product priced under its minimum margin
type BelowMarginItem struct {
	ProductID         uuid.UUID
	SKU               string
	Name              string
	Category          string
	UnitCost          decimal.Decimal
	SalePrice         decimal.Decimal
	Realized          decimal.Decimal
	Required          decimal.Decimal
	SuggestedMinPrice decimal.Decimal
}

// BelowMarginReport lists products whose current price misses the resolved
// minimum margin, lowest margin first, with the whole-unit price that would fix it.
func BelowMarginReport(ctx context.Context, products []catalog.Product, resolver MinMarginResolver) []BelowMarginItem {
	items := make([]BelowMarginItem, 0)
	for i := range products {
		p := &products[i]
		realized, ok := p.CurrentMargin()
		if !ok {
			continue
		}
		required := resolver.Resolve(ctx, p).Rate
		if !realized.LessThan(required) {
			continue
		}
		items = append(items, BelowMarginItem{
			ProductID:         p.ID,
			SKU:               p.SKU,
			Name:              p.Name,
			Category:          p.Category,
			UnitCost:          p.UnitCost,
			SalePrice:         p.SalePrice,
			Realized:          realized,
			Required:          required,
			SuggestedMinPrice: p.MinimumPriceFor(required).Round(0),
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Realized.LessThan(items[j].Realized)
	})
	return items
}

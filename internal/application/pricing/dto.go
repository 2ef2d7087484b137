package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
)

// CreatePromoRequest represents a request to create a promotion
type CreatePromoRequest struct {
	Name     string          `json:"name" binding:"required,min=1,max=200"`
	Type     string          `json:"type" binding:"required,oneof=percent combo fixed_price"`
	Value    decimal.Decimal `json:"value"`
	StartsAt time.Time       `json:"starts_at" binding:"required"`
	EndsAt   time.Time       `json:"ends_at" binding:"required"`
	Notes    string          `json:"notes" binding:"max=2000"`
}

// PromoResponse represents a promotion in API responses
type PromoResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    time.Time       `json:"ends_at"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToPromoResponse converts a domain promotion to a response
func ToPromoResponse(p *pricing.Promo) PromoResponse {
	return PromoResponse{
		ID:        p.ID,
		Name:      p.Name,
		Type:      string(p.Type),
		Value:     p.Value,
		StartsAt:  p.StartsAt,
		EndsAt:    p.EndsAt,
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
}

// ValidatePromoRequest checks a percent discount against every product
type ValidatePromoRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// ViolationResponse is a product whose margin would fall under its minimum
type ViolationResponse struct {
	ProductID     uuid.UUID       `json:"product_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	AdjustedPrice decimal.Decimal `json:"adjusted_price"`
	Realized      decimal.Decimal `json:"realized"`
	Required      decimal.Decimal `json:"required"`
}

// ToViolationResponses converts guard violations to responses
func ToViolationResponses(violations []pricing.MarginViolation) []ViolationResponse {
	out := make([]ViolationResponse, len(violations))
	for i, v := range violations {
		out[i] = ViolationResponse{
			ProductID:     v.ProductID,
			SKU:           v.SKU,
			Name:          v.Name,
			AdjustedPrice: v.AdjustedPrice.Round(0),
			Realized:      v.Realized.Round(4),
			Required:      v.Required,
		}
	}
	return out
}

// ValidationResponse is the outcome of a dry-run promo validation
type ValidationResponse struct {
	Valid      bool                `json:"valid"`
	Violations []ViolationResponse `json:"violations"`
}

// SetMarginRequest sets a minimum margin fraction (0.30 = 30%)
type SetMarginRequest struct {
	MinPercent decimal.Decimal `json:"min_percent"`
}

// MarginRuleResponse represents a margin rule in API responses
type MarginRuleResponse struct {
	Scope      string          `json:"scope"`
	Ref        string          `json:"ref,omitempty"`
	MinPercent decimal.Decimal `json:"min_percent"`
	UpdatedAt  *time.Time      `json:"updated_at,omitempty"`
}

// ResolvedMarginResponse is the minimum margin that applies to a product
type ResolvedMarginResponse struct {
	ProductID  uuid.UUID       `json:"product_id"`
	MinPercent decimal.Decimal `json:"min_percent"`
	Source     string          `json:"source"`
	Skipped    []string        `json:"skipped,omitempty"`
}

// BelowMarginResponse is a product priced under its minimum margin
type BelowMarginResponse struct {
	ProductID         uuid.UUID       `json:"product_id"`
	SKU               string          `json:"sku"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	SalePrice         decimal.Decimal `json:"sale_price"`
	Realized          decimal.Decimal `json:"realized"`
	Required          decimal.Decimal `json:"required"`
	SuggestedMinPrice decimal.Decimal `json:"suggested_min_price"`
}

// ToBelowMarginResponses converts report items to responses
func ToBelowMarginResponses(items []pricing.BelowMarginItem) []BelowMarginResponse {
	out := make([]BelowMarginResponse, len(items))
	for i, item := range items {
		out[i] = BelowMarginResponse{
			ProductID:         item.ProductID,
			SKU:               item.SKU,
			Name:              item.Name,
			Category:          item.Category,
			UnitCost:          item.UnitCost,
			SalePrice:         item.SalePrice,
			Realized:          item.Realized.Round(4),
			Required:          item.Required,
			SuggestedMinPrice: item.SuggestedMinPrice,
		}
	}
	return out
}

package pricing

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// PromoType is the kind of promotion
type PromoType string

const (
	PromoTypePercent    PromoType = "percent"
	PromoTypeCombo      PromoType = "combo"
	PromoTypeFixedPrice PromoType = "fixed_price"
)

// IsValid reports whether t is a known promo type
func (t PromoType) IsValid() bool {
	switch t {
	case PromoTypePercent, PromoTypeCombo, PromoTypeFixedPrice:
		return true
	}
	return false
}

// Promo is a time-boxed price promotion
type Promo struct {
	shared.BaseEntity
	Name     string
	Type     PromoType
	Value    decimal.Decimal
	StartsAt time.Time
	EndsAt   time.Time
	Notes    string
}

// NewPromo creates a promotion. Margin checks are done by the guard before
// persisting, not here.
func NewPromo(name string, promoType PromoType, value decimal.Decimal, startsAt, endsAt time.Time, notes string) (*Promo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Promotion name cannot be empty")
	}
	if !promoType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROMO_TYPE", "Unknown promotion type: "+string(promoType))
	}
	if value.IsNegative() {
		return nil, shared.NewDomainError("INVALID_VALUE", "Promotion value cannot be negative")
	}
	if promoType == PromoTypePercent && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_VALUE", "Percent discount cannot exceed 100")
	}
	if !endsAt.After(startsAt) {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Promotion must end after it starts")
	}
	return &Promo{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Type:       promoType,
		Value:      value,
		StartsAt:   startsAt,
		EndsAt:     endsAt,
		Notes:      notes,
	}, nil
}

// RequiresMarginGuard reports whether creation must pass the margin guard.
// Only percent discounts are checked.
func (p *Promo) RequiresMarginGuard() bool {
	return p.Type == PromoTypePercent
}

// IsActiveAt reports whether the promotion runs at t
func (p *Promo) IsActiveAt(t time.Time) bool {
	return !t.Before(p.StartsAt) && t.Before(p.EndsAt)
}

// PromoRepository persists promotions
type PromoRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Promo, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Promo, error)
	Save(ctx context.Context, promo *Promo) error
	Delete(ctx context.Context, id uuid.UUID) error
}

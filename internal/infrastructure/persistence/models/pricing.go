package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
)

// MarginRuleModel is the persistence model for category and product margin rules
type MarginRuleModel struct {
	BaseModel
	ScopeKind  string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_margin_rules_scope"`
	ScopeRef   string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_margin_rules_scope"`
	MinPercent decimal.Decimal `gorm:"type:numeric(5,4);not null"`
}

// TableName returns the table name for GORM
func (MarginRuleModel) TableName() string {
	return "margin_rules"
}

// ToDomain converts the persistence model to a domain MarginRule
func (m *MarginRuleModel) ToDomain() (*pricing.MarginRule, error) {
	scope, err := pricing.ParseScope(m.ScopeKind, m.ScopeRef)
	if err != nil {
		return nil, err
	}
	return &pricing.MarginRule{
		BaseEntity: m.BaseModel.ToDomain(),
		Scope:      scope,
		MinPercent: m.MinPercent,
	}, nil
}

// MarginRuleModelFromDomain creates a persistence model from a domain MarginRule
func MarginRuleModelFromDomain(r *pricing.MarginRule) *MarginRuleModel {
	m := &MarginRuleModel{
		ScopeKind:  string(r.Scope.Kind()),
		ScopeRef:   r.Scope.Ref(),
		MinPercent: r.MinPercent,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// PromoModel is the persistence model for promotions
type PromoModel struct {
	BaseModel
	Name     string          `gorm:"type:varchar(200);not null"`
	Type     string          `gorm:"type:varchar(20);not null"`
	Value    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	StartsAt time.Time       `gorm:"not null;index"`
	EndsAt   time.Time       `gorm:"not null"`
	Notes    string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PromoModel) TableName() string {
	return "promos"
}

// ToDomain converts the persistence model to a domain Promo
func (m *PromoModel) ToDomain() *pricing.Promo {
	return &pricing.Promo{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Type:       pricing.PromoType(m.Type),
		Value:      m.Value,
		StartsAt:   m.StartsAt,
		EndsAt:     m.EndsAt,
		Notes:      m.Notes,
	}
}

// PromoModelFromDomain creates a persistence model from a domain Promo
func PromoModelFromDomain(p *pricing.Promo) *PromoModel {
	m := &PromoModel{
		Name:     p.Name,
		Type:     string(p.Type),
		Value:    p.Value,
		StartsAt: p.StartsAt,
		EndsAt:   p.EndsAt,
		Notes:    p.Notes,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMarginRuleRepository implements pricing.MarginRuleRepository using GORM.
// Rules are unique per (scope_kind, scope_ref).
type GormMarginRuleRepository struct {
	db *gorm.DB
}

// NewGormMarginRuleRepository creates a new GormMarginRuleRepository
func NewGormMarginRuleRepository(db *gorm.DB) *GormMarginRuleRepository {
	return &GormMarginRuleRepository{db: db}
}

// FindRate returns the rate of the rule for scope. found is false when no rule exists.
func (r *GormMarginRuleRepository) FindRate(ctx context.Context, scope pricing.MarginScope) (decimal.Decimal, bool, error) {
	var model models.MarginRuleModel
	err := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_ref = ?", string(scope.Kind()), scope.Ref()).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	return model.MinPercent, true, nil
}

// FindAll lists every rule, categories first then products
func (r *GormMarginRuleRepository) FindAll(ctx context.Context) ([]pricing.MarginRule, error) {
	var rows []models.MarginRuleModel
	if err := r.db.WithContext(ctx).Order("scope_kind ASC, scope_ref ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]pricing.MarginRule, 0, len(rows))
	for i := range rows {
		rule, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *rule)
	}
	return out, nil
}

// Upsert creates the rule or replaces the rate of the existing rule for its scope
func (r *GormMarginRuleRepository) Upsert(ctx context.Context, rule *pricing.MarginRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "scope_kind"}, {Name: "scope_ref"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_percent", "updated_at"}),
		}).
		Create(models.MarginRuleModelFromDomain(rule)).Error
}

// DeleteByScope removes the rule for scope
func (r *GormMarginRuleRepository) DeleteByScope(ctx context.Context, scope pricing.MarginScope) error {
	result := r.db.WithContext(ctx).
		Where("scope_kind = ? AND scope_ref = ?", string(scope.Kind()), scope.Ref()).
		Delete(&models.MarginRuleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ pricing.MarginRuleRepository = (*GormMarginRuleRepository)(nil)

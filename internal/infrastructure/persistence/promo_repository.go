package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPromoRepository implements pricing.PromoRepository using GORM
type GormPromoRepository struct {
	db *gorm.DB
}

// NewGormPromoRepository creates a new GormPromoRepository
func NewGormPromoRepository(db *gorm.DB) *GormPromoRepository {
	return &GormPromoRepository{db: db}
}

// FindByID finds a promotion by its ID
func (r *GormPromoRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.Promo, error) {
	var model models.PromoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists promotions, latest start first
func (r *GormPromoRepository) FindAll(ctx context.Context, filter shared.Filter) ([]pricing.Promo, error) {
	var rows []models.PromoModel
	if err := r.db.WithContext(ctx).Order("starts_at DESC").Scopes(paginate(filter)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]pricing.Promo, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a promotion
func (r *GormPromoRepository) Save(ctx context.Context, promo *pricing.Promo) error {
	return r.db.WithContext(ctx).Save(models.PromoModelFromDomain(promo)).Error
}

// Delete deletes a promotion
func (r *GormPromoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PromoModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ pricing.PromoRepository = (*GormPromoRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPurchaseRepository implements inventory.PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID loads a purchase with its lines
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).Preload("Lines").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save records a purchase together with its lines. Purchases are never
// edited after receipt.
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *inventory.Purchase) error {
	return r.db.WithContext(ctx).Create(models.PurchaseModelFromDomain(purchase)).Error
}

var _ inventory.PurchaseRepository = (*GormPurchaseRepository)(nil)

package persistence

import (
	"context"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWasteRepository implements inventory.WasteRepository using GORM
type GormWasteRepository struct {
	db *gorm.DB
}

// NewGormWasteRepository creates a new GormWasteRepository
func NewGormWasteRepository(db *gorm.DB) *GormWasteRepository {
	return &GormWasteRepository{db: db}
}

// FindAll lists waste records matching the filter, newest first
func (r *GormWasteRepository) FindAll(ctx context.Context, filter inventory.WasteFilter) ([]inventory.Waste, error) {
	query := r.db.WithContext(ctx).Model(&models.WasteModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}

	var rows []models.WasteModel
	if err := query.Order("occurred_at DESC").Scopes(paginate(filter.Filter)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toWaste(rows), nil
}

// ListAll returns every waste record, newest first
func (r *GormWasteRepository) ListAll(ctx context.Context) ([]inventory.Waste, error) {
	var rows []models.WasteModel
	if err := r.db.WithContext(ctx).Order("occurred_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toWaste(rows), nil
}

// Save creates a waste record
func (r *GormWasteRepository) Save(ctx context.Context, waste *inventory.Waste) error {
	return r.db.WithContext(ctx).Save(models.WasteModelFromDomain(waste)).Error
}

func toWaste(rows []models.WasteModel) []inventory.Waste {
	out := make([]inventory.Waste, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.WasteRepository = (*GormWasteRepository)(nil)

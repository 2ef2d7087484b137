package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSaleRepository implements trade.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts a sale together with its items
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	return r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error
}

// FindByID loads a sale with its items
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).Preload("Items").First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists sales, newest first, without items
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).Order("sold_at DESC").Scopes(paginate(filter)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

// ListInWindow lists sales with start <= sold_at <= end, without items
func (r *GormSaleRepository) ListInWindow(ctx context.Context, start, end time.Time) ([]trade.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Where("sold_at >= ? AND sold_at <= ?", start, end).
		Order("sold_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toSales(rows), nil
}

// ListItemsForSales lists the items of the given sales
func (r *GormSaleRepository) ListItemsForSales(ctx context.Context, saleIDs []uuid.UUID) ([]trade.SaleItem, error) {
	if len(saleIDs) == 0 {
		return []trade.SaleItem{}, nil
	}
	var rows []models.SaleItemModel
	if err := r.db.WithContext(ctx).Where("sale_id IN ?", saleIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]trade.SaleItem, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// UpdatePaymentMethod persists a payment method correction
func (r *GormSaleRepository) UpdatePaymentMethod(ctx context.Context, sale *trade.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("id = ?", sale.ID).
		Updates(map[string]any{
			"payment_method": string(sale.PaymentMethod),
			"updated_at":     sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toSales(rows []models.SaleModel) []trade.Sale {
	out := make([]trade.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// activeLotOrder is the FEFO consumption order: earliest expiration first,
// undated lots last, ties broken by arrival.
const activeLotOrder = "expiration ASC NULLS LAST, received_at ASC"

// GormLotRepository implements inventory.LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	var model models.LotModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists lots matching the filter, most recently received first
func (r *GormLotRepository) FindAll(ctx context.Context, filter inventory.LotFilter) ([]inventory.Lot, error) {
	query := r.db.WithContext(ctx).Model(&models.LotModel{})
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var rows []models.LotModel
	if err := query.Order("received_at DESC").Scopes(paginate(filter.Filter)).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLots(rows), nil
}

func (r *GormLotRepository) activeQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.LotModel{}).
		Where("status = ?", string(inventory.LotStatusActive)).
		Order(activeLotOrder)
}

// ListActiveByProduct lists vigente lots of a product in consumption order
func (r *GormLotRepository) ListActiveByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Lot, error) {
	var rows []models.LotModel
	if err := r.activeQuery(ctx).Where("product_id = ?", productID).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLots(rows), nil
}

// ListActiveByProductForUpdate lists vigente lots of a product with a row lock
// held until the enclosing transaction ends. Two concurrent sales of the same
// product serialize here.
func (r *GormLotRepository) ListActiveByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]inventory.Lot, error) {
	var rows []models.LotModel
	if err := r.activeQuery(ctx).
		Where("product_id = ?", productID).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLots(rows), nil
}

// ListActive lists every vigente lot
func (r *GormLotRepository) ListActive(ctx context.Context) ([]inventory.Lot, error) {
	var rows []models.LotModel
	if err := r.activeQuery(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLots(rows), nil
}

// ListActiveExpiringBefore lists vigente lots whose expiration is before t
func (r *GormLotRepository) ListActiveExpiringBefore(ctx context.Context, t time.Time) ([]inventory.Lot, error) {
	var rows []models.LotModel
	if err := r.activeQuery(ctx).
		Where("expiration IS NOT NULL AND expiration < ?", t).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toLots(rows), nil
}

type productStockRow struct {
	ProductID uuid.UUID
	Total     int
}

// SumActiveStockByProduct returns qty_current summed over vigente lots per product
func (r *GormLotRepository) SumActiveStockByProduct(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []productStockRow
	if err := r.db.WithContext(ctx).
		Model(&models.LotModel{}).
		Select("product_id, SUM(qty_current) AS total").
		Where("status = ?", string(inventory.LotStatusActive)).
		Group("product_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.Total
	}
	return out, nil
}

// Decrement subtracts amount from a vigente lot in a single guarded UPDATE.
// The lot moves to vendido when it reaches zero. When the guard rejects the
// update the lot is reloaded to report why.
func (r *GormLotRepository) Decrement(ctx context.Context, lotID uuid.UUID, amount int) error {
	result := r.db.WithContext(ctx).
		Model(&models.LotModel{}).
		Where("id = ? AND status = ? AND qty_current >= ?", lotID, string(inventory.LotStatusActive), amount).
		Updates(map[string]any{
			"qty_current": gorm.Expr("qty_current - ?", amount),
			"status":      gorm.Expr("CASE WHEN qty_current = ? THEN ? ELSE status END", amount, string(inventory.LotStatusSoldOut)),
			"updated_at":  time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	lot, err := r.FindByID(ctx, lotID)
	if err != nil {
		return err
	}
	if lot.Status != inventory.LotStatusActive {
		return shared.ErrInvalidState
	}
	return shared.ErrNegativeQuantity
}

// TransitionStatus rewrites only status and updated_at, guarded on the current
// status, so a decrement committed after the caller read the lot is kept.
func (r *GormLotRepository) TransitionStatus(ctx context.Context, lotID uuid.UUID, from, to inventory.LotStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.LotModel{}).
		Where("id = ? AND status = ?", lotID, string(from)).
		Updates(map[string]any{
			"status":     string(to),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.FindByID(ctx, lotID); err != nil {
		return err
	}
	return shared.ErrInvalidState
}

// Save creates or updates a lot
func (r *GormLotRepository) Save(ctx context.Context, lot *inventory.Lot) error {
	return r.db.WithContext(ctx).Save(models.LotModelFromDomain(lot)).Error
}

// SaveBatch creates or updates multiple lots
func (r *GormLotRepository) SaveBatch(ctx context.Context, lots []*inventory.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	rows := make([]*models.LotModel, len(lots))
	for i, lot := range lots {
		rows[i] = models.LotModelFromDomain(lot)
	}
	return r.db.WithContext(ctx).Save(rows).Error
}

// Delete purges a lot
func (r *GormLotRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.LotModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func toLots(rows []models.LotModel) []inventory.Lot {
	out := make([]inventory.Lot, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ inventory.LotRepository = (*GormLotRepository)(nil)

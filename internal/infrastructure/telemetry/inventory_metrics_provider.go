package telemetry

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GormStockMetricsProvider implements StockMetricsProvider using GORM.
// It queries the lots table directly for aggregated metrics.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// ActiveStockUnits returns qty_current summed over vigente lots.
func (p *GormStockMetricsProvider) ActiveStockUnits(ctx context.Context) (int64, error) {
	var total int64
	err := p.db.WithContext(ctx).
		Table("lots").
		Select("COALESCE(SUM(qty_current), 0)").
		Where("status = ?", "vigente").
		Scan(&total).Error

	return total, err
}

// ExpiringLotCount returns the number of vigente lots expiring before t.
func (p *GormStockMetricsProvider) ExpiringLotCount(ctx context.Context, before time.Time) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("lots").
		Where("status = ? AND expiration IS NOT NULL AND expiration < ?", "vigente", before).
		Count(&count).Error

	return count, err
}

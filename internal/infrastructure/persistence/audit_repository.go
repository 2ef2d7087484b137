package persistence

import (
	"context"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// defaultAuditLimit caps audit listings when the caller gives no limit
const defaultAuditLimit = 100

// GormAuditRepository is the append-only audit log. It implements both
// audit.Sink and audit.Reader.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts one entry
func (r *GormAuditRepository) Append(ctx context.Context, entry audit.Entry) error {
	return r.db.WithContext(ctx).Create(models.AuditEntryModelFromDomain(entry)).Error
}

// List returns entries newest first
func (r *GormAuditRepository) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEntryModel{})
	if filter.Entity != "" {
		query = query.Where("entity = ?", filter.Entity)
	}
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	var rows []models.AuditEntryModel
	if err := query.Order("ts DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ audit.Sink   = (*GormAuditRepository)(nil)
	_ audit.Reader = (*GormAuditRepository)(nil)
)

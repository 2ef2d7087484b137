package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingRepository implements setting.Repository on the settings table
type GormSettingRepository struct {
	db *gorm.DB
}

// NewGormSettingRepository creates a new GormSettingRepository
func NewGormSettingRepository(db *gorm.DB) *GormSettingRepository {
	return &GormSettingRepository{db: db}
}

// Get returns the raw value for key; found is false when the key is absent
func (r *GormSettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var model models.SettingModel
	err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return model.Value, true, nil
}

// Set writes value under key, replacing any previous value
func (r *GormSettingRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&models.SettingModel{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

// All lists every setting ordered by key
func (r *GormSettingRepository) All(ctx context.Context) ([]setting.Setting, error) {
	var rows []models.SettingModel
	if err := r.db.WithContext(ctx).Order("key ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]setting.Setting, len(rows))
	for i, row := range rows {
		out[i] = setting.Setting{Key: row.Key, Value: row.Value}
	}
	return out, nil
}

var _ setting.Repository = (*GormSettingRepository)(nil)

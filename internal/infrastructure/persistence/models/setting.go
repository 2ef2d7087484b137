package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
)

// SettingModel is a key/value setting row
type SettingModel struct {
	Key       string `gorm:"type:varchar(100);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (SettingModel) TableName() string {
	return "settings"
}

// AuditEntryModel is an append-only audit log row
type AuditEntryModel struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Timestamp time.Time      `gorm:"column:ts;not null;index"`
	Actor     string         `gorm:"type:varchar(100);not null"`
	Entity    string         `gorm:"type:varchar(50);not null;index:idx_audit_entity"`
	EntityID  *uuid.UUID     `gorm:"type:uuid;index:idx_audit_entity"`
	Action    string         `gorm:"type:varchar(10);not null"`
	Diff      map[string]any `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (AuditEntryModel) TableName() string {
	return "audit_log"
}

// ToDomain converts the persistence model to a domain audit Entry
func (m *AuditEntryModel) ToDomain() audit.Entry {
	return audit.Entry{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Actor:     m.Actor,
		Entity:    m.Entity,
		EntityID:  m.EntityID,
		Action:    audit.Action(m.Action),
		Diff:      m.Diff,
	}
}

// AuditEntryModelFromDomain creates a persistence model from a domain audit Entry
func AuditEntryModelFromDomain(e audit.Entry) *AuditEntryModel {
	return &AuditEntryModel{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Actor:     e.Actor,
		Entity:    e.Entity,
		EntityID:  e.EntityID,
		Action:    string(e.Action),
		Diff:      e.Diff,
	}
}

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// EntryResponse represents an audit entry in API responses
type EntryResponse struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"ts"`
	Actor     string         `json:"actor"`
	Entity    string         `json:"entity"`
	EntityID  *uuid.UUID     `json:"entity_id,omitempty"`
	Action    string         `json:"action"`
	Diff      map[string]any `json:"diff,omitempty"`
}

// ListFilter represents filter options for the audit trail
type ListFilter struct {
	Entity   string     `form:"entity"`
	EntityID *uuid.UUID `form:"-"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// Service reads the audit trail
type Service struct {
	reader audit.Reader
}

// NewService creates a new audit Service
func NewService(reader audit.Reader) *Service {
	return &Service{reader: reader}
}

// List returns audit entries, newest first
func (s *Service) List(ctx context.Context, filter ListFilter) ([]EntryResponse, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	entries, err := s.reader.List(ctx, audit.Filter{
		Entity:   filter.Entity,
		EntityID: filter.EntityID,
		Limit:    limit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = EntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Actor:     e.Actor,
			Entity:    e.Entity,
			EntityID:  e.EntityID,
			Action:    string(e.Action),
			Diff:      e.Diff,
		}
	}
	return out, nil
}

// Package audit records mutating operations without letting audit failures
// affect the operation itself.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"go.uber.org/zap"
)

// Recorder appends entries to an audit sink. Sink failures are logged and
// swallowed. A nil *Recorder is valid and records nothing.
type Recorder struct {
	sink   audit.Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewRecorder creates a Recorder
func NewRecorder(sink audit.Sink, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Record appends one entry. The actor is taken from ctx.
func (r *Recorder) Record(ctx context.Context, entity string, entityID *uuid.UUID, action audit.Action, diff map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	entry := audit.Entry{
		ID:        uuid.New(),
		Timestamp: r.now().UTC(),
		Actor:     audit.ActorFromContext(ctx),
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Diff:      diff,
	}
	if err := r.sink.Append(ctx, entry); err != nil {
		r.logger.Warn("Failed to append audit entry",
			zap.String("entity", entity),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// Created is shorthand for Record with ActionCreate
func (r *Recorder) Created(ctx context.Context, entity string, id uuid.UUID, diff map[string]any) {
	r.Record(ctx, entity, &id, audit.ActionCreate, diff)
}

// Updated is shorthand for Record with ActionUpdate
func (r *Recorder) Updated(ctx context.Context, entity string, id uuid.UUID, diff map[string]any) {
	r.Record(ctx, entity, &id, audit.ActionUpdate, diff)
}

// Deleted is shorthand for Record with ActionDelete
func (r *Recorder) Deleted(ctx context.Context, entity string, id uuid.UUID, diff map[string]any) {
	r.Record(ctx, entity, &id, audit.ActionDelete, diff)
}

// Change builds an update diff holding the previous and new value of a field
func Change(field string, before, after any) map[string]any {
	return map[string]any{
		field: map[string]any{"before": before, "after": after},
	}
}

// Package audit describes the append-only trail of mutating operations.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action is the kind of mutation recorded
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entity names used in the trail
const (
	EntityProduct    = "products"
	EntitySupplier   = "suppliers"
	EntityLot        = "lots"
	EntityPurchase   = "purchases"
	EntitySale       = "sales"
	EntityWaste      = "waste"
	EntityPromo      = "promos"
	EntityMarginRule = "margin_rules"
	EntitySetting    = "settings"
)

// Entry is one audit record
type Entry struct {
	ID        uuid.UUID
	Timestamp time.Time
	Actor     string
	Entity    string
	EntityID  *uuid.UUID
	Action    Action
	Diff      map[string]any
}

// Sink stores audit entries
type Sink interface {
	Append(ctx context.Context, entry Entry) error
}

// Filter narrows audit listings
type Filter struct {
	Entity   string
	EntityID *uuid.UUID
	Limit    int
}

// Reader lists audit entries, newest first
type Reader interface {
	List(ctx context.Context, filter Filter) ([]Entry, error)
}

type actorKey struct{}

// SystemActor is recorded when no caller identity is known
const SystemActor = "local"

// WithActor attaches the acting user name to ctx
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting user, or SystemActor
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return SystemActor
}

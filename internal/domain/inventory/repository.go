package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// LotFilter narrows lot listings
type LotFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	Status    *LotStatus
}

// LotRepository defines the interface for lot persistence.
// Active-lot listings are ordered by expiration ascending with undated lots
// last, then by received_at.
type LotRepository interface {
	// FindByID finds a lot by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)

	// FindAll lists lots matching the filter, most recently received first
	FindAll(ctx context.Context, filter LotFilter) ([]Lot, error)

	// ListActiveByProduct lists vigente lots of a product
	ListActiveByProduct(ctx context.Context, productID uuid.UUID) ([]Lot, error)

	// ListActiveByProductForUpdate lists vigente lots of a product and locks
	// them for the rest of the enclosing transaction
	ListActiveByProductForUpdate(ctx context.Context, productID uuid.UUID) ([]Lot, error)

	// ListActive lists every vigente lot
	ListActive(ctx context.Context) ([]Lot, error)

	// ListActiveExpiringBefore lists vigente lots whose expiration is before t
	ListActiveExpiringBefore(ctx context.Context, t time.Time) ([]Lot, error)

	// SumActiveStockByProduct returns qty_current summed over vigente lots per product
	SumActiveStockByProduct(ctx context.Context) (map[uuid.UUID]int, error)

	// Decrement subtracts amount from a vigente lot, moving it to vendido when
	// it reaches zero. Fails with ErrNegativeQuantity instead of going below zero.
	Decrement(ctx context.Context, lotID uuid.UUID, amount int) error

	// TransitionStatus moves a lot from one status to another without touching
	// its quantities. Fails with ErrInvalidState when the lot is no longer in from.
	TransitionStatus(ctx context.Context, lotID uuid.UUID, from, to LotStatus) error

	// Save creates or updates a lot
	Save(ctx context.Context, lot *Lot) error

	// SaveBatch creates or updates multiple lots
	SaveBatch(ctx context.Context, lots []*Lot) error

	// Delete purges a lot
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseRepository defines the interface for purchase persistence
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	Save(ctx context.Context, purchase *Purchase) error
}

// WasteFilter narrows waste listings
type WasteFilter struct {
	shared.Filter
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// WasteRepository defines the interface for waste persistence
type WasteRepository interface {
	FindAll(ctx context.Context, filter WasteFilter) ([]Waste, error)
	ListAll(ctx context.Context) ([]Waste, error)
	Save(ctx context.Context, waste *Waste) error
}

package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// Create inserts a sale together with its items
	Create(ctx context.Context, sale *Sale) error

	// FindByID loads a sale with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindAll lists sales, newest first, without items
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, error)

	// ListInWindow lists sales with start <= sold_at <= end, without items
	ListInWindow(ctx context.Context, start, end time.Time) ([]Sale, error)

	// ListItemsForSales lists the items of the given sales
	ListItemsForSales(ctx context.Context, saleIDs []uuid.UUID) ([]SaleItem, error)

	// UpdatePaymentMethod persists a payment method correction
	UpdatePaymentMethod(ctx context.Context, sale *Sale) error
}

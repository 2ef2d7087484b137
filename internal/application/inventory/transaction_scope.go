package inventory

import (
	"context"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

// TransactionScope provides transactional access to the lot ledger.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that take part
// in lot mutations. All repositories returned share the same underlying transaction.
//
// Sale registration reads lots with ListActiveByProductForUpdate, decrements them
// and inserts the sale through SaleRepo; purchase receipt saves the purchase and
// its lots. Either everything commits or nothing does.
type TransactionalRepositories interface {
	// LotRepo returns the lot repository scoped to the current transaction
	LotRepo() inventory.LotRepository
	// PurchaseRepo returns the purchase repository scoped to the current transaction
	PurchaseRepo() inventory.PurchaseRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() trade.SaleRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	lotRepo      inventory.LotRepository
	purchaseRepo inventory.PurchaseRepository
	saleRepo     trade.SaleRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	lotRepo inventory.LotRepository,
	purchaseRepo inventory.PurchaseRepository,
	saleRepo trade.SaleRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		lotRepo:      lotRepo,
		purchaseRepo: purchaseRepo,
		saleRepo:     saleRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LotRepo returns the lot repository.
func (s *NoOpTransactionScope) LotRepo() inventory.LotRepository {
	return s.lotRepo
}

// PurchaseRepo returns the purchase repository.
func (s *NoOpTransactionScope) PurchaseRepo() inventory.PurchaseRepository {
	return s.purchaseRepo
}

// SaleRepo returns the sale repository.
func (s *NoOpTransactionScope) SaleRepo() trade.SaleRepository {
	return s.saleRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

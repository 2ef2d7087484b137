package inventory

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// AllocationPass identifies which ordering a lot was taken under
type AllocationPass string

const (
	// PassExpiration takes dated lots in ascending expiration order
	PassExpiration AllocationPass = "expiration"
	// PassReceived takes whatever remains of the pool in ascending received_at order
	PassReceived AllocationPass = "received_at"
)

// LotTake is the quantity taken from a single lot
type LotTake struct {
	LotID      uuid.UUID
	LotCode    string
	Qty        int
	UnitCost   decimal.Decimal
	Expiration *time.Time
	Remaining  int // quantity left in the lot after the take
	Exhausted  bool
	Pass       AllocationPass
}

// Allocation is the outcome of allocating a requested quantity of one product
type Allocation struct {
	ProductID      uuid.UUID
	Requested      int
	Allocated      int
	Takes          []LotTake
	FullySatisfied bool
}

// Shortfall returns the quantity that could not be allocated
func (a *Allocation) Shortfall() int {
	return a.Requested - a.Allocated
}

// Cost returns the lot cost of everything allocated
func (a *Allocation) Cost() decimal.Decimal {
	total := decimal.Zero
	for _, t := range a.Takes {
		total = total.Add(t.UnitCost.Mul(decimal.NewFromInt(int64(t.Qty))))
	}
	return total
}

// LotAllocator decides which lots serve a requested quantity and consumes them
type LotAllocator interface {
	// Name identifies the allocation policy in logs
	Name() string
	// Allocate consumes up to requested units from lots, mutating each lot taken
	Allocate(productID uuid.UUID, requested int, lots []*Lot) (*Allocation, error)
}

// FEFOAllocator consumes lots First-Expired-First-Out. Dated lots are taken by
// ascending expiration first; if that is not enough, the rest of the pool
// (undated lots included) is taken by ascending received_at.
type FEFOAllocator struct{}

// NewFEFOAllocator creates a FEFO allocator
func NewFEFOAllocator() *FEFOAllocator {
	return &FEFOAllocator{}
}

// Name returns the allocator name
func (a *FEFOAllocator) Name() string {
	return "fefo"
}

// Allocate implements LotAllocator
func (a *FEFOAllocator) Allocate(productID uuid.UUID, requested int, lots []*Lot) (*Allocation, error) {
	if requested <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	result := &Allocation{
		ProductID: productID,
		Requested: requested,
		Takes:     make([]LotTake, 0),
	}

	pool := make([]*Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.ProductID == productID && lot.Available() > 0 {
			pool = append(pool, lot)
		}
	}

	dated := make([]*Lot, 0, len(pool))
	for _, lot := range pool {
		if lot.Expiration != nil {
			dated = append(dated, lot)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		if !dated[i].Expiration.Equal(*dated[j].Expiration) {
			return dated[i].Expiration.Before(*dated[j].Expiration)
		}
		return receivedBefore(dated[i], dated[j])
	})

	remaining, err := consumeInOrder(result, dated, requested, PassExpiration)
	if err != nil {
		return nil, err
	}

	if remaining > 0 {
		rest := make([]*Lot, 0, len(pool))
		for _, lot := range pool {
			if lot.Available() > 0 {
				rest = append(rest, lot)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool {
			return receivedBefore(rest[i], rest[j])
		})
		if remaining, err = consumeInOrder(result, rest, remaining, PassReceived); err != nil {
			return nil, err
		}
	}

	result.Allocated = requested - remaining
	result.FullySatisfied = remaining == 0
	return result, nil
}

func consumeInOrder(result *Allocation, ordered []*Lot, remaining int, pass AllocationPass) (int, error) {
	for _, lot := range ordered {
		if remaining == 0 {
			break
		}
		take := min(remaining, lot.Available())
		if take == 0 {
			continue
		}
		if err := lot.Consume(take); err != nil {
			return remaining, err
		}
		remaining -= take
		result.Takes = append(result.Takes, LotTake{
			LotID:      lot.ID,
			LotCode:    lot.LotCode,
			Qty:        take,
			UnitCost:   lot.UnitCost,
			Expiration: lot.Expiration,
			Remaining:  lot.QtyCurrent,
			Exhausted:  lot.QtyCurrent == 0,
			Pass:       pass,
		})
	}
	return remaining, nil
}

func receivedBefore(a, b *Lot) bool {
	if !a.ReceivedAt.Equal(b.ReceivedAt) {
		return a.ReceivedAt.Before(b.ReceivedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// TotalAvailable sums the quantity that allocation could take from lots
func TotalAvailable(lots []*Lot) int {
	total := 0
	for _, lot := range lots {
		total += lot.Available()
	}
	return total
}

package trade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	appinv "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/pricing"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/cache"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryScope runs callbacks inside a store transaction so failures roll back
type memoryScope struct {
	store *testutil.Store
}

func (m memoryScope) Execute(_ context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return m.store.Transaction(func() error {
		return fn(appinv.NewNoOpTransactionScope(m.store.LotRepo(), m.store.PurchaseRepo(), m.store.SaleRepo()))
	})
}

type saleFixture struct {
	store   *testutil.Store
	service *SaleService
	product *catalog.Product
	now     time.Time
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	store := testutil.NewStore()
	product := testutil.Product(t, "PSI-101", "Panadería", 800, 1500)
	store.AddProduct(product)

	svc := NewSaleService(
		store.ProductRepo(),
		store.PromoRepo(),
		store.SaleRepo(),
		memoryScope{store: store},
		appaudit.NewRecorder(store.AuditLog(), nil),
		nil,
	)
	return &saleFixture{store: store, service: svc, product: product, now: time.Now()}
}

func (f *saleFixture) addLot(t *testing.T, qty int, receivedDaysAgo int, expiresInDays *int) *inventory.Lot {
	t.Helper()
	var exp *time.Time
	if expiresInDays != nil {
		exp = testutil.At(f.now, *expiresInDays)
	}
	lot := testutil.Lot(t, f.product.ID, qty, f.now.AddDate(0, 0, -receivedDaysAgo), exp)
	f.store.AddLot(lot)
	return lot
}

func days(n int) *int { return &n }

func saleRequest(productID uuid.UUID, qty int) RegisterSaleRequest {
	return RegisterSaleRequest{
		PaymentMethod: "efectivo",
		Lines:         []SaleLineRequest{{ProductID: productID, Qty: qty}},
	}
}

func TestSaleService_RegisterSale(t *testing.T) {
	ctx := context.Background()

	t.Run("consumes lots earliest expiration first", func(t *testing.T) {
		f := newSaleFixture(t)
		lot2 := f.addLot(t, 10, 1, days(9))
		lot1 := f.addLot(t, 5, 1, days(2))

		resp, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 7))
		require.NoError(t, err)

		require.NotNil(t, resp.FullySatisfied)
		assert.True(t, *resp.FullySatisfied)
		require.Len(t, resp.Items, 2)
		assert.Equal(t, lot1.ID, *resp.Items[0].LotID)
		assert.Equal(t, 5, resp.Items[0].Qty)
		assert.Equal(t, lot2.ID, *resp.Items[1].LotID)
		assert.Equal(t, 2, resp.Items[1].Qty)
		assert.True(t, decimal.NewFromInt(7*1500).Equal(resp.Total))

		stored1 := f.store.Lot(lot1.ID)
		assert.Equal(t, 0, stored1.QtyCurrent)
		assert.Equal(t, inventory.LotStatusSoldOut, stored1.Status)
		assert.Equal(t, 8, f.store.Lot(lot2.ID).QtyCurrent)
		assert.Equal(t, 1, f.store.SaleCount())
	})

	t.Run("falls back to undated lots by reception", func(t *testing.T) {
		f := newSaleFixture(t)
		dated := f.addLot(t, 2, 1, days(3))
		undatedOld := f.addLot(t, 4, 5, nil)
		f.addLot(t, 4, 1, nil)

		resp, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 5))
		require.NoError(t, err)
		require.Len(t, resp.Allocations, 1)
		takes := resp.Allocations[0].Takes
		require.Len(t, takes, 2)
		assert.Equal(t, dated.ID, takes[0].LotID)
		assert.Equal(t, string(inventory.PassExpiration), takes[0].Pass)
		assert.Equal(t, undatedOld.ID, takes[1].LotID)
		assert.Equal(t, 3, takes[1].Qty)
		assert.Equal(t, string(inventory.PassReceived), takes[1].Pass)
	})

	t.Run("rejects shortfall and leaves lots untouched", func(t *testing.T) {
		f := newSaleFixture(t)
		lot := f.addLot(t, 3, 1, days(2))

		_, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 5))
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 3, f.store.Lot(lot.ID).QtyCurrent)
		assert.Equal(t, 0, f.store.SaleCount())
	})

	t.Run("commits partial allocation when shortfall is allowed", func(t *testing.T) {
		f := newSaleFixture(t)
		lot := f.addLot(t, 3, 1, days(2))
		req := saleRequest(f.product.ID, 5)
		allow := false
		req.RejectOnShortfall = &allow

		resp, err := f.service.RegisterSale(ctx, req)
		require.NoError(t, err)
		assert.False(t, *resp.FullySatisfied)
		assert.Equal(t, 2, resp.Allocations[0].Shortfall)
		assert.Equal(t, 0, f.store.Lot(lot.ID).QtyCurrent)
		assert.Equal(t, 1, f.store.SaleCount())
	})

	t.Run("nothing allocatable fails even when shortfall is allowed", func(t *testing.T) {
		f := newSaleFixture(t)
		f.service.SetRejectOnShortfall(false)

		_, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 1))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 0, f.store.SaleCount())
	})

	t.Run("insert failure rolls back every decrement", func(t *testing.T) {
		f := newSaleFixture(t)
		lot1 := f.addLot(t, 5, 1, days(2))
		lot2 := f.addLot(t, 10, 1, days(9))
		f.store.ErrSaleCreate = errors.New("connection reset")

		_, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 7))
		require.Error(t, err)
		assert.Equal(t, 5, f.store.Lot(lot1.ID).QtyCurrent)
		assert.Equal(t, inventory.LotStatusActive, f.store.Lot(lot1.ID).Status)
		assert.Equal(t, 10, f.store.Lot(lot2.ID).QtyCurrent)
	})

	t.Run("multi-product shortfall rolls back the served product", func(t *testing.T) {
		f := newSaleFixture(t)
		lot := f.addLot(t, 5, 1, days(2))
		other := testutil.Product(t, "PSI-102", "Bebidas", 400, 900)
		f.store.AddProduct(other)

		req := RegisterSaleRequest{
			PaymentMethod: "tarjeta",
			Lines: []SaleLineRequest{
				{ProductID: f.product.ID, Qty: 2},
				{ProductID: other.ID, Qty: 1},
			},
		}
		_, err := f.service.RegisterSale(ctx, req)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 5, f.store.Lot(lot.ID).QtyCurrent)
	})

	t.Run("cancelled context is refused before any work", func(t *testing.T) {
		f := newSaleFixture(t)
		lot := f.addLot(t, 5, 1, days(2))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := f.service.RegisterSale(cctx, saleRequest(f.product.ID, 1))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 5, f.store.Lot(lot.ID).QtyCurrent)
	})

	t.Run("rejects unknown products and duplicate lines", func(t *testing.T) {
		f := newSaleFixture(t)

		_, err := f.service.RegisterSale(ctx, saleRequest(uuid.New(), 1))
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PRODUCT", de.Code)

		req := saleRequest(f.product.ID, 1)
		req.Lines = append(req.Lines, SaleLineRequest{ProductID: f.product.ID, Qty: 2})
		_, err = f.service.RegisterSale(ctx, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("applies active percent promo price", func(t *testing.T) {
		f := newSaleFixture(t)
		f.addLot(t, 5, 1, days(2))
		promo, err := pricing.NewPromo("Happy Hour", pricing.PromoTypePercent, decimal.NewFromInt(10),
			f.now.Add(-time.Hour), f.now.Add(time.Hour), "")
		require.NoError(t, err)
		require.NoError(t, f.store.PromoRepo().Save(ctx, promo))

		req := saleRequest(f.product.ID, 2)
		req.Lines[0].PromoID = &promo.ID
		resp, err := f.service.RegisterSale(ctx, req)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(1350).Equal(resp.Items[0].UnitPrice))
		assert.Equal(t, promo.ID, *resp.Items[0].PromoID)
	})

	t.Run("records audit entry with actor", func(t *testing.T) {
		f := newSaleFixture(t)
		f.addLot(t, 5, 1, days(2))

		resp, err := f.service.RegisterSale(audit.WithActor(ctx, "caja1"), saleRequest(f.product.ID, 1))
		require.NoError(t, err)

		entries := f.store.AuditLog().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "caja1", entries[0].Actor)
		assert.Equal(t, audit.EntitySale, entries[0].Entity)
		assert.Equal(t, resp.ID, *entries[0].EntityID)
	})
}

func TestSaleService_LogsAllocator(t *testing.T) {
	store := testutil.NewStore()
	product := testutil.Product(t, "PSI-102", "Bebidas", 500, 1200)
	store.AddProduct(product)
	store.AddLot(testutil.Lot(t, product.ID, 5, time.Now().AddDate(0, 0, -1), nil))

	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewSaleService(
		store.ProductRepo(),
		store.PromoRepo(),
		store.SaleRepo(),
		memoryScope{store: store},
		appaudit.NewRecorder(store.AuditLog(), nil),
		zap.New(core),
	)

	_, err := svc.RegisterSale(context.Background(), saleRequest(product.ID, 2))
	require.NoError(t, err)

	entries := logs.FilterMessage("Sale registered").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fefo", entries[0].ContextMap()["allocator"])
}

func TestSaleService_Idempotency(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t)
	lot := f.addLot(t, 10, 1, days(2))
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	f.service.SetIdempotencyStore(store, time.Hour)

	req := saleRequest(f.product.ID, 2)
	req.IdempotencyKey = "pos-42"

	_, err := f.service.RegisterSale(ctx, req)
	require.NoError(t, err)

	_, err = f.service.RegisterSale(ctx, req)
	assert.True(t, errors.Is(err, shared.ErrDuplicateRequest))
	assert.Equal(t, 8, f.store.Lot(lot.ID).QtyCurrent)

	t.Run("failed attempt releases the key", func(t *testing.T) {
		failing := saleRequest(f.product.ID, 50)
		failing.IdempotencyKey = "pos-43"
		_, err := f.service.RegisterSale(ctx, failing)
		require.Error(t, err)

		failing.Lines[0].Qty = 1
		_, err = f.service.RegisterSale(ctx, failing)
		assert.NoError(t, err)
	})
}

func TestSaleService_ConcurrentSalesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t)
	lot := f.addLot(t, 20, 1, days(2))

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 1)); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, succeeded)
	stored := f.store.Lot(lot.ID)
	assert.Equal(t, 0, stored.QtyCurrent)
	assert.Equal(t, inventory.LotStatusSoldOut, stored.Status)
}

func TestSaleService_ChangePaymentMethod(t *testing.T) {
	ctx := context.Background()
	f := newSaleFixture(t)
	f.addLot(t, 5, 1, days(2))
	resp, err := f.service.RegisterSale(ctx, saleRequest(f.product.ID, 1))
	require.NoError(t, err)

	updated, err := f.service.ChangePaymentMethod(ctx, resp.ID, ChangePaymentMethodRequest{PaymentMethod: "tarjeta"})
	require.NoError(t, err)
	assert.Equal(t, "tarjeta", updated.PaymentMethod)

	got, err := f.service.GetSale(ctx, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "tarjeta", got.PaymentMethod)

	_, err = f.service.GetSale(ctx, uuid.New())
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

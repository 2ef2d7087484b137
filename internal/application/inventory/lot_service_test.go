package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/setting"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type memoryScope struct {
	store *testutil.Store
}

func (m memoryScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return m.store.Transaction(func() error {
		return fn(NewNoOpTransactionScope(m.store.LotRepo(), m.store.PurchaseRepo(), m.store.SaleRepo()))
	})
}

// failingSaveScope fails the lot batch after the purchase was written
type failingSaveScope struct {
	store *testutil.Store
}

type failingLotRepo struct {
	inventory.LotRepository
}

func (failingLotRepo) SaveBatch(context.Context, []*inventory.Lot) error {
	return errors.New("disk full")
}

func (m failingSaveScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return m.store.Transaction(func() error {
		return fn(NewNoOpTransactionScope(failingLotRepo{m.store.LotRepo()}, m.store.PurchaseRepo(), m.store.SaleRepo()))
	})
}

type lotFixture struct {
	store   *testutil.Store
	service *LotService
	product *catalog.Product
	now     time.Time
	logs    *observer.ObservedLogs
}

func newLotFixture(t *testing.T) *lotFixture {
	t.Helper()
	store := testutil.NewStore()
	product := testutil.Product(t, "PSI-201", "Pastelería", 900, 1800)
	store.AddProduct(product)

	core, logs := observer.New(zap.WarnLevel)
	svc := NewLotService(
		store.LotRepo(),
		store.ProductRepo(),
		store.SettingRepo(),
		memoryScope{store: store},
		appaudit.NewRecorder(store.AuditLog(), nil),
		zap.New(core),
	)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &lotFixture{store: store, service: svc, product: product, now: now, logs: logs}
}

func (f *lotFixture) addLot(t *testing.T, qty int, expiresInDays *int) *inventory.Lot {
	t.Helper()
	var exp *time.Time
	if expiresInDays != nil {
		exp = testutil.At(f.now, *expiresInDays)
	}
	lot := testutil.Lot(t, f.product.ID, qty, f.now.AddDate(0, 0, -1), exp)
	f.store.AddLot(lot)
	return lot
}

func days(n int) *int { return &n }

func TestLotService_ReceivePurchase(t *testing.T) {
	t.Run("creates one vigente lot per line with derived expiration and code", func(t *testing.T) {
		f := newLotFixture(t)
		supplierID := uuid.New()

		resp, err := f.service.ReceivePurchase(context.Background(), ReceivePurchaseRequest{
			SupplierID: &supplierID,
			DocRef:     "FAC-1001",
			Lines: []PurchaseLineRequest{
				{ProductID: f.product.ID, Qty: 12},
				{ProductID: f.product.ID, Qty: 6, UnitCost: decPtr(950), LotCode: "LOT-MANUAL-1"},
			},
		})
		require.NoError(t, err)

		require.Len(t, resp.Lots, 2)
		assert.True(t, resp.TotalCost.Equal(decimal.NewFromInt(12*900+6*950)))

		first := resp.Lots[0]
		assert.Equal(t, "vigente", first.Status)
		assert.Equal(t, 12, first.QtyCurrent)
		assert.True(t, strings.HasPrefix(first.LotCode, "LOT-PSI-201-20240510-"))
		require.NotNil(t, first.Expiration)
		assert.Equal(t, f.now.AddDate(0, 0, 3), *first.Expiration)
		assert.Equal(t, &supplierID, first.SupplierID)
		assert.Equal(t, "FAC-1001", first.DocRef)

		assert.Equal(t, "LOT-MANUAL-1", resp.Lots[1].LotCode)
		assert.True(t, resp.Lots[1].UnitCost.Equal(decimal.NewFromInt(950)))

		assert.Len(t, f.store.Lots, 2)
		assert.Len(t, f.store.Purchases, 1)

		entries := f.store.AuditLog().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, audit.EntityPurchase, entries[0].Entity)
		assert.Equal(t, audit.ActionCreate, entries[0].Action)
	})

	t.Run("explicit expiration wins over shelf life", func(t *testing.T) {
		f := newLotFixture(t)
		exp := f.now.AddDate(0, 0, 10)

		resp, err := f.service.ReceivePurchase(context.Background(), ReceivePurchaseRequest{
			Lines: []PurchaseLineRequest{{ProductID: f.product.ID, Qty: 1, Expiration: &exp}},
		})
		require.NoError(t, err)
		assert.Equal(t, exp, *resp.Lots[0].Expiration)
	})

	t.Run("rejects unknown product", func(t *testing.T) {
		f := newLotFixture(t)

		_, err := f.service.ReceivePurchase(context.Background(), ReceivePurchaseRequest{
			Lines: []PurchaseLineRequest{{ProductID: uuid.New(), Qty: 1}},
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PRODUCT", de.Code)
		assert.Empty(t, f.store.Lots)
	})

	t.Run("rejects empty purchase", func(t *testing.T) {
		f := newLotFixture(t)

		_, err := f.service.ReceivePurchase(context.Background(), ReceivePurchaseRequest{})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rolls back the purchase when lots cannot be saved", func(t *testing.T) {
		f := newLotFixture(t)
		f.service.txScope = failingSaveScope{store: f.store}

		_, err := f.service.ReceivePurchase(context.Background(), ReceivePurchaseRequest{
			Lines: []PurchaseLineRequest{{ProductID: f.product.ID, Qty: 3}},
		})
		require.Error(t, err)
		assert.Empty(t, f.store.Purchases)
		assert.Empty(t, f.store.Lots)
		assert.Empty(t, f.store.AuditLog().Entries())
	})
}

func TestLotService_ChangeLotStatus(t *testing.T) {
	t.Run("discards a vigente lot and audits the change", func(t *testing.T) {
		f := newLotFixture(t)
		lot := f.addLot(t, 4, days(2))

		resp, err := f.service.DiscardLot(context.Background(), lot.ID)
		require.NoError(t, err)
		assert.Equal(t, "descartado", resp.Status)
		assert.Equal(t, inventory.LotStatusDiscarded, f.store.Lot(lot.ID).Status)

		entries := f.store.AuditLog().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionUpdate, entries[0].Action)
		assert.Equal(t, map[string]any{"status": map[string]any{"before": "vigente", "after": "descartado"}}, entries[0].Diff)
	})

	t.Run("terminal lots cannot move", func(t *testing.T) {
		f := newLotFixture(t)
		lot := f.addLot(t, 4, days(2))
		_, err := f.service.ExpireLot(context.Background(), lot.ID)
		require.NoError(t, err)

		_, err = f.service.DiscardLot(context.Background(), lot.ID)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, inventory.LotStatusExpired, f.store.Lot(lot.ID).Status)
	})

	t.Run("vendido cannot be set by hand", func(t *testing.T) {
		f := newLotFixture(t)
		lot := f.addLot(t, 4, days(2))

		_, err := f.service.ChangeLotStatus(context.Background(), lot.ID, ChangeLotStatusRequest{Status: "vendido"})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_STATUS", de.Code)
	})

	t.Run("unknown lot", func(t *testing.T) {
		f := newLotFixture(t)

		_, err := f.service.ExpireLot(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

// saleAfterReadLotRepo commits a decrement right after each FindByID, the way
// a concurrent sale would land between a status edit's read and its write.
type saleAfterReadLotRepo struct {
	inventory.LotRepository
	sold int
}

func (r saleAfterReadLotRepo) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Lot, error) {
	lot, err := r.LotRepository.FindByID(ctx, id)
	if err != nil || lot.Status != inventory.LotStatusActive {
		return lot, err
	}
	if err := r.LotRepository.Decrement(ctx, id, r.sold); err != nil {
		return nil, err
	}
	return lot, nil
}

func TestLotService_ChangeLotStatus_KeepsConcurrentDecrement(t *testing.T) {
	f := newLotFixture(t)
	lot := f.addLot(t, 10, days(2))
	svc := NewLotService(
		saleAfterReadLotRepo{LotRepository: f.store.LotRepo(), sold: 4},
		f.store.ProductRepo(),
		f.store.SettingRepo(),
		memoryScope{store: f.store},
		appaudit.NewRecorder(f.store.AuditLog(), nil),
		nil,
	)

	resp, err := svc.DiscardLot(context.Background(), lot.ID)
	require.NoError(t, err)

	stored := f.store.Lot(lot.ID)
	assert.Equal(t, inventory.LotStatusDiscarded, stored.Status)
	assert.Equal(t, 6, stored.QtyCurrent, "units sold before the edit stay sold")
	assert.Equal(t, 6, resp.QtyCurrent)
}

func TestLotService_ChangeLotStatus_LotSoldOutMeanwhile(t *testing.T) {
	f := newLotFixture(t)
	lot := f.addLot(t, 4, days(2))
	svc := NewLotService(
		saleAfterReadLotRepo{LotRepository: f.store.LotRepo(), sold: 4},
		f.store.ProductRepo(),
		f.store.SettingRepo(),
		memoryScope{store: f.store},
		appaudit.NewRecorder(f.store.AuditLog(), nil),
		nil,
	)

	_, err := svc.ExpireLot(context.Background(), lot.ID)
	assert.ErrorIs(t, err, shared.ErrInvalidState)

	stored := f.store.Lot(lot.ID)
	assert.Equal(t, inventory.LotStatusSoldOut, stored.Status)
	assert.Equal(t, 0, stored.QtyCurrent)
	assert.Empty(t, f.store.AuditLog().Entries())
}

func TestLotService_PurgeLot(t *testing.T) {
	f := newLotFixture(t)
	lot := f.addLot(t, 4, nil)

	require.NoError(t, f.service.PurgeLot(context.Background(), lot.ID))
	assert.NotContains(t, f.store.Lots, lot.ID)

	entries := f.store.AuditLog().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionDelete, entries[0].Action)

	assert.ErrorIs(t, f.service.PurgeLot(context.Background(), lot.ID), shared.ErrNotFound)
}

func TestLotService_ListLots(t *testing.T) {
	f := newLotFixture(t)
	active := f.addLot(t, 4, days(2))
	expired := f.addLot(t, 2, days(1))
	_, err := f.service.ExpireLot(context.Background(), expired.ID)
	require.NoError(t, err)

	t.Run("filters by status", func(t *testing.T) {
		lots, err := f.service.ListLots(context.Background(), LotListFilter{Status: "vigente"})
		require.NoError(t, err)
		require.Len(t, lots, 1)
		assert.Equal(t, active.ID, lots[0].ID)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := f.service.ListLots(context.Background(), LotListFilter{Status: "abierto"})
		require.Error(t, err)
	})

	t.Run("lists every lot of the product", func(t *testing.T) {
		lots, err := f.service.ListLots(context.Background(), LotListFilter{ProductID: &f.product.ID})
		require.NoError(t, err)
		assert.Len(t, lots, 2)
	})
}

func TestLotService_ExpireDueLots(t *testing.T) {
	f := newLotFixture(t)
	overdue := f.addLot(t, 3, days(-1))
	fresh := f.addLot(t, 3, days(4))
	undated := f.addLot(t, 3, nil)

	result, err := f.service.ExpireDueLots(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{overdue.ID}, result.Expired)
	assert.Equal(t, f.now, result.RanAt)
	assert.Equal(t, inventory.LotStatusExpired, f.store.Lot(overdue.ID).Status)
	assert.Equal(t, inventory.LotStatusActive, f.store.Lot(fresh.ID).Status)
	assert.Equal(t, inventory.LotStatusActive, f.store.Lot(undated.ID).Status)
	assert.Equal(t, 3, f.store.Lot(overdue.ID).QtyCurrent, "expiry does not touch quantities")

	t.Run("second sweep finds nothing", func(t *testing.T) {
		again, err := f.service.ExpireDueLots(context.Background())
		require.NoError(t, err)
		assert.Empty(t, again.Expired)
	})
}

// soldOutAfterListingRepo sells every listed lot before the sweep writes
type soldOutAfterListingRepo struct {
	inventory.LotRepository
}

func (r soldOutAfterListingRepo) ListActiveExpiringBefore(ctx context.Context, t time.Time) ([]inventory.Lot, error) {
	lots, err := r.LotRepository.ListActiveExpiringBefore(ctx, t)
	if err != nil {
		return nil, err
	}
	for _, l := range lots {
		if err := r.LotRepository.Decrement(ctx, l.ID, l.QtyCurrent); err != nil {
			return nil, err
		}
	}
	return lots, nil
}

type soldOutSweepScope struct {
	store *testutil.Store
}

func (m soldOutSweepScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return m.store.Transaction(func() error {
		return fn(NewNoOpTransactionScope(soldOutAfterListingRepo{m.store.LotRepo()}, m.store.PurchaseRepo(), m.store.SaleRepo()))
	})
}

func TestLotService_ExpireDueLots_SkipsLotsSoldMeanwhile(t *testing.T) {
	f := newLotFixture(t)
	overdue := f.addLot(t, 3, days(-1))
	f.service.txScope = soldOutSweepScope{store: f.store}

	result, err := f.service.ExpireDueLots(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Expired)
	stored := f.store.Lot(overdue.ID)
	assert.Equal(t, inventory.LotStatusSoldOut, stored.Status)
	assert.Equal(t, 0, stored.QtyCurrent)
}

func TestLotService_ExpiringLots(t *testing.T) {
	t.Run("uses alert_days_expiry setting", func(t *testing.T) {
		f := newLotFixture(t)
		f.store.Settings[setting.KeyAlertDaysExpiry] = "3"
		soon := f.addLot(t, 3, days(2))
		overdue := f.addLot(t, 3, days(-1))
		f.addLot(t, 3, days(5))
		f.addLot(t, 3, nil)

		lots, err := f.service.ExpiringLots(context.Background(), nil)
		require.NoError(t, err)

		got := map[uuid.UUID]int{}
		for _, l := range lots {
			got[l.ID] = l.DaysLeft
		}
		assert.Equal(t, map[uuid.UUID]int{soon.ID: 2, overdue.ID: -1}, got)
	})

	t.Run("explicit days override the setting", func(t *testing.T) {
		f := newLotFixture(t)
		f.store.Settings[setting.KeyAlertDaysExpiry] = "1"
		f.addLot(t, 3, days(5))

		lots, err := f.service.ExpiringLots(context.Background(), days(7))
		require.NoError(t, err)
		assert.Len(t, lots, 1)
	})

	t.Run("malformed setting falls back to seven days", func(t *testing.T) {
		f := newLotFixture(t)
		f.store.Settings[setting.KeyAlertDaysExpiry] = "una semana"
		f.addLot(t, 3, days(7))
		f.addLot(t, 3, days(8))

		lots, err := f.service.ExpiringLots(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, lots, 1)
		assert.Equal(t, 1, f.logs.FilterMessage("Malformed setting, using default").Len())
	})

	t.Run("setting lookup failure falls back to seven days", func(t *testing.T) {
		f := newLotFixture(t)
		f.store.ErrSettingGet = errors.New("connection reset")
		f.addLot(t, 3, days(6))

		lots, err := f.service.ExpiringLots(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, lots, 1)
		assert.Equal(t, 1, f.logs.FilterMessage("Failed to read setting, using default").Len())
	})

	t.Run("negative days are rejected", func(t *testing.T) {
		f := newLotFixture(t)

		_, err := f.service.ExpiringLots(context.Background(), days(-2))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

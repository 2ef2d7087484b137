package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appaudit "github.com/ymrpradenasfz/pascucci-smart-inventory/internal/application/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/audit"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/testutil"
)

func newWasteService(t *testing.T) (*WasteService, *testutil.Store) {
	t.Helper()
	store := testutil.NewStore()
	svc := NewWasteService(store.WasteRepo(), store.LotRepo(), store.ProductRepo(),
		appaudit.NewRecorder(store.AuditLog(), nil))
	return svc, store
}

func TestWasteService_RegisterWaste(t *testing.T) {
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

	t.Run("defaults unit cost to the product cost", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-301", "Bebidas", 700, 1500)
		store.AddProduct(product)

		resp, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID: product.ID,
			Qty:       3,
			Reason:    "daño",
			Shift:     "tarde",
		})
		require.NoError(t, err)

		assert.True(t, resp.UnitCostEst.Equal(decimal.NewFromInt(700)))
		assert.True(t, resp.Cost.Equal(decimal.NewFromInt(2100)))
		assert.Equal(t, "sistema", resp.ApprovedBy)
		require.Len(t, store.Waste, 1)
	})

	t.Run("uses the lot cost and leaves the lot untouched", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-302", "Bebidas", 700, 1500)
		store.AddProduct(product)
		lot := testutil.Lot(t, product.ID, 10, now.AddDate(0, 0, -2), testutil.At(now, 1))
		store.AddLot(lot)

		resp, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID:  product.ID,
			LotID:      &lot.ID,
			Qty:        4,
			Reason:     "caducidad",
			Shift:      "noche",
			OccurredAt: &now,
		})
		require.NoError(t, err)

		assert.True(t, resp.UnitCostEst.Equal(decimal.NewFromInt(500)))
		assert.Equal(t, now, resp.OccurredAt)
		assert.Equal(t, 10, store.Lot(lot.ID).QtyCurrent)
	})

	t.Run("explicit unit cost wins", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-303", "Bebidas", 700, 1500)
		store.AddProduct(product)
		est := decimal.NewFromInt(650)

		resp, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID:   product.ID,
			Qty:         1,
			UnitCostEst: &est,
			Reason:      "preparación",
			Shift:       "mañana",
		})
		require.NoError(t, err)
		assert.True(t, resp.UnitCostEst.Equal(est))
	})

	t.Run("records the acting user as approver", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-304", "Bebidas", 700, 1500)
		store.AddProduct(product)

		ctx := audit.WithActor(context.Background(), "encargada")
		resp, err := svc.RegisterWaste(ctx, RegisterWasteRequest{
			ProductID: product.ID, Qty: 1, Reason: "daño", Shift: "tarde",
		})
		require.NoError(t, err)
		assert.Equal(t, "encargada", resp.ApprovedBy)

		entries := store.AuditLog().Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "encargada", entries[0].Actor)
		assert.Equal(t, audit.EntityWaste, entries[0].Entity)
	})

	t.Run("rejects a lot of another product", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-305", "Bebidas", 700, 1500)
		other := testutil.Product(t, "PSI-306", "Bebidas", 700, 1500)
		store.AddProduct(product)
		store.AddProduct(other)
		lot := testutil.Lot(t, other.ID, 10, now, nil)
		store.AddLot(lot)

		_, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID: product.ID, LotID: &lot.ID, Qty: 1, Reason: "daño", Shift: "tarde",
		})
		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_LOT", de.Code)
		assert.Empty(t, store.Waste)
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newWasteService(t)

		_, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID: uuid.New(), Qty: 1, Reason: "daño", Shift: "tarde",
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown reason", func(t *testing.T) {
		svc, store := newWasteService(t)
		product := testutil.Product(t, "PSI-307", "Bebidas", 700, 1500)
		store.AddProduct(product)

		_, err := svc.RegisterWaste(context.Background(), RegisterWasteRequest{
			ProductID: product.ID, Qty: 1, Reason: "robo", Shift: "tarde",
		})
		require.Error(t, err)
		assert.Empty(t, store.Waste)
	})
}

func TestWasteService_ListWaste(t *testing.T) {
	svc, store := newWasteService(t)
	a := testutil.Product(t, "PSI-308", "Bebidas", 700, 1500)
	b := testutil.Product(t, "PSI-309", "Bebidas", 700, 1500)
	store.AddProduct(a)
	store.AddProduct(b)

	day := func(d int) *time.Time {
		v := time.Date(2024, 5, d, 12, 0, 0, 0, time.UTC)
		return &v
	}
	for _, req := range []RegisterWasteRequest{
		{ProductID: a.ID, Qty: 1, Reason: "daño", Shift: "tarde", OccurredAt: day(1)},
		{ProductID: a.ID, Qty: 2, Reason: "daño", Shift: "tarde", OccurredAt: day(5)},
		{ProductID: b.ID, Qty: 3, Reason: "daño", Shift: "tarde", OccurredAt: day(6)},
	} {
		_, err := svc.RegisterWaste(context.Background(), req)
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		out, err := svc.ListWaste(context.Background(), WasteListFilter{})
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, 3, out[0].Qty)
	})

	t.Run("by product and date range", func(t *testing.T) {
		out, err := svc.ListWaste(context.Background(), WasteListFilter{ProductID: &a.ID, From: day(3)})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, 2, out[0].Qty)
	})
}

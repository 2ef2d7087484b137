package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/infrastructure/persistence/models"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/testutil"
)

var lotsEpoch = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func newSQLiteLotRepository(t *testing.T) *GormLotRepository {
	t.Helper()
	return NewGormLotRepository(testutil.NewSQLiteDB(t, models.All()...))
}

func TestGormLotRepository_ListActiveByProductForUpdate_LocksRows(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	repo := NewGormLotRepository(mdb.DB)
	productID := uuid.New()
	lotID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "product_id", "lot_code", "received_at", "qty_initial", "qty_current", "status"}).
		AddRow(lotID, productID, "LOT-A", lotsEpoch, 10, 4, "vigente")
	mdb.Mock.ExpectQuery(`SELECT \* FROM "lots" WHERE status = \$1 AND product_id = \$2 ORDER BY expiration ASC NULLS LAST, received_at ASC FOR UPDATE`).
		WithArgs("vigente", productID).
		WillReturnRows(rows)

	lots, err := repo.ListActiveByProductForUpdate(context.Background(), productID)

	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, lotID, lots[0].ID)
	assert.Equal(t, 4, lots[0].QtyCurrent)
	mdb.ExpectationsWereMet(t)
}

func TestGormLotRepository_Decrement_GuardedUpdate(t *testing.T) {
	t.Run("single conditional update", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		repo := NewGormLotRepository(mdb.DB)
		lotID := uuid.New()

		mdb.Mock.ExpectExec(`UPDATE "lots" SET "qty_current"=qty_current - \$1,"status"=CASE WHEN qty_current = \$2 THEN \$3 ELSE status END,"updated_at"=\$4 WHERE id = \$5 AND status = \$6 AND qty_current >= \$7`).
			WithArgs(3, 3, "vendido", sqlmock.AnyArg(), lotID, "vigente", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Decrement(context.Background(), lotID, 3))
		mdb.ExpectationsWereMet(t)
	})

	t.Run("rejected update reports the lot state", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		repo := NewGormLotRepository(mdb.DB)
		lotID := uuid.New()

		mdb.Mock.ExpectExec(`UPDATE "lots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mdb.Mock.ExpectQuery(`SELECT \* FROM "lots" WHERE id = \$1`).
			WithArgs(lotID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "qty_current", "status"}).AddRow(lotID, 0, "vendido"))

		err := repo.Decrement(context.Background(), lotID, 1)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		mdb.ExpectationsWereMet(t)
	})
}

func TestGormLotRepository_FEFOOrder(t *testing.T) {
	repo := newSQLiteLotRepository(t)
	ctx := context.Background()
	productID := uuid.New()

	undated := testutil.Lot(t, productID, 5, lotsEpoch.AddDate(0, 0, -5), nil)
	late := testutil.Lot(t, productID, 5, lotsEpoch.AddDate(0, 0, -4), testutil.At(lotsEpoch, 5))
	early := testutil.Lot(t, productID, 5, lotsEpoch.AddDate(0, 0, -1), testutil.At(lotsEpoch, 1))
	sameDayOlder := testutil.Lot(t, productID, 5, lotsEpoch.AddDate(0, 0, -3), testutil.At(lotsEpoch, 1))
	other := testutil.Lot(t, uuid.New(), 5, lotsEpoch, testutil.At(lotsEpoch, 1))
	require.NoError(t, repo.SaveBatch(ctx, []*inventory.Lot{undated, late, early, sameDayOlder, other}))

	lots, err := repo.ListActiveByProduct(ctx, productID)
	require.NoError(t, err)

	ids := make([]uuid.UUID, len(lots))
	for i, l := range lots {
		ids[i] = l.ID
	}
	assert.Equal(t, []uuid.UUID{sameDayOlder.ID, early.ID, late.ID, undated.ID}, ids)
}

func TestGormLotRepository_Decrement(t *testing.T) {
	ctx := context.Background()

	t.Run("partial decrement keeps the lot vigente", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 10, lotsEpoch, nil)
		require.NoError(t, repo.Save(ctx, lot))

		require.NoError(t, repo.Decrement(ctx, lot.ID, 4))

		got, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.QtyCurrent)
		assert.Equal(t, inventory.LotStatusActive, got.Status)
	})

	t.Run("reaching zero marks the lot vendido", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 3, lotsEpoch, nil)
		require.NoError(t, repo.Save(ctx, lot))

		require.NoError(t, repo.Decrement(ctx, lot.ID, 3))

		got, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.QtyCurrent)
		assert.Equal(t, inventory.LotStatusSoldOut, got.Status)
	})

	t.Run("never goes negative", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 2, lotsEpoch, nil)
		require.NoError(t, repo.Save(ctx, lot))

		err := repo.Decrement(ctx, lot.ID, 3)
		assert.ErrorIs(t, err, shared.ErrNegativeQuantity)

		got, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.QtyCurrent)
	})

	t.Run("inactive lot", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 2, lotsEpoch, nil)
		require.NoError(t, lot.Discard())
		require.NoError(t, repo.Save(ctx, lot))

		assert.ErrorIs(t, repo.Decrement(ctx, lot.ID, 1), shared.ErrInvalidState)
	})

	t.Run("unknown lot", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		assert.ErrorIs(t, repo.Decrement(ctx, uuid.New(), 1), shared.ErrNotFound)
	})
}

func TestGormLotRepository_TransitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps a decrement committed after the read", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 10, lotsEpoch, nil)
		require.NoError(t, repo.Save(ctx, lot))

		stale, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Decrement(ctx, lot.ID, 4))
		require.NoError(t, stale.ChangeStatus(inventory.LotStatusDiscarded))

		require.NoError(t, repo.TransitionStatus(ctx, lot.ID, inventory.LotStatusActive, stale.Status))

		got, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.QtyCurrent)
		assert.Equal(t, inventory.LotStatusDiscarded, got.Status)
		assert.ErrorIs(t, repo.Decrement(ctx, lot.ID, 1), shared.ErrInvalidState)
	})

	t.Run("lot sold out since the read", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		lot := testutil.Lot(t, uuid.New(), 3, lotsEpoch, nil)
		require.NoError(t, repo.Save(ctx, lot))
		require.NoError(t, repo.Decrement(ctx, lot.ID, 3))

		err := repo.TransitionStatus(ctx, lot.ID, inventory.LotStatusActive, inventory.LotStatusExpired)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		got, err := repo.FindByID(ctx, lot.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.LotStatusSoldOut, got.Status)
	})

	t.Run("unknown lot", func(t *testing.T) {
		repo := newSQLiteLotRepository(t)
		err := repo.TransitionStatus(ctx, uuid.New(), inventory.LotStatusActive, inventory.LotStatusExpired)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLotRepository_Queries(t *testing.T) {
	repo := newSQLiteLotRepository(t)
	ctx := context.Background()
	latte := uuid.New()
	muffin := uuid.New()

	expiring := testutil.Lot(t, latte, 4, lotsEpoch.AddDate(0, 0, -2), testutil.At(lotsEpoch, 1))
	fresh := testutil.Lot(t, latte, 6, lotsEpoch, testutil.At(lotsEpoch, 10))
	undated := testutil.Lot(t, muffin, 7, lotsEpoch, nil)
	expired := testutil.Lot(t, muffin, 9, lotsEpoch.AddDate(0, 0, -9), testutil.At(lotsEpoch, -1))
	require.NoError(t, expired.MarkExpired())
	require.NoError(t, repo.SaveBatch(ctx, []*inventory.Lot{expiring, fresh, undated, expired}))

	t.Run("sum of vigente stock per product", func(t *testing.T) {
		sums, err := repo.SumActiveStockByProduct(ctx)
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]int{latte: 10, muffin: 7}, sums)
	})

	t.Run("expiring before skips undated and inactive lots", func(t *testing.T) {
		lots, err := repo.ListActiveExpiringBefore(ctx, lotsEpoch.AddDate(0, 0, 2))
		require.NoError(t, err)
		require.Len(t, lots, 1)
		assert.Equal(t, expiring.ID, lots[0].ID)
	})

	t.Run("filter by status", func(t *testing.T) {
		status := inventory.LotStatusExpired
		lots, err := repo.FindAll(ctx, inventory.LotFilter{Filter: shared.DefaultFilter(), Status: &status})
		require.NoError(t, err)
		require.Len(t, lots, 1)
		assert.Equal(t, expired.ID, lots[0].ID)
	})

	t.Run("filter by product newest first", func(t *testing.T) {
		lots, err := repo.FindAll(ctx, inventory.LotFilter{Filter: shared.DefaultFilter(), ProductID: &latte})
		require.NoError(t, err)
		require.Len(t, lots, 2)
		assert.Equal(t, fresh.ID, lots[0].ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, undated.ID))
		assert.ErrorIs(t, repo.Delete(ctx, undated.ID), shared.ErrNotFound)
		_, err := repo.FindByID(ctx, undated.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

package planning

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/catalog"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/inventory"
	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/trade"
)

func TestDemandEstimator_Estimate(t *testing.T) {
	now := time.Date(2024, 5, 29, 18, 0, 0, 0, time.UTC)
	estimator := NewDemandEstimator(28, time.UTC)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	lines := []SaleLine{
		{ProductID: a, SoldAt: now.AddDate(0, 0, -1).Add(-2 * time.Hour), Qty: 4},
		{ProductID: a, SoldAt: now.AddDate(0, 0, -1).Add(-5 * time.Hour), Qty: 4}, // same day, summed to 8
		{ProductID: a, SoldAt: now.AddDate(0, 0, -3), Qty: 12},
		{ProductID: a, SoldAt: now.AddDate(0, 0, -10), Qty: 10},
		{ProductID: a, SoldAt: now.AddDate(0, 0, -40), Qty: 100}, // outside window
		{ProductID: b, SoldAt: now.AddDate(0, 0, -2), Qty: 6},
		{ProductID: c, SoldAt: now.AddDate(0, 0, -29), Qty: 3}, // outside window
	}

	table := estimator.Estimate(lines, now)

	t.Run("sample mean and std over days with sales", func(t *testing.T) {
		s := table[a]
		assert.Equal(t, 3, s.DaysWithSales)
		assert.InDelta(t, 10.0, s.MeanDaily, 1e-9)
		assert.InDelta(t, 2.0, s.StdDaily, 1e-9) // values 8, 12, 10
		assert.Equal(t, 30, s.TotalQty)
	})

	t.Run("single day has zero std", func(t *testing.T) {
		s := table[b]
		assert.InDelta(t, 6.0, s.MeanDaily, 1e-9)
		assert.Equal(t, 0.0, s.StdDaily)
	})

	t.Run("products without sales in window are absent", func(t *testing.T) {
		_, ok := table[c]
		assert.False(t, ok)
		s := table.Lookup(c)
		assert.Equal(t, 0.0, s.MeanDaily)
		assert.Equal(t, 0.0, s.StdDaily)
	})

	t.Run("empty history", func(t *testing.T) {
		assert.Empty(t, estimator.Estimate(nil, now))
	})

	t.Run("days are cut in the configured location", func(t *testing.T) {
		santiago := time.FixedZone("CLT", -4*3600)
		p := uuid.New()
		// 02:00 UTC and 23:00 UTC on the same UTC day fall on different days at UTC-4
		day := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
		ls := []SaleLine{
			{ProductID: p, SoldAt: day.Add(2 * time.Hour), Qty: 1},
			{ProductID: p, SoldAt: day.Add(23 * time.Hour), Qty: 3},
		}
		assert.Equal(t, 1, NewDemandEstimator(28, time.UTC).Estimate(ls, now)[p].DaysWithSales)
		assert.Equal(t, 2, NewDemandEstimator(28, santiago).Estimate(ls, now)[p].DaysWithSales)
	})
}

func TestLinesFromSales(t *testing.T) {
	soldAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sale, err := trade.NewSale(soldAt, trade.ChannelLocal, trade.PaymentCash, "")
	require.NoError(t, err)
	p := uuid.New()
	require.NoError(t, sale.AddItem(p, nil, 3, decimal.NewFromInt(100), nil))

	orphan := trade.SaleItem{SaleID: uuid.New(), ProductID: p, Qty: 9}
	lines := LinesFromSales([]trade.Sale{*sale}, append(sale.Items, orphan))
	require.Len(t, lines, 1)
	assert.Equal(t, soldAt, lines[0].SoldAt)
	assert.Equal(t, 3, lines[0].Qty)
}

func TestAdviseReorder(t *testing.T) {
	params := ReorderParams{LeadTimeDays: 3, CoverDays: 7, ServiceZ: 1.28}

	t.Run("reference scenario", func(t *testing.T) {
		advice := AdviseReorder(20, 10, 2, params)
		assert.InDelta(t, 32.56, advice.ROP, 1e-9)
		assert.True(t, advice.NeedsReorder)
		assert.Equal(t, 53, advice.SuggestedQty)
	})

	t.Run("enough stock", func(t *testing.T) {
		advice := AdviseReorder(200, 10, 2, params)
		assert.False(t, advice.NeedsReorder)
		assert.Equal(t, 0, advice.SuggestedQty)
	})

	t.Run("no demand never needs reorder", func(t *testing.T) {
		advice := AdviseReorder(0, 0, 0, params)
		assert.Equal(t, 0.0, advice.ROP)
		assert.False(t, advice.NeedsReorder)
		assert.Equal(t, 0, advice.SuggestedQty)
	})

	t.Run("ROP is monotone in mean, std and lead time", func(t *testing.T) {
		base := AdviseReorder(10, 5, 1, params).ROP
		assert.GreaterOrEqual(t, AdviseReorder(10, 6, 1, params).ROP, base)
		assert.GreaterOrEqual(t, AdviseReorder(10, 5, 2, params).ROP, base)
		longer := params
		longer.LeadTimeDays = 4
		assert.GreaterOrEqual(t, AdviseReorder(10, 5, 1, longer).ROP, base)

		for mean := 0.0; mean < 20; mean += 0.5 {
			for std := 0.0; std < 5; std += 0.5 {
				r := AdviseReorder(0, mean, std, params).ROP
				assert.LessOrEqual(t, r, AdviseReorder(0, mean+0.5, std, params).ROP)
				assert.LessOrEqual(t, r, AdviseReorder(0, mean, std+0.5, params).ROP)
			}
		}
	})
}

func newProduct(t *testing.T, sku, name string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(sku, catalog.ProductDetails{Name: name, Category: "Bebidas"})
	require.NoError(t, err)
	return *p
}

func TestBuildReorderReport(t *testing.T) {
	cafe := newProduct(t, "PSI-107", "Café")
	jugo := newProduct(t, "PSI-104", "Jugo")
	torta := newProduct(t, "PSI-109", "Torta")

	demand := DemandTable{
		cafe.ID: {ProductID: cafe.ID, MeanDaily: 10, StdDaily: 2},
		jugo.ID: {ProductID: jugo.ID, MeanDaily: 20, StdDaily: 0},
	}
	stock := map[uuid.UUID]int{cafe.ID: 20, jugo.ID: 5, torta.ID: 3}

	lines := BuildReorderReport([]catalog.Product{cafe, jugo, torta}, stock, demand, DefaultReorderParams())
	require.Len(t, lines, 2)
	assert.Equal(t, "Jugo", lines[0].Name) // 20*7-5 = 135
	assert.Equal(t, 135, lines[0].Advice.SuggestedQty)
	assert.Equal(t, "Café", lines[1].Name)
	assert.Equal(t, 53, lines[1].Advice.SuggestedQty)
}

func liquidationLot(t *testing.T, productID uuid.UUID, qty int, now time.Time, expiresIn time.Duration) inventory.Lot {
	t.Helper()
	exp := now.Add(expiresIn)
	lot, err := inventory.NewLot(productID, "LOT", now.AddDate(0, 0, -10), &exp, qty, decimal.NewFromInt(100))
	require.NoError(t, err)
	return *lot
}

func TestAdviseLiquidation(t *testing.T) {
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	cheesecake, helado, cafe := uuid.New(), uuid.New(), uuid.New()
	demand := DemandTable{
		cheesecake: {ProductID: cheesecake, MeanDaily: 3},
		cafe:       {ProductID: cafe, MeanDaily: 50},
	}

	t.Run("reference scenario", func(t *testing.T) {
		lot := liquidationLot(t, cheesecake, 50, now, 5*day+time.Hour)
		out := AdviseLiquidation([]inventory.Lot{lot}, demand, now, 7)
		require.Len(t, out, 1)
		assert.Equal(t, 5, out[0].DaysLeft)
		assert.InDelta(t, 15.0, out[0].ProjectedDemand, 1e-9)
		assert.InDelta(t, 35.0, out[0].Excess, 1e-9)
	})

	t.Run("filters and ranks by excess", func(t *testing.T) {
		// no demand: excess 40
		big := liquidationLot(t, helado, 40, now, 2*day)
		// 10 - 3 = 7
		small := liquidationLot(t, cheesecake, 10, now, 1*day)
		// 30 - 150 < 0
		absorbed := liquidationLot(t, cafe, 30, now, 3*day)
		// outside window
		far := liquidationLot(t, helado, 99, now, 20*day)
		// days_left < 0 -> projected 0
		expired := liquidationLot(t, cheesecake, 8, now, -2*day)
		discarded := liquidationLot(t, helado, 70, now, 1*day)
		require.NoError(t, discarded.Discard())

		out := AdviseLiquidation([]inventory.Lot{small, absorbed, far, big, expired, discarded}, demand, now, 7)
		require.Len(t, out, 3)
		assert.Equal(t, big.ID, out[0].Lot.ID)
		assert.Equal(t, expired.ID, out[1].Lot.ID)
		assert.Equal(t, 0.0, out[1].ProjectedDemand)
		assert.Equal(t, small.ID, out[2].Lot.ID)
		for i := 1; i < len(out); i++ {
			assert.GreaterOrEqual(t, out[i-1].Excess, out[i].Excess)
		}
	})

	t.Run("undated lots are never candidates", func(t *testing.T) {
		lot, err := inventory.NewLot(helado, "LOT", now, nil, 10, decimal.Zero)
		require.NoError(t, err)
		assert.Empty(t, AdviseLiquidation([]inventory.Lot{*lot}, demand, now, 7))
	})
}

func TestSummarizeKPIs(t *testing.T) {
	cafe := newProduct(t, "PSI-107", "Café")
	cafe.UnitCost = decimal.NewFromInt(350)

	sale, err := trade.NewSale(time.Now(), trade.ChannelLocal, trade.PaymentCash, "")
	require.NoError(t, err)
	require.NoError(t, sale.AddItem(cafe.ID, nil, 4, decimal.NewFromInt(1800), nil))
	require.NoError(t, sale.AddItem(uuid.New(), nil, 1, decimal.NewFromInt(1000), nil))

	w, err := inventory.NewWaste(cafe.ID, nil, 2, decimal.NewFromInt(350), inventory.WasteReasonPreparation, inventory.ShiftNight, time.Now())
	require.NoError(t, err)

	k := SummarizeKPIs([]trade.Sale{*sale}, sale.Items, []catalog.Product{cafe}, []inventory.Waste{*w})
	assert.Equal(t, 1, k.SalesCount)
	assert.True(t, decimal.NewFromInt(8200).Equal(k.SalesTotal))
	assert.True(t, decimal.NewFromInt(1400).Equal(k.COGS))
	assert.True(t, decimal.NewFromInt(6800).Equal(k.EstimatedMargin))
	assert.True(t, decimal.NewFromInt(700).Equal(k.WasteCost))
	assert.Equal(t, 2, k.WasteUnits)
}

func TestSalesByPeriod(t *testing.T) {
	mk := func(ts time.Time, total int64) trade.Sale {
		s, err := trade.NewSale(ts, trade.ChannelLocal, trade.PaymentCard, "")
		require.NoError(t, err)
		s.Total = decimal.NewFromInt(total)
		return *s
	}
	sales := []trade.Sale{
		// Monday W19
		mk(time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC), 100),
		// Sunday W19
		mk(time.Date(2024, 5, 12, 22, 0, 0, 0, time.UTC), 50),
		// Monday W20
		mk(time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC), 70),
		// April, W18
		mk(time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC), 30),
	}

	weeks := SalesByPeriod(sales, GranularityWeek, time.UTC)
	require.Len(t, weeks, 3)
	assert.Equal(t, "2024-W18", weeks[0].Period)
	assert.Equal(t, "2024-W19", weeks[1].Period)
	assert.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), weeks[1].Start)
	assert.True(t, decimal.NewFromInt(150).Equal(weeks[1].Total))
	assert.Equal(t, 2, weeks[1].Count)

	months := SalesByPeriod(sales, GranularityMonth, time.UTC)
	require.Len(t, months, 2)
	assert.Equal(t, "2024-04", months[0].Period)
	assert.True(t, decimal.NewFromInt(220).Equal(months[1].Total))

}

package store

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/logistika/internal/db"
)

func TestAdjustStockCreatesLevel(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := mustWarehouse(t, database, "W1")
	p := mustProduct(t, database, "SKU-1", "Thing")

	before, after, err := AdjustStock(ctx, database, StockAdjustment{
		WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: 10, DeltaReserved: 2,
	})
	require.NoError(t, err)
	assert.Nil(t, before)
	assert.EqualValues(t, 10, after.OnHand)
	assert.EqualValues(t, 2, after.Reserved)
	assert.Equal(t, "W1", after.WarehouseCode)
	assert.Equal(t, "SKU-1", after.ProductSKU)
}

func TestAdjustStockClampsOnCreate(t *testing.T) {
	database := db.NewTestDB(t)

	w := mustWarehouse(t, database, "W1")
	p := mustProduct(t, database, "SKU-1", "Thing")

	_, after, err := AdjustStock(context.Background(), database, StockAdjustment{
		WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: -5, DeltaReserved: -1,
	})
	require.NoError(t, err)
	assert.Zero(t, after.OnHand)
	assert.Zero(t, after.Reserved)
}

func TestAdjustStockClampsOnUpdate(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := mustWarehouse(t, database, "W1")
	p := mustProduct(t, database, "SKU-1", "Thing")

	_, first, err := AdjustStock(ctx, database, StockAdjustment{WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: 10})
	require.NoError(t, err)

	before, after, err := AdjustStock(ctx, database, StockAdjustment{WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: -15, DeltaReserved: 4})
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.EqualValues(t, 10, before.OnHand)
	assert.Equal(t, first.ID, after.ID)
	assert.Zero(t, after.OnHand)
	assert.EqualValues(t, 4, after.Reserved)

	_, after, err = AdjustStock(ctx, database, StockAdjustment{WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: 3, DeltaReserved: -1})
	require.NoError(t, err)
	assert.EqualValues(t, 3, after.OnHand)
	assert.EqualValues(t, 3, after.Reserved)
}

func TestAdjustStockSaturates(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := mustWarehouse(t, database, "W1")
	p := mustProduct(t, database, "SKU-1", "Thing")

	_, after, err := AdjustStock(ctx, database, StockAdjustment{
		WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: math.MaxInt64, DeltaReserved: math.MaxInt64,
	})
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), after.OnHand)

	_, after, err = AdjustStock(ctx, database, StockAdjustment{
		WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: 1, DeltaReserved: math.MaxInt64,
	})
	require.NoError(t, err)
	assert.EqualValues(t, int64(math.MaxInt64), after.OnHand)
	assert.EqualValues(t, int64(math.MaxInt64), after.Reserved)

	_, after, err = AdjustStock(ctx, database, StockAdjustment{
		WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: math.MinInt64, DeltaReserved: -1,
	})
	require.NoError(t, err)
	assert.Zero(t, after.OnHand)
	assert.EqualValues(t, int64(math.MaxInt64-1), after.Reserved)
}

func TestAdjustStockMissingReference(t *testing.T) {
	database := db.NewTestDB(t)

	p := mustProduct(t, database, "SKU-1", "Thing")

	_, _, err := AdjustStock(context.Background(), database, StockAdjustment{WarehouseID: 77, ExternalProductID: p.ID, DeltaOnHand: 1})
	assert.ErrorIs(t, err, ErrForeignKey)
}

func TestAdjustStockConcurrent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w := mustWarehouse(t, database, "W1")
	p := mustProduct(t, database, "SKU-1", "Thing")

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := AdjustStock(ctx, database, StockAdjustment{WarehouseID: w.ID, ExternalProductID: p.ID, DeltaOnHand: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	level, err := GetStock(ctx, database, w.ID, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, n, level.OnHand)
}

func TestListStockFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	w1 := mustWarehouse(t, database, "W1")
	w2 := mustWarehouse(t, database, "W2")
	p1 := mustProduct(t, database, "SKU-1", "One")
	p2 := mustProduct(t, database, "SKU-2", "Two")

	for _, w := range []int64{w1.ID, w2.ID} {
		for _, p := range []int64{p1.ID, p2.ID} {
			_, _, err := AdjustStock(ctx, database, StockAdjustment{WarehouseID: w, ExternalProductID: p, DeltaOnHand: 1})
			require.NoError(t, err)
		}
	}

	all, err := ListStock(ctx, database, StockFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	byWarehouse, err := ListStock(ctx, database, StockFilter{WarehouseID: w1.ID})
	require.NoError(t, err)
	assert.Len(t, byWarehouse, 2)

	both, err := ListStock(ctx, database, StockFilter{WarehouseID: w2.ID, ExternalProductID: p1.ID})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, w2.ID, both[0].WarehouseID)
	assert.Equal(t, p1.ID, both[0].ExternalProductID)

	none, err := ListStock(ctx, database, StockFilter{WarehouseID: 999})
	require.NoError(t, err)
	assert.Empty(t, none)
}

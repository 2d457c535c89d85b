package db

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT * FROM stock_levels WHERE warehouse_id = ? AND external_product_id = ?"

	assert.Equal(t, q, rebind(SQLite, q))
	assert.Equal(t,
		"SELECT * FROM stock_levels WHERE warehouse_id = $1 AND external_product_id = $2",
		rebind(Postgres, q))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.Error(t, err)
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	d := NewTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = d.EnsureSchema(ctx)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestSchemaTables(t *testing.T) {
	d := NewTestDB(t)

	for _, table := range []string{
		"external_products", "warehouses", "stock_levels",
		"internal_to_external_mappings", "shipments", "shipment_events",
		"api_keys", "audit_log",
	} {
		var name string
		err := d.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	d := NewTestDB(t)

	_, err := d.ExecContext(context.Background(),
		"INSERT INTO stock_levels (warehouse_id, external_product_id) VALUES (?, ?)", 99, 99)
	assert.Error(t, err)
}
